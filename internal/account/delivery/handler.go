package delivery

import (
	"net/http"
	"time"

	"invoicescan-backend/internal/account/domain"
	"invoicescan-backend/internal/account/repository"
	"invoicescan-backend/pkg/crypto"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AccountHandler handles email account HTTP requests
type AccountHandler struct {
	accountRepo   repository.EmailAccountRepository
	encryptionKey string
}

// NewAccountHandler creates a new AccountHandler
func NewAccountHandler(accountRepo repository.EmailAccountRepository, encryptionKey string) *AccountHandler {
	return &AccountHandler{
		accountRepo:   accountRepo,
		encryptionKey: encryptionKey,
	}
}

// CreateAccountRequest represents the request body for registering a mailbox
type CreateAccountRequest struct {
	EmailAddress  string     `json:"email_address" binding:"required,email"`
	IMAPHost      string     `json:"imap_host" binding:"required"`
	IMAPPort      int        `json:"imap_port"`
	UseTLS        *bool      `json:"use_tls"`
	Password      string     `json:"password" binding:"required"`
	SyncStartDate *time.Time `json:"sync_start_date"`
}

// CreateAccount registers a mailbox for scanning
// POST /api/accounts
func (h *AccountHandler) CreateAccount(c *gin.Context) {
	userID := c.GetString("userID")

	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	encrypted, err := crypto.Encrypt(req.Password, h.encryptionKey)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store credentials"})
		return
	}

	port := req.IMAPPort
	if port == 0 {
		port = 993
	}
	useTLS := true
	if req.UseTLS != nil {
		useTLS = *req.UseTLS
	}
	syncStart := time.Now().AddDate(-1, 0, 0)
	if req.SyncStartDate != nil {
		syncStart = *req.SyncStartDate
	}

	account := &domain.EmailAccount{
		ID:                uuid.New().String(),
		UserID:            userID,
		EmailAddress:      req.EmailAddress,
		IMAPHost:          req.IMAPHost,
		IMAPPort:          port,
		UseTLS:            useTLS,
		PasswordEncrypted: encrypted,
		Active:            true,
		SyncStartDate:     syncStart,
	}

	if err := h.accountRepo.Create(account); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, account)
}

// ListAccounts returns all mailboxes registered by the authenticated user
// GET /api/accounts
func (h *AccountHandler) ListAccounts(c *gin.Context) {
	userID := c.GetString("userID")

	accounts, err := h.accountRepo.FindByUserID(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if accounts == nil {
		accounts = []*domain.EmailAccount{}
	}

	c.JSON(http.StatusOK, gin.H{"accounts": accounts})
}

// DeactivateAccount disables scanning for a mailbox without deleting its index
// POST /api/accounts/:id/deactivate
func (h *AccountHandler) DeactivateAccount(c *gin.Context) {
	userID := c.GetString("userID")

	account, err := h.accountRepo.FindByID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if account == nil || account.UserID != userID {
		c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
		return
	}

	account.Active = false
	if err := h.accountRepo.Update(account); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, account)
}
