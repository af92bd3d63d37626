package api

import (
	accountDelivery "invoicescan-backend/internal/account/delivery"
	accountRepo "invoicescan-backend/internal/account/repository"
	authUsecasePkg "invoicescan-backend/internal/auth/usecase"
	scanDelivery "invoicescan-backend/internal/scan/delivery"
	scanUsecasePkg "invoicescan-backend/internal/scan/usecase"
	"invoicescan-backend/pkg/config"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	authUsecase    authUsecasePkg.AuthUsecase
	scanUsecase    scanUsecasePkg.ScanJobUsecase
	config         *config.Config
	scanHandler    *scanDelivery.ScanJobHandler
	accountHandler *accountDelivery.AccountHandler
}

func NewHandler(authUc authUsecasePkg.AuthUsecase, scanUc scanUsecasePkg.ScanJobUsecase, accounts accountRepo.EmailAccountRepository, cfg *config.Config) *Handler {
	return &Handler{
		authUsecase:    authUc,
		scanUsecase:    scanUc,
		config:         cfg,
		scanHandler:    scanDelivery.NewScanJobHandler(scanUc),
		accountHandler: accountDelivery.NewAccountHandler(accounts, cfg.EncryptionKey),
	}
}

func (h *Handler) Start(addr string) error {
	r := gin.Default()
	gin.SetMode(gin.ReleaseMode)

	// CORS middleware
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Setup routes
	SetupRoutes(r, h.authUsecase, h.scanHandler, h.accountHandler)

	return r.Run(addr)
}
