package linkextract

import (
	"bytes"
	"context"
	"io"
	"regexp"
	"strings"

	accountdomain "invoicescan-backend/internal/account/domain"
	syncdomain "invoicescan-backend/internal/syncengine/domain"

	"github.com/emersion/go-message/mail"
)

// Link is a confidence-scored document candidate found in a message body
type Link struct {
	Source     string  `json:"source"`
	URL        string  `json:"url,omitempty"`
	Filename   string  `json:"filename,omitempty"`
	Confidence float64 `json:"confidence"`
}

// Service finds document links inside message bodies
type Service interface {
	ExtractDocumentLinks(ctx context.Context, account *accountdomain.EmailAccount, password, folder string, uid uint32) ([]Link, error)
}

// extractor implements Service by fetching bodies over IMAP
type extractor struct {
	connector syncdomain.MailConnector
}

// NewExtractor creates a new body-link extraction service
func NewExtractor(connector syncdomain.MailConnector) Service {
	return &extractor{connector: connector}
}

func (e *extractor) ExtractDocumentLinks(ctx context.Context, account *accountdomain.EmailAccount, password, folder string, uid uint32) ([]Link, error) {
	session, err := e.connector.Connect(ctx, account.IMAPHost, account.IMAPPort, account.UseTLS, account.EmailAddress, password)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	if folder == "" {
		folder = "INBOX"
	}
	if err := session.Select(folder); err != nil {
		return nil, err
	}

	raw, err := session.FetchBody(ctx, uid)
	if err != nil {
		return nil, err
	}

	text := extractTextParts(raw)
	return ExtractLinksFromText(text), nil
}

var urlPattern = regexp.MustCompile(`https?://[^\s"'<>)\]]+`)

// documentHints maps URL substrings to confidence scores, strongest first
var documentHints = []struct {
	hint  string
	score float64
}{
	{".pdf", 0.9},
	{"invoice", 0.7},
	{"fapiao", 0.7},
	{"发票", 0.7},
	{"receipt", 0.7},
	{"bill", 0.6},
	{"download", 0.5},
	{"attachment", 0.5},
}

// ExtractLinksFromText scans free text for URLs that look like they point
// at a downloadable document. Non-document URLs are dropped.
func ExtractLinksFromText(text string) []Link {
	seen := make(map[string]bool)
	var links []Link
	for _, raw := range urlPattern.FindAllString(text, -1) {
		url := strings.TrimRight(raw, ".,;")
		if seen[url] {
			continue
		}
		seen[url] = true

		score := scoreURL(url)
		if score == 0 {
			continue
		}
		links = append(links, Link{
			Source:     "body_link",
			URL:        url,
			Confidence: score,
		})
	}
	return links
}

func scoreURL(url string) float64 {
	lowered := strings.ToLower(url)
	for _, h := range documentHints {
		if strings.Contains(lowered, h.hint) {
			return h.score
		}
	}
	return 0
}

// extractTextParts pulls text/plain and text/html parts out of a raw
// RFC 822 message. A message that fails MIME parsing is treated as plain text.
func extractTextParts(raw []byte) string {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		return string(raw)
	}
	defer mr.Close()

	var sb strings.Builder
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}

		if h, ok := part.Header.(*mail.InlineHeader); ok {
			contentType, _, _ := h.ContentType()
			if strings.HasPrefix(contentType, "text/") {
				body, readErr := io.ReadAll(part.Body)
				if readErr != nil {
					continue
				}
				sb.Write(body)
				sb.WriteByte('\n')
			}
		}
	}
	return sb.String()
}
