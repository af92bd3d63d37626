package domain

import (
	"context"
	"time"
)

// MessageSummary is the metadata fetched for one remote message
type MessageSummary struct {
	UID             uint32
	Subject         string
	From            string
	To              []string
	Date            time.Time
	MessageID       string
	Flags           []string
	AttachmentNames []string
}

// MailSession is an authenticated connection to a mail server.
// Callers must Close the session regardless of outcome.
type MailSession interface {
	// Select opens a folder for subsequent operations
	Select(folder string) error
	// Search evaluates the criteria server-side and fetches summaries for
	// every matching message. Charset applies to text clauses.
	Search(ctx context.Context, criteria Criteria, charset string) ([]MessageSummary, error)
	// FetchBody retrieves the raw RFC 822 body of one message
	FetchBody(ctx context.Context, uid uint32) ([]byte, error)
	Close() error
}

// MailConnector dials and authenticates mail sessions
type MailConnector interface {
	Connect(ctx context.Context, host string, port int, useTLS bool, username, password string) (MailSession, error)
}
