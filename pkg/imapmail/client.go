package imapmail

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"time"

	"github.com/emersion/go-imap/client"

	syncdomain "invoicescan-backend/internal/syncengine/domain"
)

const (
	maxDialAttempts  = 3
	retryBackoffBase = 2 * time.Second
)

// Connector dials and authenticates IMAP sessions with bounded retries.
// Connect and login failures alike are retried with exponential backoff;
// some servers answer NO to a valid login under transient load.
type Connector struct {
	dialTimeout time.Duration
	backoffBase time.Duration

	// dialFn is swapped out in tests
	dialFn func(addr string, useTLS bool, username, password string) (syncdomain.MailSession, error)
}

// NewConnector creates a connector with the given per-attempt dial timeout
func NewConnector(dialTimeout time.Duration) *Connector {
	c := &Connector{dialTimeout: dialTimeout, backoffBase: retryBackoffBase}
	c.dialFn = c.dial
	return c
}

func (c *Connector) Connect(ctx context.Context, host string, port int, useTLS bool, username, password string) (syncdomain.MailSession, error) {
	addr := fmt.Sprintf("%s:%d", host, port)

	var lastErr error
	for attempt := 1; attempt <= maxDialAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		session, err := c.dialFn(addr, useTLS, username, password)
		if err == nil {
			return session, nil
		}
		lastErr = err

		if attempt < maxDialAttempts {
			backoff := c.backoffBase * time.Duration(1<<(attempt-1))
			log.Printf("[IMAP] Connect to %s failed (attempt %d/%d), retrying in %s: %v",
				addr, attempt, maxDialAttempts, backoff, err)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	return nil, lastErr
}

func (c *Connector) dial(addr string, useTLS bool, username, password string) (syncdomain.MailSession, error) {
	dialer := &net.Dialer{Timeout: c.dialTimeout}

	var (
		conn *client.Client
		err  error
	)
	if useTLS {
		conn, err = client.DialWithDialerTLS(dialer, addr, nil)
	} else {
		conn, err = client.DialWithDialer(dialer, addr)
	}
	if err != nil {
		return nil, &ConnError{Kind: KindNetwork, Host: addr, Err: err}
	}

	conn.Timeout = c.dialTimeout

	if err := conn.Login(username, password); err != nil {
		_ = conn.Logout()
		return nil, &ConnError{Kind: classifyLoginError(err), Host: addr, Err: err}
	}

	return &session{conn: conn}, nil
}

// classifyLoginError separates a server rejecting the credentials from the
// session breaking mid-exchange after a successful dial.
func classifyLoginError(err error) ErrorKind {
	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, io.EOF) {
		return KindOther
	}
	return KindAuth
}
