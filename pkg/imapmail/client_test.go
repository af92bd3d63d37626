package imapmail

import (
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	syncdomain "invoicescan-backend/internal/syncengine/domain"
)

type stubSession struct {
	syncdomain.MailSession
}

func testConnector(dialFn func(addr string, useTLS bool, username, password string) (syncdomain.MailSession, error)) *Connector {
	c := NewConnector(time.Second)
	c.backoffBase = time.Millisecond
	c.dialFn = dialFn
	return c
}

func TestConnector_RetriesAuthFailures(t *testing.T) {
	attempts := 0
	c := testConnector(func(addr string, useTLS bool, username, password string) (syncdomain.MailSession, error) {
		attempts++
		return nil, &ConnError{Kind: KindAuth, Host: addr, Err: errors.New("NO [AUTHENTICATIONFAILED]")}
	})

	_, err := c.Connect(context.Background(), "imap.example.com", 993, true, "user", "bad-password")

	require.Error(t, err)
	assert.Equal(t, 3, attempts, "login failures get the full retry budget")
	assert.True(t, IsAuthError(err))
}

func TestConnector_StopsRetryingOnSuccess(t *testing.T) {
	attempts := 0
	c := testConnector(func(addr string, useTLS bool, username, password string) (syncdomain.MailSession, error) {
		attempts++
		if attempts < 2 {
			return nil, &ConnError{Kind: KindNetwork, Host: addr, Err: errors.New("connection refused")}
		}
		return &stubSession{}, nil
	})

	session, err := c.Connect(context.Background(), "imap.example.com", 993, true, "user", "password")

	require.NoError(t, err)
	assert.NotNil(t, session)
	assert.Equal(t, 2, attempts)
}

func TestConnector_CancelledContextAbortsBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	c := testConnector(func(addr string, useTLS bool, username, password string) (syncdomain.MailSession, error) {
		attempts++
		cancel()
		return nil, &ConnError{Kind: KindNetwork, Host: addr, Err: errors.New("connection refused")}
	})
	c.backoffBase = time.Minute

	_, err := c.Connect(ctx, "imap.example.com", 993, true, "user", "password")

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
}

func TestClassifyLoginError(t *testing.T) {
	assert.Equal(t, KindAuth, classifyLoginError(errors.New("NO [AUTHENTICATIONFAILED] Invalid credentials")))
	assert.Equal(t, KindOther, classifyLoginError(io.EOF))

	timeout := &net.OpError{Op: "read", Err: errors.New("i/o timeout")}
	assert.Equal(t, KindOther, classifyLoginError(timeout))
}
