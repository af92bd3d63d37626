package imapmail

import (
	"errors"
	"fmt"
)

// ErrorKind classifies connection failures so callers can surface
// distinct messages for credential problems vs. unreachable servers.
type ErrorKind string

const (
	KindAuth    ErrorKind = "auth"
	KindNetwork ErrorKind = "network"
	KindOther   ErrorKind = "other"
)

// ConnError is a failure while dialing or authenticating an IMAP session
type ConnError struct {
	Kind ErrorKind
	Host string
	Err  error
}

func (e *ConnError) Error() string {
	switch e.Kind {
	case KindAuth:
		return fmt.Sprintf("imap authentication failed for %s: %v", e.Host, e.Err)
	case KindNetwork:
		return fmt.Sprintf("imap server %s unreachable: %v", e.Host, e.Err)
	default:
		return fmt.Sprintf("imap connection to %s failed: %v", e.Host, e.Err)
	}
}

func (e *ConnError) Unwrap() error {
	return e.Err
}

// IsAuthError reports whether err is a credential failure
func IsAuthError(err error) bool {
	var connErr *ConnError
	return errors.As(err, &connErr) && connErr.Kind == KindAuth
}
