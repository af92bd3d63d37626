package imapmail

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"

	syncdomain "invoicescan-backend/internal/syncengine/domain"
)

// session adapts one authenticated IMAP connection to the sync engine's
// mail port. The protocol has no request cancellation, so the context is
// checked before each round-trip rather than during one.
type session struct {
	conn *client.Client
}

func (s *session) Select(folder string) error {
	// read-only select: syncing never mutates the remote mailbox
	if _, err := s.conn.Select(folder, true); err != nil {
		return fmt.Errorf("selecting folder %s: %w", folder, err)
	}
	return nil
}

// Search runs the criteria server-side and fetches envelope, flags and
// body structure for every hit. The charset hint is advisory: non-ASCII
// clauses are sent as literals, which servers read as UTF-8.
func (s *session) Search(ctx context.Context, criteria syncdomain.Criteria, _ string) ([]syncdomain.MessageSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	uids, err := s.conn.UidSearch(translateCriteria(criteria))
	if err != nil {
		return nil, fmt.Errorf("searching messages: %w", err)
	}
	if len(uids) == 0 {
		return nil, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(uids...)

	items := []imap.FetchItem{
		imap.FetchEnvelope,
		imap.FetchFlags,
		imap.FetchUid,
		imap.FetchBodyStructure,
	}

	messages := make(chan *imap.Message, 32)
	done := make(chan error, 1)
	go func() {
		done <- s.conn.UidFetch(seqset, items, messages)
	}()

	summaries := make([]syncdomain.MessageSummary, 0, len(uids))
	for msg := range messages {
		summaries = append(summaries, summarize(msg))
	}

	if err := <-done; err != nil {
		return nil, fmt.Errorf("fetching message summaries: %w", err)
	}
	return summaries, nil
}

func (s *session) FetchBody(ctx context.Context, uid uint32) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(uid)

	// Peek keeps the fetch from flagging the message as seen
	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{section.FetchItem(), imap.FetchUid}

	messages := make(chan *imap.Message, 1)
	done := make(chan error, 1)
	go func() {
		done <- s.conn.UidFetch(seqset, items, messages)
	}()

	var body []byte
	var readErr error
	for msg := range messages {
		if r := msg.GetBody(section); r != nil {
			body, readErr = io.ReadAll(r)
		}
	}

	if err := <-done; err != nil {
		return nil, fmt.Errorf("fetching body of message %d: %w", uid, err)
	}
	if readErr != nil {
		return nil, fmt.Errorf("reading body of message %d: %w", uid, readErr)
	}
	if body == nil {
		return nil, fmt.Errorf("message %d has no body", uid)
	}
	return body, nil
}

func (s *session) Close() error {
	return s.conn.Logout()
}

func summarize(msg *imap.Message) syncdomain.MessageSummary {
	summary := syncdomain.MessageSummary{
		UID:   msg.Uid,
		Flags: msg.Flags,
	}

	if env := msg.Envelope; env != nil {
		summary.Subject = env.Subject
		summary.Date = env.Date
		summary.MessageID = env.MessageId
		if len(env.From) > 0 {
			summary.From = env.From[0].Address()
		}
		for _, to := range env.To {
			summary.To = append(summary.To, to.Address())
		}
	}

	if msg.BodyStructure != nil {
		msg.BodyStructure.Walk(func(path []int, part *imap.BodyStructure) bool {
			if strings.EqualFold(part.Disposition, "attachment") {
				if name, err := part.Filename(); err == nil && name != "" {
					summary.AttachmentNames = append(summary.AttachmentNames, name)
				}
			}
			return true
		})
	}

	return summary
}
