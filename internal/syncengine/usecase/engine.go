package usecase

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	accountdomain "invoicescan-backend/internal/account/domain"
	"invoicescan-backend/internal/syncengine/domain"
	"invoicescan-backend/internal/syncengine/repository"
)

const searchCharset = "UTF-8"

// syncEngine implements Engine against a mail connector and the local index
type syncEngine struct {
	syncStateRepo     repository.SyncStateRepository
	indexRepo         repository.EmailIndexRepository
	connector         domain.MailConnector
	incrementalWindow time.Duration
}

// NewSyncEngine creates a new sync engine. The incremental window bounds
// how far back an incremental run looks regardless of the caller's range.
func NewSyncEngine(syncStateRepo repository.SyncStateRepository, indexRepo repository.EmailIndexRepository, connector domain.MailConnector, incrementalWindow time.Duration) Engine {
	if incrementalWindow <= 0 {
		incrementalWindow = 180 * 24 * time.Hour
	}
	return &syncEngine{
		syncStateRepo:     syncStateRepo,
		indexRepo:         indexRepo,
		connector:         connector,
		incrementalWindow: incrementalWindow,
	}
}

func (e *syncEngine) SyncAccount(ctx context.Context, account *accountdomain.EmailAccount, password string, opts SyncOptions) (*SyncOutcome, error) {
	if opts.Folder == "" {
		opts.Folder = "INBOX"
	}

	state, err := e.syncStateRepo.GetOrCreate(account.ID, opts.Folder, account.SyncStartDate)
	if err != nil {
		return nil, fmt.Errorf("failed to load sync state: %w", err)
	}

	if state.Mode == domain.ModeIncremental {
		return e.incrementalSync(ctx, account, password, state, opts)
	}
	return e.fullSync(ctx, account, password, state, opts)
}

func (e *syncEngine) fullSync(ctx context.Context, account *accountdomain.EmailAccount, password string, state *domain.SyncState, opts SyncOptions) (*SyncOutcome, error) {
	log.Printf("[SyncEngine] Starting full sync for account %s folder %s", account.ID, state.Folder)

	state.Mode = domain.ModeFullInProgress
	if err := e.syncStateRepo.Update(state); err != nil {
		return nil, fmt.Errorf("failed to mark full sync in progress: %w", err)
	}

	outcome, err := e.runFullSync(ctx, account, password, state, opts)
	if err != nil {
		// Not resumable: the next attempt restarts the full sweep from scratch
		state.Mode = domain.ModeFullNeeded
		if revertErr := e.syncStateRepo.Update(state); revertErr != nil {
			log.Printf("[SyncEngine] Failed to revert sync mode for account %s: %v", account.ID, revertErr)
		}
		return nil, fmt.Errorf("full sync failed for account %s: %w", account.ID, err)
	}
	return outcome, nil
}

func (e *syncEngine) runFullSync(ctx context.Context, account *accountdomain.EmailAccount, password string, state *domain.SyncState, opts SyncOptions) (*SyncOutcome, error) {
	session, err := e.connector.Connect(ctx, account.IMAPHost, account.IMAPPort, account.UseTLS, account.EmailAddress, password)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	if err := session.Select(state.Folder); err != nil {
		return nil, err
	}

	crit := domain.BuildCriteria(domain.SearchSpec{
		DateFrom:        opts.DateFrom,
		DateTo:          opts.DateTo,
		SubjectKeywords: opts.SubjectKeywords,
		Senders:         opts.Senders,
	})

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	messages, err := session.Search(ctx, crit, searchCharset)
	if err != nil {
		return nil, err
	}

	processed := 0
	inserted := 0
	maxUID := state.LastSyncedUID
	for _, msg := range messages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		// The server query already excludes older mail; re-check anyway
		if !state.SyncStartDate.IsZero() && msg.Date.Before(state.SyncStartDate) {
			continue
		}
		wasNew, err := e.indexRepo.Upsert(toIndexRecord(account.ID, state.Folder, msg))
		if err != nil {
			return nil, fmt.Errorf("failed to upsert uid %d: %w", msg.UID, err)
		}
		processed++
		if wasNew {
			inserted++
		}
		if msg.UID > maxUID {
			maxUID = msg.UID
		}
	}

	now := time.Now()
	if processed > 0 {
		state.Mode = domain.ModeIncremental
		state.LastSyncedUID = maxUID
		state.LastFullSyncAt = &now
	} else {
		// Empty result: keep the folder on the full path for the next run
		state.Mode = domain.ModeFullNeeded
	}
	state.TotalEmailsIndexed += int64(inserted)
	if err := e.syncStateRepo.Update(state); err != nil {
		return nil, fmt.Errorf("failed to commit sync state: %w", err)
	}

	log.Printf("[SyncEngine] Full sync done for account %s: %d processed, %d new, watermark %d",
		account.ID, processed, inserted, state.LastSyncedUID)

	return &SyncOutcome{
		Mode:      state.Mode,
		Processed: processed,
		Inserted:  inserted,
		Watermark: state.LastSyncedUID,
	}, nil
}

func (e *syncEngine) incrementalSync(ctx context.Context, account *accountdomain.EmailAccount, password string, state *domain.SyncState, opts SyncOptions) (*SyncOutcome, error) {
	log.Printf("[SyncEngine] Starting incremental sync for account %s folder %s (watermark %d)",
		account.ID, state.Folder, state.LastSyncedUID)

	session, err := e.connector.Connect(ctx, account.IMAPHost, account.IMAPPort, account.UseTLS, account.EmailAddress, password)
	if err != nil {
		return nil, fmt.Errorf("incremental sync failed for account %s: %w", account.ID, err)
	}
	defer session.Close()

	if err := session.Select(state.Folder); err != nil {
		return nil, fmt.Errorf("incremental sync failed for account %s: %w", account.ID, err)
	}

	// Recent window: the floor is fixed; a caller-supplied date_from older
	// than the window is ignored here (full sync honors it exactly)
	effectiveFrom := time.Now().Add(-e.incrementalWindow)
	if opts.DateFrom != nil && opts.DateFrom.After(effectiveFrom) {
		effectiveFrom = *opts.DateFrom
	}

	recentCrit := domain.BuildCriteria(domain.SearchSpec{
		DateFrom:        &effectiveFrom,
		DateTo:          opts.DateTo,
		SubjectKeywords: opts.SubjectKeywords,
		Senders:         opts.Senders,
	})

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	recent, err := session.Search(ctx, recentCrit, searchCharset)
	if err != nil {
		return nil, fmt.Errorf("incremental sync failed for account %s: %w", account.ID, err)
	}

	byUID := make(map[uint32]domain.MessageSummary, len(recent))
	for _, msg := range recent {
		byUID[msg.UID] = msg
	}

	// Tail window: everything strictly above the watermark
	if state.LastSyncedUID > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tailCrit := domain.Criteria{}.WithUIDFrom(state.LastSyncedUID + 1)
		tail, err := session.Search(ctx, tailCrit, searchCharset)
		if err != nil {
			return nil, fmt.Errorf("incremental sync failed for account %s: %w", account.ID, err)
		}
		for _, msg := range tail {
			byUID[msg.UID] = msg
		}
	}

	inserted := 0
	maxUID := state.LastSyncedUID
	for uid, msg := range byUID {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		wasNew, err := e.indexRepo.Upsert(toIndexRecord(account.ID, state.Folder, msg))
		if err != nil {
			return nil, fmt.Errorf("failed to upsert uid %d: %w", uid, err)
		}
		if wasNew {
			inserted++
		}
		if uid > maxUID {
			maxUID = uid
		}
	}

	now := time.Now()
	state.LastSyncedUID = maxUID
	state.LastIncrementalSyncAt = &now
	state.TotalEmailsIndexed += int64(inserted)
	if err := e.syncStateRepo.Update(state); err != nil {
		return nil, fmt.Errorf("failed to commit sync state: %w", err)
	}

	log.Printf("[SyncEngine] Incremental sync done for account %s: %d candidates, %d new, watermark %d",
		account.ID, len(byUID), inserted, state.LastSyncedUID)

	return &SyncOutcome{
		Mode:      state.Mode,
		Processed: len(byUID),
		Inserted:  inserted,
		Watermark: state.LastSyncedUID,
	}, nil
}

func (e *syncEngine) SearchIndex(ctx context.Context, accountID string, filter IndexFilter) ([]*domain.EmailIndexRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	records, err := e.indexRepo.Query(repository.IndexQuery{
		AccountID:      accountID,
		Folder:         filter.Folder,
		DateFrom:       filter.DateFrom,
		DateTo:         filter.DateTo,
		HasAttachments: filter.HasAttachments,
	})
	if err != nil {
		return nil, err
	}

	matched := make([]*domain.EmailIndexRecord, 0, len(records))
	for _, rec := range records {
		if !subjectMatches(rec.Subject, filter.SubjectKeywords, filter.ExcludeKeywords) {
			continue
		}
		matched = append(matched, rec)
		if filter.Limit > 0 && len(matched) >= filter.Limit {
			break
		}
	}
	return matched, nil
}

func (e *syncEngine) FullSyncCompleted(accountID, folder string) (bool, error) {
	if folder == "" {
		folder = "INBOX"
	}
	state, err := e.syncStateRepo.Get(accountID, folder)
	if err != nil {
		return false, err
	}
	if state == nil {
		return false, nil
	}
	return state.FullSyncCompleted() && state.Mode == domain.ModeIncremental, nil
}

// subjectMatches applies include/exclude keyword rules. An exclude match
// always wins, even when an include keyword also matches.
func subjectMatches(subject string, include, exclude []string) bool {
	lowered := strings.ToLower(subject)
	for _, kw := range exclude {
		if kw != "" && strings.Contains(lowered, strings.ToLower(kw)) {
			return false
		}
	}
	if len(include) == 0 {
		return true
	}
	for _, kw := range include {
		if kw != "" && strings.Contains(lowered, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

func toIndexRecord(accountID, folder string, msg domain.MessageSummary) *domain.EmailIndexRecord {
	return &domain.EmailIndexRecord{
		AccountID:       accountID,
		Folder:          folder,
		UID:             msg.UID,
		Subject:         msg.Subject,
		FromAddress:     msg.From,
		ToAddresses:     domain.EncodeStringList(msg.To),
		MessageDate:     msg.Date,
		MessageID:       msg.MessageID,
		HasAttachments:  len(msg.AttachmentNames) > 0,
		AttachmentCount: len(msg.AttachmentNames),
		AttachmentNames: domain.EncodeStringList(msg.AttachmentNames),
		Flags:           domain.EncodeStringList(msg.Flags),
	}
}
