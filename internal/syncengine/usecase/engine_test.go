package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	accountdomain "invoicescan-backend/internal/account/domain"
	"invoicescan-backend/internal/syncengine/domain"
	"invoicescan-backend/internal/syncengine/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// fakeSession serves canned messages and records every criteria it was
// asked to evaluate
type fakeSession struct {
	messages []domain.MessageSummary
	searches []domain.Criteria
	selected string
	closed   bool
}

func (s *fakeSession) Select(folder string) error {
	s.selected = folder
	return nil
}

func (s *fakeSession) Search(_ context.Context, criteria domain.Criteria, _ string) ([]domain.MessageSummary, error) {
	s.searches = append(s.searches, criteria)

	var out []domain.MessageSummary
	for _, msg := range s.messages {
		if criteria.UIDFrom > 0 && msg.UID < criteria.UIDFrom {
			continue
		}
		if criteria.Since != nil && msg.Date.Before(*criteria.Since) {
			continue
		}
		if criteria.Before != nil && msg.Date.After(*criteria.Before) {
			continue
		}
		out = append(out, msg)
	}
	return out, nil
}

func (s *fakeSession) FetchBody(context.Context, uint32) ([]byte, error) {
	return nil, errors.New("not implemented")
}

func (s *fakeSession) Close() error {
	s.closed = true
	return nil
}

type fakeConnector struct {
	session *fakeSession
	err     error
}

func (c *fakeConnector) Connect(context.Context, string, int, bool, string, string) (domain.MailSession, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.session, nil
}

func setupSyncTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "Failed to connect to in-memory database")
	require.NoError(t, db.AutoMigrate(&domain.SyncState{}, &domain.EmailIndexRecord{}))
	return db
}

func newTestEngine(t *testing.T, connector domain.MailConnector, window time.Duration) (Engine, repository.SyncStateRepository, repository.EmailIndexRepository) {
	db := setupSyncTestDB(t)
	stateRepo := repository.NewSyncStateRepository(db)
	indexRepo := repository.NewEmailIndexRepository(db)
	return NewSyncEngine(stateRepo, indexRepo, connector, window), stateRepo, indexRepo
}

func testAccount() *accountdomain.EmailAccount {
	return &accountdomain.EmailAccount{
		ID:            "acc-1",
		UserID:        "user-1",
		EmailAddress:  "billing@example.com",
		IMAPHost:      "imap.example.com",
		IMAPPort:      993,
		UseTLS:        true,
		Active:        true,
		SyncStartDate: time.Now().AddDate(-2, 0, 0),
	}
}

func summariesWithUIDs(uids ...uint32) []domain.MessageSummary {
	now := time.Now()
	out := make([]domain.MessageSummary, 0, len(uids))
	for _, uid := range uids {
		out = append(out, domain.MessageSummary{
			UID:     uid,
			Subject: "Invoice for order",
			From:    "billing@vendor.com",
			Date:    now.Add(-time.Duration(uid) * time.Minute),
		})
	}
	return out
}

func TestSyncEngine_FullSyncThenIncrementalIsIdempotent(t *testing.T) {
	session := &fakeSession{messages: summariesWithUIDs(10, 11, 12)}
	engine, stateRepo, _ := newTestEngine(t, &fakeConnector{session: session}, 0)
	account := testAccount()

	outcome, err := engine.SyncAccount(context.Background(), account, "secret", SyncOptions{})
	require.NoError(t, err)
	assert.Equal(t, domain.ModeIncremental, outcome.Mode)
	assert.Equal(t, 3, outcome.Processed)
	assert.Equal(t, 3, outcome.Inserted)
	assert.Equal(t, uint32(12), outcome.Watermark)
	assert.True(t, session.closed)

	// Same remote content again: nothing new, watermark unchanged
	outcome, err = engine.SyncAccount(context.Background(), account, "secret", SyncOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0, outcome.Inserted)
	assert.Equal(t, uint32(12), outcome.Watermark)

	state, err := stateRepo.Get(account.ID, "INBOX")
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, domain.ModeIncremental, state.Mode)
	assert.Equal(t, int64(3), state.TotalEmailsIndexed)
}

func TestSyncEngine_IncrementalPicksUpTailAboveWatermark(t *testing.T) {
	session := &fakeSession{messages: summariesWithUIDs(10, 11, 12)}
	engine, _, indexRepo := newTestEngine(t, &fakeConnector{session: session}, 0)
	account := testAccount()

	_, err := engine.SyncAccount(context.Background(), account, "secret", SyncOptions{})
	require.NoError(t, err)

	// Remote moved on: 10 expunged, 13 arrived
	session.messages = summariesWithUIDs(11, 12, 13)

	outcome, err := engine.SyncAccount(context.Background(), account, "secret", SyncOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, outcome.Inserted, "only uid 13 is unseen")
	assert.Equal(t, uint32(13), outcome.Watermark)

	count, err := indexRepo.CountByAccount(account.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)
}

func TestSyncEngine_EmptyFullSyncStaysOnFullPath(t *testing.T) {
	session := &fakeSession{}
	engine, stateRepo, _ := newTestEngine(t, &fakeConnector{session: session}, 0)
	account := testAccount()

	outcome, err := engine.SyncAccount(context.Background(), account, "secret", SyncOptions{})
	require.NoError(t, err)
	assert.Equal(t, domain.ModeFullNeeded, outcome.Mode)
	assert.Equal(t, uint32(0), outcome.Watermark)

	state, err := stateRepo.Get(account.ID, "INBOX")
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Nil(t, state.LastFullSyncAt)

	done, err := engine.FullSyncCompleted(account.ID, "INBOX")
	require.NoError(t, err)
	assert.False(t, done)
}

func TestSyncEngine_FullSyncFailureRevertsMode(t *testing.T) {
	engine, stateRepo, _ := newTestEngine(t, &fakeConnector{err: errors.New("dial tcp: connection refused")}, 0)
	account := testAccount()

	_, err := engine.SyncAccount(context.Background(), account, "secret", SyncOptions{})
	require.Error(t, err)

	state, err := stateRepo.Get(account.ID, "INBOX")
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, domain.ModeFullNeeded, state.Mode)
}

func TestSyncEngine_IncrementalWindowFloorsDateFrom(t *testing.T) {
	window := 180 * 24 * time.Hour
	session := &fakeSession{messages: summariesWithUIDs(10)}
	engine, _, _ := newTestEngine(t, &fakeConnector{session: session}, window)
	account := testAccount()

	_, err := engine.SyncAccount(context.Background(), account, "secret", SyncOptions{})
	require.NoError(t, err)

	// Ask the incremental run for a whole year; the recent window must
	// still be clamped to the configured floor
	yearAgo := time.Now().AddDate(-1, 0, 0)
	session.searches = nil
	_, err = engine.SyncAccount(context.Background(), account, "secret", SyncOptions{DateFrom: &yearAgo})
	require.NoError(t, err)

	require.NotEmpty(t, session.searches)
	recentCrit := session.searches[0]
	require.NotNil(t, recentCrit.Since)
	floor := time.Now().Add(-window)
	assert.WithinDuration(t, floor, *recentCrit.Since, time.Minute)
}

func TestSyncEngine_IncrementalHonorsNewerDateFrom(t *testing.T) {
	session := &fakeSession{messages: summariesWithUIDs(10)}
	engine, _, _ := newTestEngine(t, &fakeConnector{session: session}, 180*24*time.Hour)
	account := testAccount()

	_, err := engine.SyncAccount(context.Background(), account, "secret", SyncOptions{})
	require.NoError(t, err)

	weekAgo := time.Now().AddDate(0, 0, -7)
	session.searches = nil
	_, err = engine.SyncAccount(context.Background(), account, "secret", SyncOptions{DateFrom: &weekAgo})
	require.NoError(t, err)

	require.NotEmpty(t, session.searches)
	require.NotNil(t, session.searches[0].Since)
	assert.WithinDuration(t, weekAgo, *session.searches[0].Since, time.Second)
}

func TestSyncEngine_SearchIndexExcludeWins(t *testing.T) {
	engine, _, indexRepo := newTestEngine(t, &fakeConnector{session: &fakeSession{}}, 0)
	now := time.Now()

	seed := []*domain.EmailIndexRecord{
		{AccountID: "acc-1", Folder: "INBOX", UID: 1, Subject: "发票 2024-08", MessageDate: now.Add(-time.Hour)},
		{AccountID: "acc-1", Folder: "INBOX", UID: 2, Subject: "发票 测试 please ignore", MessageDate: now.Add(-2 * time.Hour)},
		{AccountID: "acc-1", Folder: "INBOX", UID: 3, Subject: "Weekly newsletter", MessageDate: now.Add(-3 * time.Hour)},
	}
	for _, rec := range seed {
		_, err := indexRepo.Upsert(rec)
		require.NoError(t, err)
	}

	matches, err := engine.SearchIndex(context.Background(), "acc-1", IndexFilter{
		Folder:          "INBOX",
		SubjectKeywords: []string{"发票"},
		ExcludeKeywords: []string{"测试"},
	})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, uint32(1), matches[0].UID, "a matching exclude keyword must override the include match")
}

func TestSyncEngine_SearchIndexCaseInsensitive(t *testing.T) {
	engine, _, indexRepo := newTestEngine(t, &fakeConnector{session: &fakeSession{}}, 0)

	_, err := indexRepo.Upsert(&domain.EmailIndexRecord{
		AccountID: "acc-1", Folder: "INBOX", UID: 7,
		Subject: "Your INVOICE is ready", MessageDate: time.Now(),
	})
	require.NoError(t, err)

	matches, err := engine.SearchIndex(context.Background(), "acc-1", IndexFilter{
		Folder:          "INBOX",
		SubjectKeywords: []string{"invoice"},
	})
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestSubjectMatches(t *testing.T) {
	assert.True(t, subjectMatches("Invoice #42", []string{"invoice"}, nil))
	assert.True(t, subjectMatches("anything", nil, nil), "no include keywords matches everything")
	assert.False(t, subjectMatches("Invoice test run", []string{"invoice"}, []string{"test"}))
	assert.False(t, subjectMatches("Newsletter", []string{"invoice"}, nil))
	assert.False(t, subjectMatches("发票 测试", []string{"发票"}, []string{"测试"}))
}
