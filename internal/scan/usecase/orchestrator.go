package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	accountrepo "invoicescan-backend/internal/account/repository"
	"invoicescan-backend/internal/scan/domain"
	"invoicescan-backend/internal/scan/repository"
	syncusecase "invoicescan-backend/internal/syncengine/usecase"
	"invoicescan-backend/pkg/config"
	"invoicescan-backend/pkg/crypto"
	"invoicescan-backend/pkg/fuzzy"
	"invoicescan-backend/pkg/linkextract"

	"gorm.io/datatypes"
)

// errInterrupted signals that the job left the running state under us
// (cancelled by the user or failed by the stuck-job sweep); the execution
// stops without touching the terminal state someone else committed.
var errInterrupted = errors.New("job is no longer running")

// scanJobUsecase implements ScanJobUsecase
type scanJobUsecase struct {
	jobRepo     repository.ScanJobRepository
	accountRepo accountrepo.EmailAccountRepository
	engine      syncusecase.Engine
	extractor   linkextract.Service
	cfg         *config.Config
}

// NewScanJobUsecase creates a new scan job orchestrator
func NewScanJobUsecase(jobRepo repository.ScanJobRepository, accountRepo accountrepo.EmailAccountRepository, engine syncusecase.Engine, extractor linkextract.Service, cfg *config.Config) ScanJobUsecase {
	return &scanJobUsecase{
		jobRepo:     jobRepo,
		accountRepo: accountRepo,
		engine:      engine,
		extractor:   extractor,
		cfg:         cfg,
	}
}

func (u *scanJobUsecase) CreateJob(ctx context.Context, userID, accountID string, kind domain.JobKind, params *domain.ScanParams) (*domain.ScanJob, error) {
	account, err := u.accountRepo.FindByID(accountID)
	if err != nil {
		return nil, err
	}
	if account == nil || account.UserID != userID {
		return nil, fmt.Errorf("email account not found")
	}
	if !account.Active {
		return nil, fmt.Errorf("email account is not active")
	}

	if params == nil {
		params = &domain.ScanParams{}
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	// Fail any stuck leftovers first so they don't block this creation
	if _, err := u.cleanupStuckForAccount(accountID, u.cfg.StuckTimeout, u.cfg.StagnationTimeout); err != nil {
		return nil, err
	}

	// An incremental scan needs a completed full sweep to build on; without
	// one, promote to a full scan reaching a year back
	if kind == domain.KindIncremental {
		synced, err := u.engine.FullSyncCompleted(accountID, u.cfg.DefaultFolder)
		if err != nil {
			return nil, err
		}
		if !synced {
			log.Printf("[ScanJob] Account %s has no completed full sync, promoting incremental job to manual", accountID)
			kind = domain.KindManual
			widened := time.Now().AddDate(0, 0, -365)
			params.DateFrom = &widened
		}
	}

	if params.MaxEmails <= 0 {
		params.MaxEmails = u.cfg.DefaultMaxEmails
	}

	job := &domain.ScanJob{
		UserID:         userID,
		EmailAccountID: accountID,
		Kind:           kind,
		Status:         domain.StatusPending,
		CurrentStep:    "created",
	}
	if err := job.SetScanParams(params); err != nil {
		return nil, err
	}

	existing, err := u.jobRepo.CreateIfNoActive(job)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, &domain.ConflictError{
			JobID:    existing.ID,
			Status:   existing.Status,
			Progress: existing.Progress,
		}
	}

	log.Printf("[ScanJob] Created job %s (kind %s) for account %s", job.ID, job.Kind, accountID)
	return job, nil
}

func (u *scanJobUsecase) Execute(ctx context.Context, jobID string) error {
	job, err := u.jobRepo.FindByID(jobID)
	if err != nil {
		return err
	}
	if job == nil {
		return fmt.Errorf("scan job not found")
	}
	if job.Status != domain.StatusPending {
		return fmt.Errorf("scan job %s cannot be executed from status %s", jobID, job.Status)
	}

	now := time.Now()
	started, err := u.jobRepo.UpdateFieldsWhereStatus(jobID, domain.StatusPending, map[string]interface{}{
		"status":        domain.StatusRunning,
		"progress":      0,
		"current_step":  "starting",
		"error_message": "",
		"started_at":    now,
	})
	if err != nil {
		return err
	}
	if !started {
		return fmt.Errorf("scan job %s was picked up by another execution", jobID)
	}

	// Single conversion point: any failure below becomes a terminal
	// failed state; there are no partial retries inside one execution
	if runErr := u.runJob(ctx, job); runErr != nil {
		if errors.Is(runErr, errInterrupted) {
			log.Printf("[ScanJob] Job %s interrupted, leaving state committed by cancel/sweep", jobID)
			return nil
		}
		u.markFailed(jobID, runErr)
		return &domain.ProcessingError{JobID: jobID, Step: u.currentStep(jobID), Err: runErr}
	}
	return nil
}

func (u *scanJobUsecase) runJob(ctx context.Context, job *domain.ScanJob) error {
	params, err := job.ScanParamsValue()
	if err != nil {
		return fmt.Errorf("failed to decode scan params: %w", err)
	}

	account, err := u.accountRepo.FindByID(job.EmailAccountID)
	if err != nil {
		return err
	}
	if account == nil {
		return fmt.Errorf("email account %s not found", job.EmailAccountID)
	}
	password, err := crypto.Decrypt(account.PasswordEncrypted, u.cfg.EncryptionKey)
	if err != nil {
		return fmt.Errorf("failed to decrypt account credentials: %w", err)
	}

	folder := u.cfg.DefaultFolder

	// Step 1: bring the local index up to date
	if err := u.checkpoint(ctx, job.ID, 10, "syncing_mailbox"); err != nil {
		return err
	}
	if _, err := u.engine.SyncAccount(ctx, account, password, syncusecase.SyncOptions{
		Folder:          folder,
		DateFrom:        params.DateFrom,
		DateTo:          params.DateTo,
		SubjectKeywords: params.SubjectKeywords,
		Senders:         params.Senders,
	}); err != nil {
		return err
	}

	// Step 2: query the index for candidates
	if err := u.checkpoint(ctx, job.ID, 50, "searching_index"); err != nil {
		return err
	}
	matches, err := u.engine.SearchIndex(ctx, account.ID, syncusecase.IndexFilter{
		Folder:          folder,
		DateFrom:        params.DateFrom,
		DateTo:          params.DateTo,
		SubjectKeywords: params.SubjectKeywords,
		ExcludeKeywords: params.ExcludeKeywords,
		Limit:           params.MaxEmails,
	})
	if err != nil {
		return err
	}

	summary := domain.ResultSummary{TotalMatched: len(matches)}
	emails := make([]domain.ResultEmail, 0, len(matches))
	for _, rec := range matches {
		entry := domain.ResultEmail{
			UID:             rec.UID,
			Subject:         rec.Subject,
			From:            rec.FromAddress,
			Date:            rec.MessageDate,
			HasAttachments:  rec.HasAttachments,
			AttachmentNames: rec.AttachmentNameList(),
		}
		if rec.HasAttachments {
			summary.WithAttachments++
		}
		emails = append(emails, entry)
	}

	// Step 3 (optional): look for document links in bodies of candidates
	// that carry no attachment
	if params.ScanBodyLinks {
		scanned := 0
		for i := range emails {
			if emails[i].HasAttachments {
				continue
			}
			if scanned >= params.MaxEmails {
				break
			}
			progress := 60 + (scanned*20)/max(params.MaxEmails, 1)
			if err := u.checkpoint(ctx, job.ID, progress, "scanning_bodies"); err != nil {
				return err
			}

			links, extractErr := u.extractor.ExtractDocumentLinks(ctx, account, password, folder, emails[i].UID)
			scanned++
			if extractErr != nil {
				summary.Errors = append(summary.Errors,
					fmt.Sprintf("uid %d: %v", emails[i].UID, extractErr))
				continue
			}
			for _, link := range links {
				emails[i].DocumentLinks = append(emails[i].DocumentLinks, domain.DocumentLink{
					Source:     link.Source,
					URL:        link.URL,
					Filename:   link.Filename,
					Confidence: link.Confidence,
				})
			}
			summary.LinksFound += len(links)
		}
		summary.BodiesScanned = scanned
	}

	// Rank results by how strongly they resemble the searched keyword so
	// the report surfaces likely invoices first. Date order is kept when
	// no keyword was given.
	if len(params.SubjectKeywords) > 0 {
		keyword := params.SubjectKeywords[0]
		for i := range emails {
			emails[i].Relevance = fuzzy.RelevanceScore(keyword, emails[i].Subject, emails[i].From)
		}
		sort.SliceStable(emails, func(i, j int) bool {
			return emails[i].Relevance > emails[j].Relevance
		})
	}
	summary.Emails = emails

	// Step 4: commit the terminal state and all statistics atomically
	payload, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to encode result summary: %w", err)
	}
	now := time.Now()
	committed, err := u.jobRepo.UpdateFieldsWhereStatus(job.ID, domain.StatusRunning, map[string]interface{}{
		"status":         domain.StatusCompleted,
		"progress":       100,
		"current_step":   "completed",
		"emails_found":   summary.TotalMatched,
		"emails_scanned": summary.BodiesScanned,
		"links_found":    summary.LinksFound,
		"results":        datatypes.JSON(payload),
		"completed_at":   now,
	})
	if err != nil {
		return err
	}
	if !committed {
		return errInterrupted
	}

	log.Printf("[ScanJob] Job %s completed: %d matched, %d bodies scanned, %d links",
		job.ID, summary.TotalMatched, summary.BodiesScanned, summary.LinksFound)
	return nil
}

// checkpoint commits progress and doubles as the cooperative cancellation
// check: it refuses to advance a job that is no longer running.
func (u *scanJobUsecase) checkpoint(ctx context.Context, jobID string, progress int, step string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	changed, err := u.jobRepo.UpdateFieldsWhereStatus(jobID, domain.StatusRunning, map[string]interface{}{
		"progress":     progress,
		"current_step": step,
	})
	if err != nil {
		return err
	}
	if !changed {
		return errInterrupted
	}
	return nil
}

func (u *scanJobUsecase) markFailed(jobID string, cause error) {
	now := time.Now()
	changed, err := u.jobRepo.UpdateFieldsWhereStatus(jobID, domain.StatusRunning, map[string]interface{}{
		"status":        domain.StatusFailed,
		"error_message": cause.Error(),
		"completed_at":  now,
	})
	if err != nil {
		log.Printf("[ScanJob] Failed to mark job %s failed: %v", jobID, err)
		return
	}
	if !changed {
		log.Printf("[ScanJob] Job %s already left running state, not overwriting", jobID)
	}
}

func (u *scanJobUsecase) currentStep(jobID string) string {
	job, err := u.jobRepo.FindByID(jobID)
	if err != nil || job == nil {
		return ""
	}
	return job.CurrentStep
}

func (u *scanJobUsecase) Cancel(ctx context.Context, jobID string, force bool, reason string) error {
	job, err := u.jobRepo.FindByID(jobID)
	if err != nil {
		return err
	}
	if job == nil {
		return fmt.Errorf("scan job not found")
	}
	if !job.Status.Active() {
		return fmt.Errorf("scan job %s cannot be cancelled from status %s", jobID, job.Status)
	}

	if reason == "" {
		reason = "cancelled by user"
	}
	now := time.Now()
	fields := map[string]interface{}{
		"status":        domain.StatusCancelled,
		"current_step":  "cancelled",
		"error_message": reason,
		"completed_at":  now,
	}

	// Mark persisted state only; an in-flight sync step is not preempted
	// and will stop at its next checkpoint
	for _, st := range []domain.JobStatus{domain.StatusPending, domain.StatusRunning} {
		changed, err := u.jobRepo.UpdateFieldsWhereStatus(jobID, st, fields)
		if err != nil {
			return err
		}
		if changed {
			log.Printf("[ScanJob] Job %s cancelled (force=%v): %s", jobID, force, reason)
			return nil
		}
	}
	return fmt.Errorf("scan job %s reached a terminal state before it could be cancelled", jobID)
}

func (u *scanJobUsecase) Retry(ctx context.Context, jobID string) error {
	job, err := u.jobRepo.FindByID(jobID)
	if err != nil {
		return err
	}
	if job == nil {
		return fmt.Errorf("scan job not found")
	}
	if job.Status != domain.StatusFailed {
		return fmt.Errorf("scan job %s cannot be retried from status %s", jobID, job.Status)
	}

	changed, err := u.jobRepo.UpdateFieldsWhereStatus(jobID, domain.StatusFailed, map[string]interface{}{
		"status":        domain.StatusPending,
		"progress":      0,
		"current_step":  "created",
		"error_message": "",
		"started_at":    nil,
		"completed_at":  nil,
	})
	if err != nil {
		return err
	}
	if !changed {
		return fmt.Errorf("scan job %s left failed state before retry", jobID)
	}

	log.Printf("[ScanJob] Job %s reset for retry", jobID)
	go func() {
		if err := u.Execute(context.Background(), jobID); err != nil {
			log.Printf("[ScanJob] Retried job %s failed: %v", jobID, err)
		}
	}()
	return nil
}

func (u *scanJobUsecase) CleanupStuckJobs(timeout, stagnation time.Duration) (int, error) {
	jobs, err := u.jobRepo.ListByStatus(domain.StatusRunning)
	if err != nil {
		return 0, err
	}
	return u.failStuck(jobs, timeout, stagnation)
}

func (u *scanJobUsecase) cleanupStuckForAccount(accountID string, timeout, stagnation time.Duration) (int, error) {
	jobs, err := u.jobRepo.ListRunningByAccount(accountID)
	if err != nil {
		return 0, err
	}
	return u.failStuck(jobs, timeout, stagnation)
}

// failStuck applies the heartbeat-free liveness heuristic: a running job is
// stuck once it exceeds the wall-clock budget, or once it has sat below
// half progress for longer than the stagnation window.
func (u *scanJobUsecase) failStuck(jobs []*domain.ScanJob, timeout, stagnation time.Duration) (int, error) {
	now := time.Now()
	failed := 0
	for _, job := range jobs {
		if job.StartedAt == nil {
			continue
		}
		elapsed := now.Sub(*job.StartedAt)

		var reason string
		switch {
		case elapsed > timeout:
			reason = fmt.Sprintf("job timed out after %s", elapsed.Round(time.Second))
		case job.Progress < 50 && elapsed > stagnation:
			reason = fmt.Sprintf("job stagnated at %d%% after %s", job.Progress, elapsed.Round(time.Second))
		default:
			continue
		}

		changed, err := u.jobRepo.UpdateFieldsWhereStatus(job.ID, domain.StatusRunning, map[string]interface{}{
			"status":        domain.StatusFailed,
			"error_message": reason,
			"completed_at":  now,
		})
		if err != nil {
			return failed, err
		}
		if changed {
			log.Printf("[Sweep] Job %s marked failed: %s", job.ID, reason)
			failed++
		}
	}
	return failed, nil
}

func (u *scanJobUsecase) DeleteJob(ctx context.Context, jobID string) error {
	job, err := u.jobRepo.FindByID(jobID)
	if err != nil {
		return err
	}
	if job == nil {
		return fmt.Errorf("scan job not found")
	}
	if job.Status == domain.StatusRunning {
		return fmt.Errorf("scan job %s is running and cannot be deleted", jobID)
	}
	return u.jobRepo.Delete(jobID)
}

func (u *scanJobUsecase) GetJob(ctx context.Context, jobID string) (*domain.ScanJob, error) {
	return u.jobRepo.FindByID(jobID)
}

func (u *scanJobUsecase) GetProgress(ctx context.Context, jobID string) (*JobProgress, error) {
	job, err := u.jobRepo.FindByID(jobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, fmt.Errorf("scan job not found")
	}
	return &JobProgress{
		JobID:         job.ID,
		Status:        job.Status,
		Progress:      job.Progress,
		CurrentStep:   job.CurrentStep,
		EmailsFound:   job.EmailsFound,
		EmailsScanned: job.EmailsScanned,
		LinksFound:    job.LinksFound,
		ErrorMessage:  job.ErrorMessage,
	}, nil
}

func (u *scanJobUsecase) ListJobs(ctx context.Context, filter repository.JobFilter) ([]*domain.ScanJob, int64, error) {
	return u.jobRepo.List(filter)
}
