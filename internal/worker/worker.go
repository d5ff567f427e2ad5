package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/couchsync/backend/internal/sessions"
	"github.com/couchsync/backend/pkg/queue"
)

// Presence reports how many clients are connected to a session room across
// all instances. The reaper consults it so a session that refilled during
// the grace period survives.
type Presence interface {
	Count(ctx context.Context, sessionID uuid.UUID) (int, error)
}

// SessionReaper processes session reap jobs: a session whose room stayed
// empty past the grace period is deleted together with its participants.
type SessionReaper struct {
	repo     *sessions.Repository
	presence Presence
	queue    *queue.Queue
	logger   *zap.Logger
	sleep    func(ctx context.Context, d time.Duration) error
}

// NewSessionReaper creates a session reaper.
func NewSessionReaper(repo *sessions.Repository, presence Presence, q *queue.Queue, logger *zap.Logger) *SessionReaper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionReaper{repo: repo, presence: presence, queue: q, logger: logger, sleep: sleepCtx}
}

// sleepCtx waits for d or until ctx is cancelled, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Process executes one session reap job.
func (p *SessionReaper) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeSessionReap {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.SessionReapPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	if wait := time.Until(payload.NotBefore); wait > 0 {
		if err := p.sleep(ctx, wait); err != nil {
			return err
		}
	}

	if _, err := p.repo.GetByID(ctx, payload.SessionID); err != nil {
		// Already gone (host ended it); nothing to reap.
		p.logger.Debug("session already deleted", zap.String("session_id", payload.SessionID.String()))
		return nil
	}

	if p.presence != nil {
		count, err := p.presence.Count(ctx, payload.SessionID)
		if err != nil {
			return fmt.Errorf("presence check: %w", err)
		}
		if count > 0 {
			p.logger.Info("session refilled, skipping reap", zap.String("session_id", payload.SessionID.String()))
			return nil
		}
	}

	if err := p.repo.Delete(ctx, payload.SessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	p.logger.Info("session reaped", zap.String("session_id", payload.SessionID.String()))
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *SessionReaper) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("session reaper stopping")
			return
		default:
		}

		job, err := p.queue.Dequeue(ctx)
		if err != nil {
			p.logger.Warn("dequeue error", zap.Error(err))
			p.sleep(ctx, queue.RetryBackoff)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			p.sleep(ctx, queue.RetryBackoff)
			continue
		}
	}
}
