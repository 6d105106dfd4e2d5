package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/campus-clubs/backend/internal/metrics"
	"github.com/campus-clubs/backend/pkg/queue"
)

// Source is the consumer side of the job queue.
type Source interface {
	Dequeue(ctx context.Context) (*queue.Job, error)
	Retry(ctx context.Context, job *queue.Job) error
}

// Mailer delivers one HTML email.
type Mailer interface {
	Send(ctx context.Context, to, subject, bodyHTML string) error
}

// ObjectRemover deletes stored objects.
type ObjectRemover interface {
	Delete(ctx context.Context, key string) error
}

var errUnknownJob = errors.New("unknown job type")

// Processor runs email and object cleanup jobs.
type Processor struct {
	source  Source
	mailer  Mailer
	objects ObjectRemover
	backoff time.Duration
	logger  *zap.Logger
}

// NewProcessor creates a job processor. objects may be nil when storage is disabled.
func NewProcessor(source Source, mailer Mailer, objects ObjectRemover, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{source: source, mailer: mailer, objects: objects, backoff: queue.RetryBackoff, logger: logger}
}

// Process executes one job.
func (p *Processor) Process(ctx context.Context, job *queue.Job) error {
	switch job.Type {
	case queue.JobTypeEmail:
		var payload queue.EmailPayload
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			return fmt.Errorf("unmarshal payload: %w", err)
		}
		if err := p.mailer.Send(ctx, payload.RecipientEmail, payload.Subject, payload.BodyHTML); err != nil {
			return err
		}
		p.logger.Info("email sent", zap.String("job_id", job.ID), zap.String("kind", payload.Kind))
		return nil
	case queue.JobTypeObjectDelete:
		var payload queue.ObjectDeletePayload
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			return fmt.Errorf("unmarshal payload: %w", err)
		}
		if p.objects == nil {
			p.logger.Warn("storage not configured, object kept", zap.String("key", payload.Key))
			return nil
		}
		if err := p.objects.Delete(ctx, payload.Key); err != nil {
			return err
		}
		p.logger.Debug("object deleted", zap.String("key", payload.Key))
		return nil
	default:
		return fmt.Errorf("%w: %s", errUnknownJob, job.Type)
	}
}

// Run starts the worker loop: dequeue, process, retry on error. It returns when ctx is cancelled.
func (p *Processor) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			p.logger.Info("worker stopping")
			return
		}

		job, err := p.source.Dequeue(ctx)
		if err != nil {
			if ctx.Err() == nil {
				p.logger.Warn("dequeue error", zap.Error(err))
				p.sleep(ctx)
			}
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			metrics.JobsProcessed.WithLabelValues(string(job.Type), "failed").Inc()
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt), zap.Error(err))
			if errors.Is(err, errUnknownJob) {
				continue
			}
			if reErr := p.source.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			p.sleep(ctx)
			continue
		}
		metrics.JobsProcessed.WithLabelValues(string(job.Type), "ok").Inc()
	}
}

func (p *Processor) sleep(ctx context.Context) {
	t := time.NewTimer(p.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
