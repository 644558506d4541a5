package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/fyp-portal/fyp-admin-api/internal/models"
	"github.com/fyp-portal/fyp-admin-api/pkg/config"
	"github.com/fyp-portal/fyp-admin-api/pkg/jobs"
	"github.com/fyp-portal/fyp-admin-api/pkg/mailer"
)

type announcementMail struct {
	GuideID string
	Title   string
	Message string
}

// GuideNotifier fans announcement mail out to guides on a background
// worker pool. Delivery failures are retried then logged; the API call
// that published the announcement never waits on them.
type GuideNotifier struct {
	guides guideReader
	mail   mailer.Mailer
	queue  *jobs.Queue
	logger *zap.Logger
}

// NewGuideNotifier constructs the notifier and its queue.
func NewGuideNotifier(guides guideReader, mail mailer.Mailer, cfg config.JobsConfig, logger *zap.Logger) *GuideNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	n := &GuideNotifier{guides: guides, mail: mail, logger: logger}
	n.queue = jobs.New("guide-mail", n.deliver, jobs.Config{
		Workers:    cfg.Workers,
		BufferSize: cfg.BufferSize,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return n
}

// Start launches the delivery workers.
func (n *GuideNotifier) Start(ctx context.Context) { n.queue.Start(ctx) }

// Stop drains the delivery workers.
func (n *GuideNotifier) Stop() { n.queue.Stop() }

// NotifyGuides enqueues one mail job per addressed guide. Enqueue failures
// are logged and swallowed.
func (n *GuideNotifier) NotifyGuides(a *models.GuideAnnouncement) {
	for _, guideID := range a.GuideIDs {
		job := jobs.Job{
			ID:      fmt.Sprintf("%s:%s", a.ID, guideID),
			Kind:    "announcement-mail",
			Payload: announcementMail{GuideID: guideID, Title: a.Title, Message: a.Message},
		}
		if err := n.queue.Enqueue(job); err != nil {
			n.logger.Error("announcement mail not queued",
				zap.String("announcement_id", a.ID),
				zap.String("guide_id", guideID),
				zap.Error(err),
			)
		}
	}
}

func (n *GuideNotifier) deliver(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(announcementMail)
	if !ok {
		n.logger.Error("unexpected mail payload", zap.String("job_id", job.ID))
		return nil
	}

	guide, err := n.guides.FindByID(ctx, payload.GuideID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			n.logger.Warn("announcement addressed to unknown guide",
				zap.String("guide_id", payload.GuideID))
			return nil
		}
		return fmt.Errorf("resolve guide %s: %w", payload.GuideID, err)
	}

	body := fmt.Sprintf("%s\n\n%s", payload.Title, payload.Message)
	if err := n.mail.Send(ctx, guide.Name, guide.Email, payload.Title, body); err != nil {
		return fmt.Errorf("send announcement mail: %w", err)
	}
	return nil
}
