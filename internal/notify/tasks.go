package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/noah-isme/webquote/internal/common"
	"github.com/noah-isme/webquote/internal/events"
	"github.com/noah-isme/webquote/internal/leads"
	"github.com/noah-isme/webquote/internal/obs"
	"github.com/noah-isme/webquote/internal/resilience"
)

// TypeQuoteEmail is the asynq task type for quote emails.
const TypeQuoteEmail = "quote:email"

// QueueEmail is the asynq queue quote emails run on.
const QueueEmail = "email"

// NewEmailTask wraps a quote.requested event. The event id doubles as the task
// id, so a replayed event cannot queue a second email while the first is retained.
func NewEmailTask(ev events.Event, maxRetry int) (*asynq.Task, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("notify: encode task: %w", err)
	}
	opts := []asynq.Option{
		asynq.TaskID(ev.ID),
		asynq.Queue(QueueEmail),
		asynq.Retention(24 * time.Hour),
	}
	if maxRetry > 0 {
		opts = append(opts, asynq.MaxRetry(maxRetry))
	}
	return asynq.NewTask(TypeQuoteEmail, payload, opts...), nil
}

// TaskClient is the part of *asynq.Client used to enqueue.
type TaskClient interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Enqueuer subscribes to quote.requested and queues an email task per event.
type Enqueuer struct {
	Client   TaskClient
	MaxRetry int
	Logger   zerolog.Logger
}

// Handle implements events.Handler.
func (e Enqueuer) Handle(ctx context.Context, ev events.Event) error {
	if e.Client == nil {
		return errors.New("notify: task client not configured")
	}
	task, err := NewEmailTask(ev, e.MaxRetry)
	if err != nil {
		return err
	}
	info, err := e.Client.EnqueueContext(ctx, task)
	switch {
	case errors.Is(err, asynq.ErrTaskIDConflict):
		obs.Inc(obs.QuoteEmailsTotal, "enqueue", "duplicate")
		return nil
	case err != nil:
		obs.Inc(obs.QuoteEmailsTotal, "enqueue", "error")
		return fmt.Errorf("notify: enqueue: %w", err)
	}
	obs.Inc(obs.QuoteEmailsTotal, "enqueue", "ok")
	e.Logger.Debug().Str("request_id", ev.ID).Str("queue", info.Queue).Msg("quote_email_enqueued")
	return nil
}

// LeadMarker records delivery on the lead row.
type LeadMarker interface {
	MarkEmailed(ctx context.Context, id string, at time.Time) error
}

// Worker processes quote email tasks.
type Worker struct {
	Composer Composer
	Mail     common.EmailSender
	Leads    LeadMarker
	Logger   zerolog.Logger
	now      func() time.Time
}

// ProcessTask implements asynq.Handler.
func (w *Worker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var ev events.Event
	if err := json.Unmarshal(t.Payload(), &ev); err != nil {
		obs.Inc(obs.QuoteEmailsTotal, "send", "invalid")
		return fmt.Errorf("notify: decode task: %v: %w", err, asynq.SkipRetry)
	}
	log := w.Logger.With().Str("request_id", ev.ID).Logger()

	msg, err := w.Composer.Compose(ev)
	if err != nil {
		obs.Inc(obs.QuoteEmailsTotal, "send", "invalid")
		log.Error().Err(err).Msg("quote_email_compose_failed")
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	if w.Mail == nil {
		return errors.New("notify: email sender not configured")
	}
	if err := w.Mail.Send(ctx, msg); err != nil {
		if errors.Is(err, resilience.ErrOpenCircuit) {
			obs.Inc(obs.QuoteEmailsTotal, "send", "circuit_open")
			return err
		}
		if resilience.IsPermanent(err) {
			obs.Inc(obs.QuoteEmailsTotal, "send", "rejected")
			log.Warn().Err(err).Msg("quote_email_rejected")
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		obs.Inc(obs.QuoteEmailsTotal, "send", "error")
		log.Warn().Err(err).Msg("quote_email_send_failed")
		return err
	}
	obs.Inc(obs.QuoteEmailsTotal, "send", "ok")

	if w.Leads != nil {
		now := time.Now
		if w.now != nil {
			now = w.now
		}
		if err := w.Leads.MarkEmailed(ctx, ev.ID, now().UTC()); err != nil && !errors.Is(err, leads.ErrNotFound) {
			// The email is out; a retry would send it twice.
			log.Error().Err(err).Msg("quote_email_mark_failed")
		}
	}
	log.Info().Str("to", maskEmail(msg.To)).Msg("quote_email_sent")
	return nil
}

// RetryDelay backs off exponentially from base with 20% jitter, never waiting
// more than six hours between attempts.
func RetryDelay(base time.Duration) asynq.RetryDelayFunc {
	b := resilience.Backoff{Base: base, Max: 6 * time.Hour, Jitter: 0.2}
	return func(n int, _ error, _ *asynq.Task) time.Duration {
		return b.Delay(n + 1)
	}
}

func maskEmail(addr string) string {
	for i := 0; i < len(addr); i++ {
		if addr[i] == '@' {
			if i <= 1 {
				return "*" + addr[i:]
			}
			return addr[:1] + "***" + addr[i:]
		}
	}
	return "***"
}

// AsynqLogger adapts zerolog to asynq's logger interface.
type AsynqLogger struct {
	Logger zerolog.Logger
}

func (l AsynqLogger) Debug(args ...any) { l.Logger.Debug().Msg(fmt.Sprint(args...)) }
func (l AsynqLogger) Info(args ...any)  { l.Logger.Info().Msg(fmt.Sprint(args...)) }
func (l AsynqLogger) Warn(args ...any)  { l.Logger.Warn().Msg(fmt.Sprint(args...)) }
func (l AsynqLogger) Error(args ...any) { l.Logger.Error().Msg(fmt.Sprint(args...)) }
func (l AsynqLogger) Fatal(args ...any) { l.Logger.Fatal().Msg(fmt.Sprint(args...)) }
