// internal/service/dispatch/orchestrator.go
package dispatch

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"studylink-service/internal/domain/alert"
	"studylink-service/internal/domain/communication"
	"studylink-service/internal/domain/notification"
	"studylink-service/internal/domain/user"
	"studylink-service/internal/service/template"

	"github.com/oklog/ulid/v2"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
)

// TemplateStore loads email templates referenced by alert configurations.
type TemplateStore interface {
	FindByID(ctx context.Context, id int64) (*communication.Template, error)
	IncrementUsage(ctx context.Context, id int64) error
}

// CommunicationStore persists manual communication records.
type CommunicationStore interface {
	Create(ctx context.Context, c *communication.Communication) error
}

// RecipientOutcome is one recipient/channel delivery result.
type RecipientOutcome struct {
	UserID  int64         `json:"user_id"`
	Channel Channel       `json:"channel"`
	Status  OutcomeStatus `json:"status"`
	Detail  string        `json:"detail,omitempty"`
}

// DeliveryReport summarizes one dispatch fan-out.
type DeliveryReport struct {
	Recipients int                `json:"recipients"`
	Sent       int                `json:"sent"`
	Failed     int                `json:"failed"`
	Skipped    int                `json:"skipped"`
	Outcomes   []RecipientOutcome `json:"outcomes"`
}

func (r *DeliveryReport) add(o RecipientOutcome) {
	r.Outcomes = append(r.Outcomes, o)
	switch o.Status {
	case StatusSent:
		r.Sent++
	case StatusFailed:
		r.Failed++
	case StatusSkipped:
		r.Skipped++
	}
}

// Orchestrator fans one message out to every recipient on every requested
// channel. Deliveries run on a bounded worker pool; each recipient/channel
// pair succeeds or fails independently.
type Orchestrator struct {
	senders   map[Channel]Sender
	resolver  *RecipientResolver
	templates TemplateStore
	comms     CommunicationStore
	renderer  *template.Renderer
	pool      *ants.Pool
	logger    *zap.Logger
}

func NewOrchestrator(
	senders []Sender,
	resolver *RecipientResolver,
	templates TemplateStore,
	comms CommunicationStore,
	renderer *template.Renderer,
	workers int,
	logger *zap.Logger,
) (*Orchestrator, error) {
	if workers <= 0 {
		workers = 8
	}
	pool, err := ants.NewPool(workers, ants.WithNonblocking(false))
	if err != nil {
		return nil, fmt.Errorf("create dispatch pool: %w", err)
	}

	byChannel := make(map[Channel]Sender, len(senders))
	for _, s := range senders {
		byChannel[s.Channel()] = s
	}

	return &Orchestrator{
		senders:   byChannel,
		resolver:  resolver,
		templates: templates,
		comms:     comms,
		renderer:  renderer,
		pool:      pool,
		logger:    logger,
	}, nil
}

// Close releases the worker pool. Pending deliveries finish first.
func (o *Orchestrator) Close() {
	o.pool.Release()
}

// DispatchAlert delivers a freshly generated alert to its recipients. In-app
// and push always run; email runs when the rule configuration enables
// auto-send. An empty recipient set is a valid no-op, not an error.
func (o *Orchestrator) DispatchAlert(ctx context.Context, cfg *alert.Configuration, a *alert.Alert) (*DeliveryReport, error) {
	recipients, err := o.resolver.ForAlert(ctx, cfg, a)
	if err != nil {
		return nil, err
	}

	report := &DeliveryReport{Recipients: len(recipients), Outcomes: []RecipientOutcome{}}
	if len(recipients) == 0 {
		o.logger.Info("alert has no recipients",
			zap.Int64("alert_id", a.ID),
			zap.String("rule_type", string(a.Type)),
		)
		return report, nil
	}

	msg := Message{
		Subject: a.Title,
		Body:    a.Message,
		Type:    notificationTypeFor(a.Severity),
	}

	plan := map[Channel]Message{
		ChannelInApp: msg,
		ChannelPush:  msg,
	}
	if cfg.AutoSendEmail {
		plan[ChannelEmail] = o.emailMessageFor(ctx, cfg, a, msg)
	}

	o.fanOut(ctx, recipients, plan, report)

	if cfg.AutoSendEmail && cfg.EmailTemplateID != nil && report.Sent > 0 {
		if err := o.templates.IncrementUsage(ctx, *cfg.EmailTemplateID); err != nil {
			o.logger.Warn("increment template usage failed",
				zap.Int64("template_id", *cfg.EmailTemplateID),
				zap.Error(err),
			)
		}
	}

	return report, nil
}

// emailMessageFor renders the configured email template for an alert. Any
// template problem falls back to the alert's own title and message.
func (o *Orchestrator) emailMessageFor(ctx context.Context, cfg *alert.Configuration, a *alert.Alert, fallback Message) Message {
	if cfg.EmailTemplateID == nil {
		return fallback
	}

	tpl, err := o.templates.FindByID(ctx, *cfg.EmailTemplateID)
	if err != nil {
		o.logger.Warn("alert email template unavailable, using raw message",
			zap.Int64("template_id", *cfg.EmailTemplateID),
			zap.Error(err),
		)
		return fallback
	}

	variables := map[string]string{
		"title":      a.Title,
		"message":    a.Message,
		"severity":   string(a.Severity),
		"alert_type": string(a.Type),
	}
	if a.HospitalID != nil {
		variables["hospital_id"] = strconv.FormatInt(*a.HospitalID, 10)
	}
	if a.ProjectID != nil {
		variables["project_id"] = strconv.FormatInt(*a.ProjectID, 10)
	}

	rendered := o.renderer.Render(tpl, variables)
	return Message{Subject: rendered.Subject, Body: rendered.Body, Type: fallback.Type}
}

// SendManual delivers an admin-authored communication to an explicit
// recipient list. A communication row is written per recipient as the
// permanent record; the requested channels deliver on top of it.
func (o *Orchestrator) SendManual(ctx context.Context, senderID int64, req *communication.SendRequest) (*DeliveryReport, error) {
	channels := make([]Channel, 0, len(req.Channels))
	for _, raw := range req.Channels {
		ch, err := ParseChannel(raw)
		if err != nil {
			return nil, err
		}
		channels = append(channels, ch)
	}

	recipients, err := o.resolver.ForIDs(ctx, req.RecipientIDs)
	if err != nil {
		return nil, err
	}

	report := &DeliveryReport{Recipients: len(recipients), Outcomes: []RecipientOutcome{}}
	if len(recipients) == 0 {
		return report, nil
	}

	msg := Message{Subject: req.Subject, Body: req.Body, Type: notification.TypeInfo}

	// The communication row is the in-app record for manual sends. Recipients
	// whose row cannot be written get no channel deliveries at all.
	deliverable := make([]user.User, 0, len(recipients))
	for _, rcpt := range recipients {
		c := &communication.Communication{
			ID:         ulid.Make().String(),
			SenderID:   senderID,
			UserID:     rcpt.ID,
			Subject:    req.Subject,
			Body:       req.Body,
			HospitalID: req.HospitalID,
			ProjectID:  req.ProjectID,
			CreatedAt:  time.Now(),
		}
		if err := o.comms.Create(ctx, c); err != nil {
			o.logger.Error("create communication failed",
				zap.Int64("user_id", rcpt.ID),
				zap.Error(err),
			)
			report.add(RecipientOutcome{UserID: rcpt.ID, Channel: ChannelInApp, Status: StatusFailed, Detail: err.Error()})
			continue
		}
		deliverable = append(deliverable, rcpt)
	}

	plan := make(map[Channel]Message, len(channels))
	for _, ch := range channels {
		plan[ch] = msg
	}

	o.fanOut(ctx, deliverable, plan, report)
	return report, nil
}

// fanOut submits one pool task per recipient/channel pair and waits for all
// of them. Outcome collection is serialized behind a mutex.
func (o *Orchestrator) fanOut(ctx context.Context, recipients []user.User, plan map[Channel]Message, report *DeliveryReport) {
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)

	for ch, msg := range plan {
		sender, ok := o.senders[ch]
		if !ok {
			mu.Lock()
			for _, rcpt := range recipients {
				report.add(RecipientOutcome{UserID: rcpt.ID, Channel: ch, Status: StatusSkipped, Detail: "channel not configured"})
			}
			mu.Unlock()
			continue
		}

		for _, rcpt := range recipients {
			rcpt := rcpt
			ch := ch
			msg := msg
			wg.Add(1)
			err := o.pool.Submit(func() {
				defer wg.Done()
				out := sender.Send(ctx, rcpt, msg)
				mu.Lock()
				report.add(RecipientOutcome{UserID: rcpt.ID, Channel: ch, Status: out.Status, Detail: out.Detail})
				mu.Unlock()
			})
			if err != nil {
				wg.Done()
				mu.Lock()
				report.add(RecipientOutcome{UserID: rcpt.ID, Channel: ch, Status: StatusFailed, Detail: fmt.Sprintf("submit delivery: %v", err)})
				mu.Unlock()
			}
		}
	}

	wg.Wait()
}

func notificationTypeFor(s alert.Severity) notification.NotificationType {
	switch s {
	case alert.SeverityCritical:
		return notification.TypeError
	case alert.SeverityHigh:
		return notification.TypeWarning
	default:
		return notification.TypeInfo
	}
}
