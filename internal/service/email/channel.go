// internal/service/email/channel.go
package email

import (
	"context"
	"errors"
	"time"

	"studylink-service/internal/domain/user"
	"studylink-service/internal/service/dispatch"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// Mailer is the raw email transport. *Sender satisfies it.
type Mailer interface {
	Send(ctx context.Context, to, subject, bodyHTML string) error
}

// ChannelSender adapts the SMTP mailer to the dispatch channel contract and
// guards it with a circuit breaker: once the provider fails repeatedly, the
// remaining recipients are skipped instead of each waiting out a timeout.
type ChannelSender struct {
	mailer  Mailer
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

func NewChannelSender(mailer Mailer, logger *zap.Logger) *ChannelSender {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "smtp",
		MaxRequests: 2,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("email circuit state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &ChannelSender{mailer: mailer, breaker: breaker, logger: logger}
}

func (s *ChannelSender) Channel() dispatch.Channel { return dispatch.ChannelEmail }

func (s *ChannelSender) Send(ctx context.Context, recipient user.User, msg dispatch.Message) dispatch.Outcome {
	_, err := s.breaker.Execute(func() (interface{}, error) {
		return nil, s.mailer.Send(ctx, recipient.Email, msg.Subject, msg.Body)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return dispatch.Outcome{Channel: dispatch.ChannelEmail, Status: dispatch.StatusSkipped, Detail: "email circuit open"}
		}
		s.logger.Error("email delivery failed",
			zap.Int64("user_id", recipient.ID),
			zap.Error(err),
		)
		return dispatch.Outcome{Channel: dispatch.ChannelEmail, Status: dispatch.StatusFailed, Detail: err.Error()}
	}

	return dispatch.Outcome{Channel: dispatch.ChannelEmail, Status: dispatch.StatusSent}
}
