// internal/service/dispatch/channels.go
package dispatch

import (
	"context"
	"fmt"

	"studylink-service/internal/domain/notification"
	"studylink-service/internal/domain/user"
)

type Channel string

const (
	ChannelInApp Channel = "in_app"
	ChannelEmail Channel = "email"
	ChannelPush  Channel = "push"
)

// ParseChannel validates a channel name coming from a client request.
func ParseChannel(s string) (Channel, error) {
	switch Channel(s) {
	case ChannelInApp, ChannelEmail, ChannelPush:
		return Channel(s), nil
	}
	return "", fmt.Errorf("unknown channel %q", s)
}

type OutcomeStatus string

const (
	StatusSent    OutcomeStatus = "sent"
	StatusFailed  OutcomeStatus = "failed"
	StatusSkipped OutcomeStatus = "skipped"
)

// Outcome is the result of one delivery attempt for one recipient on one
// channel. A failure here never aborts the surrounding dispatch.
type Outcome struct {
	Channel Channel       `json:"channel"`
	Status  OutcomeStatus `json:"status"`
	Detail  string        `json:"detail,omitempty"`
}

// Message is the channel-agnostic payload handed to each sender.
type Message struct {
	Subject string
	Body    string
	Type    notification.NotificationType
}

// Sender delivers a message to one recipient over one channel. Each
// implementation owns its own error handling: Send reports an Outcome,
// never an error, so one bad recipient cannot poison the fan-out.
type Sender interface {
	Channel() Channel
	Send(ctx context.Context, recipient user.User, msg Message) Outcome
}
