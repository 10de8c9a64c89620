package worker

import (
	"context"
	"time"
)

// OutboundMessage is a fully rendered email handed to the transport. The
// engine never opens provider connections itself; a Transport wraps the
// external send path (SES, Gmail, Microsoft, raw SMTP).
type OutboundMessage struct {
	EmailID    string
	CampaignID string
	LeadID     string
	InboxID    string
	FromName   string
	FromEmail  string
	ToEmail    string
	Subject    string
	BodyHTML   string
	Headers    map[string]string // In-Reply-To, References, List-Unsubscribe, ...
}

// SendResult reports a transport's delivery acknowledgement.
type SendResult struct {
	Success   bool
	MessageID string
	SentAt    time.Time
}

// Transport delivers one message. Implementations must be safe for
// concurrent use.
type Transport interface {
	Send(ctx context.Context, msg *OutboundMessage) (*SendResult, error)
}

// TransportFunc adapts a function to the Transport interface (tests, the
// simulated warmup-network counterparty).
type TransportFunc func(ctx context.Context, msg *OutboundMessage) (*SendResult, error)

func (f TransportFunc) Send(ctx context.Context, msg *OutboundMessage) (*SendResult, error) {
	return f(ctx, msg)
}
