// Package notify fans parental alerts out to the available channels:
// email, a logged push-notification placeholder, and optionally Telegram.
// All sends are best-effort; a failed channel is logged and skipped.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// EmailSender delivers alert emails
type EmailSender interface {
	SendAlert(ctx context.Context, to, childName, message string) error
}

// Channel is an optional extra delivery channel (e.g. Telegram)
type Channel interface {
	Send(ctx context.Context, text string) error
}

// Notifier sends alerts to parents and tracks child device push tokens.
// The token registry is process-local in-memory state, mirroring the
// single-instance deployment model.
type Notifier struct {
	email   EmailSender
	channel Channel // optional, may be nil
	logger  *slog.Logger

	mu     sync.RWMutex
	tokens map[string][]string // childID -> device tokens
}

// NewNotifier creates a notifier. channel may be nil.
func NewNotifier(email EmailSender, channel Channel, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		email:   email,
		channel: channel,
		logger:  logger,
		tokens:  make(map[string][]string),
	}
}

// RegisterDeviceToken stores a push token for a child's device.
// Duplicate registrations are ignored.
func (n *Notifier) RegisterDeviceToken(childID, token string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for _, existing := range n.tokens[childID] {
		if existing == token {
			return
		}
	}
	n.tokens[childID] = append(n.tokens[childID], token)
}

// DeviceTokens returns the registered push tokens for a child
func (n *Notifier) DeviceTokens(childID string) []string {
	n.mu.RLock()
	defer n.mu.RUnlock()

	tokens := make([]string, len(n.tokens[childID]))
	copy(tokens, n.tokens[childID])
	return tokens
}

// SendAlert delivers an alert about a child over every configured channel.
// Errors are logged, never returned: alert delivery must not affect the
// caller's request.
func (n *Notifier) SendAlert(ctx context.Context, parentEmail, childID, childName, message string) {
	if err := n.email.SendAlert(ctx, parentEmail, childName, message); err != nil {
		n.logger.Error("Failed to send alert email",
			"component", "notify",
			"child_id", childID,
			"error", err,
		)
	}

	n.sendPush(childID, "KidSafe Alert", message)

	if n.channel != nil {
		if err := n.channel.Send(ctx, fmt.Sprintf("KidSafe Alert: %s", message)); err != nil {
			n.logger.Error("Failed to send alert to extra channel",
				"component", "notify",
				"child_id", childID,
				"error", err,
			)
		}
	}
}

// SendTimeLimitAlert notifies a parent that a child hit their daily limit
func (n *Notifier) SendTimeLimitAlert(ctx context.Context, parentEmail, childID, childName, appName string) {
	message := fmt.Sprintf("%s has reached their time limit for %s.", childName, appName)
	n.SendAlert(ctx, parentEmail, childID, childName, message)
}

// SendRestrictedContentAlert notifies a parent that a child tried to
// access restricted content
func (n *Notifier) SendRestrictedContentAlert(ctx context.Context, parentEmail, childID, childName, contentType string) {
	message := fmt.Sprintf("%s attempted to access restricted %s content.", childName, contentType)
	n.SendAlert(ctx, parentEmail, childID, childName, message)
}

// sendPush logs the push that would be delivered to the child's devices.
// Wiring a real push provider (FCM) is out of scope; the token registry
// and call sites are kept so the provider can be dropped in.
func (n *Notifier) sendPush(childID, title, body string) {
	tokens := n.DeviceTokens(childID)
	if len(tokens) == 0 {
		n.logger.Warn("No device tokens registered for child",
			"component", "notify",
			"child_id", childID,
		)
		return
	}

	n.logger.Info("Push notification dispatched",
		"component", "notify",
		"child_id", childID,
		"devices", len(tokens),
		"title", title,
		"body", body,
	)
}
