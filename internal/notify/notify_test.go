package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockEmailSender struct {
	sent []sentAlert
	fail bool
}

type sentAlert struct {
	to        string
	childName string
	message   string
}

func (m *mockEmailSender) SendAlert(ctx context.Context, to, childName, message string) error {
	if m.fail {
		return errors.New("send failed")
	}
	m.sent = append(m.sent, sentAlert{to: to, childName: childName, message: message})
	return nil
}

type mockChannel struct {
	messages []string
	fail     bool
}

func (m *mockChannel) Send(ctx context.Context, text string) error {
	if m.fail {
		return errors.New("channel failed")
	}
	m.messages = append(m.messages, text)
	return nil
}

func TestRegisterDeviceToken(t *testing.T) {
	n := NewNotifier(&mockEmailSender{}, nil, nil)

	n.RegisterDeviceToken("kid_1", "token-a")
	n.RegisterDeviceToken("kid_1", "token-b")
	n.RegisterDeviceToken("kid_1", "token-a") // duplicate

	assert.Equal(t, []string{"token-a", "token-b"}, n.DeviceTokens("kid_1"))
	assert.Empty(t, n.DeviceTokens("kid_2"))
}

func TestSendTimeLimitAlert(t *testing.T) {
	email := &mockEmailSender{}
	channel := &mockChannel{}
	n := NewNotifier(email, channel, nil)

	n.SendTimeLimitAlert(context.Background(), "parent@example.com", "kid_1", "Emma", "daily screen time")

	require.Len(t, email.sent, 1)
	assert.Equal(t, "parent@example.com", email.sent[0].to)
	assert.Equal(t, "Emma", email.sent[0].childName)
	assert.Equal(t, "Emma has reached their time limit for daily screen time.", email.sent[0].message)

	require.Len(t, channel.messages, 1)
	assert.Contains(t, channel.messages[0], "Emma has reached their time limit")
}

func TestSendRestrictedContentAlert(t *testing.T) {
	email := &mockEmailSender{}
	n := NewNotifier(email, nil, nil)

	n.SendRestrictedContentAlert(context.Background(), "parent@example.com", "kid_1", "Emma", "website")

	require.Len(t, email.sent, 1)
	assert.Equal(t, "Emma attempted to access restricted website content.", email.sent[0].message)
}

func TestSendAlertSwallowsErrors(t *testing.T) {
	email := &mockEmailSender{fail: true}
	channel := &mockChannel{fail: true}
	n := NewNotifier(email, channel, nil)

	// Must not panic or propagate; both channels fail silently
	n.SendAlert(context.Background(), "parent@example.com", "kid_1", "Emma", "test message")
}

func TestSendAlertWithoutChannel(t *testing.T) {
	email := &mockEmailSender{}
	n := NewNotifier(email, nil, nil)

	n.SendAlert(context.Background(), "parent@example.com", "kid_1", "Emma", "test message")

	require.Len(t, email.sent, 1)
}
