package mail

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomail "github.com/wneessen/go-mail"
)

func TestNewSender_TLSPolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    gomail.TLSPolicy
		wantErr bool
	}{
		{"", gomail.TLSOpportunistic, false},
		{"none", gomail.NoTLS, false},
		{"MANDATORY", gomail.TLSMandatory, false},
		{"sometimes", gomail.NoTLS, true},
	}
	for _, tt := range tests {
		s, err := NewSender(Config{Host: "localhost", TLS: tt.in})
		if tt.wantErr {
			assert.Error(t, err)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, s.tlsPolicy)
	}
}

func TestNewSender_RequiresHost(t *testing.T) {
	_, err := NewSender(Config{})
	assert.Error(t, err)
}

func TestBuildMessage(t *testing.T) {
	s, err := NewSender(Config{Host: "localhost", From: "noreply@example.com"})
	require.NoError(t, err)

	msg, err := s.buildMessage([]string{"jane@example.com", "john@example.com"}, "New Author Created", "hello")
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = msg.WriteTo(&buf)
	require.NoError(t, err)
	raw := buf.String()
	assert.True(t, strings.Contains(raw, "Subject: New Author Created"))
	assert.True(t, strings.Contains(raw, "jane@example.com"))
	assert.True(t, strings.Contains(raw, "hello"))
}

func TestSend_InvalidRecipientIsSendError(t *testing.T) {
	s, err := NewSender(Config{Host: "localhost", TLS: "none"})
	require.NoError(t, err)

	err = s.Send(context.Background(), []string{"not an address"}, "s", "b")

	var sendErr *SendError
	assert.True(t, errors.As(err, &sendErr))
}

func TestSend_NoRecipients(t *testing.T) {
	s, err := NewSender(Config{Host: "localhost"})
	require.NoError(t, err)

	err = s.Send(context.Background(), nil, "s", "b")

	var sendErr *SendError
	assert.True(t, errors.As(err, &sendErr))
}
