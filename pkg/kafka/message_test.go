package kafka

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageBuilder_Build(t *testing.T) {
	msg, err := NewMessage().
		WithKey("65f0c0ffee").
		WithValue(map[string]any{"listingId": "65f0c0ffee"}).
		WithEventType("reservation.created").
		WithSchemaVersion("1").
		WithSource("listings").
		WithCorrelationID("req-1").
		Build()
	require.NoError(t, err)

	assert.Equal(t, "65f0c0ffee", msg.Key)
	assert.JSONEq(t, `{"listingId":"65f0c0ffee"}`, string(msg.Value))
	assert.Equal(t, "reservation.created", msg.GetEventType())
	assert.Equal(t, "req-1", msg.GetCorrelationID())
	assert.Equal(t, "listings", msg.Headers[HeaderSource])
	assert.NotEmpty(t, msg.GetEventID())

	_, err = time.Parse(time.RFC3339, msg.Headers[HeaderTimestamp])
	assert.NoError(t, err)
}

func TestMessageBuilder_EmptyCorrelationIDIsOmitted(t *testing.T) {
	msg, err := NewMessage().WithKey("k").WithValue("v").WithCorrelationID("").Build()
	require.NoError(t, err)

	_, ok := msg.Headers[HeaderCorrelationID]
	assert.False(t, ok)
}

func TestMessageBuilder_ValueEncodingError(t *testing.T) {
	_, err := NewMessage().WithKey("k").WithValue(make(chan int)).Build()
	assert.Error(t, err)
}

func TestMessage_RetryCount(t *testing.T) {
	msg := Message{}
	assert.Equal(t, 0, msg.GetRetryCount())

	msg.IncrementRetryCount()
	msg.IncrementRetryCount()
	assert.Equal(t, 2, msg.GetRetryCount())

	msg.Headers[HeaderRetryCount] = "garbage"
	assert.Equal(t, 0, msg.GetRetryCount())
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"nil", nil, ErrorTypeUnknown},
		{"explicit transient", NewTransientError("send", errors.New("smtp 451")), ErrorTypeTransient},
		{"explicit permanent", NewPermanentError("decode", errors.New("unexpected EOF")), ErrorTypePermanent},
		{"connection refused", errors.New("dial tcp: connection refused"), ErrorTypeTransient},
		{"deadline", errors.New("context deadline exceeded"), ErrorTypeTransient},
		{"unknown", errors.New("invalid character 'x'"), ErrorTypePermanent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyError(tt.err))
		})
	}
}

func TestShouldRetry(t *testing.T) {
	transient := NewTransientError("send", nil)

	assert.True(t, ShouldRetry(transient, 0, 3))
	assert.False(t, ShouldRetry(transient, 3, 3))
	assert.False(t, ShouldRetry(NewPermanentError("decode", nil), 0, 3))
	assert.False(t, ShouldRetry(nil, 0, 3))
}
