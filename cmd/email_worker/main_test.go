package main

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type senderMock struct {
	SendFunc func(ctx context.Context, to, subject, text, html string) error
	calls    int
}

func (m *senderMock) Send(ctx context.Context, to, subject, text, html string) error {
	m.calls++
	if m.SendFunc != nil {
		return m.SendFunc(ctx, to, subject, text, html)
	}
	return nil
}

func newWorker(s sender) *worker {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return &worker{mail: s, logger: l, timeout: time.Second}
}

func TestWorker_Handle(t *testing.T) {
	ctx := context.Background()

	t.Run("delivers", func(t *testing.T) {
		m := &senderMock{}
		require.NoError(t, newWorker(m).handle(ctx, []byte(`{"to":"a@x.com","subject":"Password Reset","text":"token"}`)))
		assert.Equal(t, 1, m.calls)
	})

	t.Run("malformed is dropped", func(t *testing.T) {
		m := &senderMock{}
		assert.ErrorIs(t, newWorker(m).handle(ctx, []byte(`{`)), errPermanent)
		assert.ErrorIs(t, newWorker(m).handle(ctx, []byte(`{"subject":"x","text":"y"}`)), errPermanent)
		assert.Zero(t, m.calls)
	})

	t.Run("send failure is retried", func(t *testing.T) {
		boom := errors.New("mailgun 503")
		m := &senderMock{SendFunc: func(context.Context, string, string, string, string) error { return boom }}
		err := newWorker(m).handle(ctx, []byte(`{"to":"a@x.com","subject":"s","text":"t"}`))
		assert.ErrorIs(t, err, boom)
		assert.NotErrorIs(t, err, errPermanent)
	})
}

func TestDispose(t *testing.T) {
	boom := errors.New("mailgun 503")
	tests := []struct {
		name    string
		err     error
		attempt int
		want    disposition
	}{
		{"delivered", nil, 1, ack},
		{"transient first attempt", boom, 1, retry},
		{"transient before limit", boom, maxDeliveryAttempts - 1, retry},
		{"transient at limit", boom, maxDeliveryAttempts, deadLetter},
		{"permanent", errPermanent, 1, deadLetter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, dispose(tt.err, tt.attempt, maxDeliveryAttempts))
		})
	}
}
