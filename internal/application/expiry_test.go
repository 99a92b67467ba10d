package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-travel-booking/internal/domain/entity"
)

func TestExpiryStatus(t *testing.T) {
	f := newFixture(t)
	day := 24 * time.Hour

	tests := []struct {
		name      string
		age       time.Duration
		expired   bool
		remaining int
		message   string
	}{
		{"fresh", 0, false, 60, ""},
		{"partial days floor", 56*day + 23*time.Hour, false, 4, ""},
		{"warning window", 57 * day, false, 3, "Your password will expire in 3 days. Please change your password."},
		{"last day", 59 * day, false, 1, "Your password will expire in 1 days. Please change your password."},
		{"expired", 60 * day, true, 0, ""},
		{"long expired", 75 * day, true, -15, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			changed := epoch
			u := &entity.User{CreatedAt: epoch.Add(-400 * day), PasswordChangedAt: &changed}

			st := f.svc.expiryStatus(u, epoch.Add(tt.age))
			assert.Equal(t, tt.expired, st.Expired)
			assert.Equal(t, tt.remaining, st.DaysRemaining)
			if tt.message == "" {
				assert.Nil(t, st.Message)
			} else {
				require.NotNil(t, st.Message)
				assert.Equal(t, tt.message, *st.Message)
			}
		})
	}
}

func TestPasswordExpiryStatus_FallsBackToCreation(t *testing.T) {
	f := newFixture(t)
	p := f.register(t, "alice", "a@x.com")
	f.clock.Advance(58 * 24 * time.Hour)

	st, err := f.svc.PasswordExpiryStatus(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, st.DaysRemaining)
	assert.NotNil(t, st.Message)

	_, err = f.svc.PasswordExpiryStatus(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
