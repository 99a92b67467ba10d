package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushPasswordHistory_EvictsOldestFirst(t *testing.T) {
	var h []string
	for _, p := range []string{"h1", "h2", "h3", "h4", "h5", "h6", "h7"} {
		h = PushPasswordHistory(h, p, 5)
		assert.LessOrEqual(t, len(h), 5)
	}
	assert.Equal(t, []string{"h3", "h4", "h5", "h6", "h7"}, h)
}

func TestPushPasswordHistory_DoesNotAliasInput(t *testing.T) {
	in := make([]string, 2, 10)
	in[0], in[1] = "a", "b"
	out := PushPasswordHistory(in, "c", 5)
	out[0] = "x"
	assert.Equal(t, "a", in[0])
}

func TestUser_PasswordBaseline(t *testing.T) {
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	u := &User{CreatedAt: created}
	assert.Equal(t, created, u.PasswordBaseline())

	changed := created.Add(48 * time.Hour)
	u.PasswordChangedAt = &changed
	assert.Equal(t, changed, u.PasswordBaseline())
}

func TestUser_Apply(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	u := &User{ResetPasswordToken: "tok", ResetPasswordExpires: &now}

	err := u.Apply(
		Set(FieldFailedLoginAttempts, 3),
		SetTime(FieldLastFailedLoginAttempt, now),
		Set(FieldAccountLocked, true),
		Set(FieldPasswordHistory, []string{"a", "b"}),
		Set(FieldResetPasswordToken, ""),
		ClearTime(FieldResetPasswordExpires),
		Set(FieldPhoneNumber, "+15550100"),
	)
	require.NoError(t, err)

	assert.Equal(t, 3, u.FailedLoginAttempts)
	require.NotNil(t, u.LastFailedLoginAttempt)
	assert.Equal(t, now, *u.LastFailedLoginAttempt)
	assert.True(t, u.AccountLocked)
	assert.Equal(t, []string{"a", "b"}, u.PasswordHistory)
	assert.Empty(t, u.ResetPasswordToken)
	assert.Nil(t, u.ResetPasswordExpires)
	assert.Equal(t, "+15550100", u.PhoneNumber)
}

func TestUser_ApplyRejectsBadMutations(t *testing.T) {
	u := &User{}
	assert.Error(t, u.Apply(Set(FieldFailedLoginAttempts, "3")))
	assert.Error(t, u.Apply(Set(Field("nope"), 1)))
	assert.Error(t, Validate([]Mutation{Set(FieldPasswordChangedAt, time.Now())}))
	assert.NoError(t, Validate([]Mutation{SetTime(FieldPasswordChangedAt, time.Now())}))
}

func TestCollapse_LastWins(t *testing.T) {
	muts := Collapse([]Mutation{
		Set(FieldAccountLocked, false),
		Set(FieldFailedLoginAttempts, 0),
		Set(FieldFailedLoginAttempts, 1),
		Set(FieldBio, "x"),
	})
	assert.Equal(t, []Mutation{
		Set(FieldAccountLocked, false),
		Set(FieldFailedLoginAttempts, 1),
		Set(FieldBio, "x"),
	}, muts)
	assert.Empty(t, Collapse(nil))
}
