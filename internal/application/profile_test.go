package application

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-travel-booking/pkg/helpers"
)

func ptr(s string) *string { return &s }

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.register(t, "alice", "a@x.com")
	bob := f.register(t, "bob", "b@x.com")
	_, err := f.svc.UpdateProfile(ctx, bob.ID, UpdateProfileInput{PhoneNumber: ptr("+628111")})
	require.NoError(t, err)

	tests := []struct {
		name string
		in   UpdateProfileInput
		err  error
	}{
		{"taken username", UpdateProfileInput{Username: "bob"}, ErrDuplicateUsername},
		{"taken email", UpdateProfileInput{Email: "b@x.com"}, ErrDuplicateEmail},
		{"taken phone", UpdateProfileInput{PhoneNumber: ptr("+628111")}, ErrDuplicatePhone},
		{"bad email", UpdateProfileInput{Email: "nope"}, ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.UpdateProfile(ctx, alice.ID, tt.in)
			assert.ErrorIs(t, err, tt.err)
		})
	}

	t.Run("changes only the given fields", func(t *testing.T) {
		_, err := f.svc.Login(ctx, "alice", strongPassword)
		require.NoError(t, err)

		p, err := f.svc.UpdateProfile(ctx, alice.ID, UpdateProfileInput{
			Username: "alice_w",
			Bio:      ptr("likes trains"),
			// same value as before is not a conflict
			Email: "a@x.com",
		})
		require.NoError(t, err)
		assert.Equal(t, "alice_w", p.Username)
		assert.Equal(t, "likes trains", p.Bio)
		assert.Equal(t, "Alice A", p.Fullname)

		u := f.store.get(alice.ID)
		assert.Equal(t, "alice_w", u.Username)
		assert.Equal(t, "alice_w", f.mr.HGet(helpers.SessionKey(alice.ID), "username"))
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := f.svc.UpdateProfile(ctx, "missing", UpdateProfileInput{Fullname: "X"})
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}

func TestGetProfile(t *testing.T) {
	f := newFixture(t)
	p := f.register(t, "alice", "a@x.com")

	got, err := f.svc.GetUserByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Username, got.Username)

	_, err = f.svc.GetProfile(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUploadAvatar_RejectsUnsupportedType(t *testing.T) {
	f := newFixture(t)
	p := f.register(t, "alice", "a@x.com")

	_, err := f.svc.UploadAvatar(context.Background(), p.ID, strings.NewReader("%PDF"), "application/pdf")
	require.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "File format not supported.", err.Error())
}

func TestSearchUsers_WithoutIndex(t *testing.T) {
	f := newFixture(t)
	hits, err := f.svc.SearchUsers(context.Background(), "alice", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}
