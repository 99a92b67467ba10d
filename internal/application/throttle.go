package application

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-travel-booking/internal/domain/entity"
	repo "github.com/oksasatya/go-travel-booking/internal/domain/repository"
	"github.com/oksasatya/go-travel-booking/pkg/helpers"
)

type LoginResult struct {
	Token          string
	ExpiresAt      time.Time
	SessionID      string
	User           *Profile
	PasswordExpiry ExpiryStatus
}

// Login authenticates username/password through the login throttle and
// issues a signed session token on success.
func (s *Service) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	if username == "" || password == "" {
		return nil, invalid("credentials", "Please fill in all fields")
	}
	u, err := s.Repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, internal("lookup username", err)
	}

	now := s.now()
	muts, attemptErr := s.attempt(u, now, func() bool { return s.Verify(password, u.Password) })
	if err := s.apply(ctx, u, "record login attempt", muts...); err != nil {
		return nil, err
	}
	if attemptErr != nil {
		entry := s.log().WithFields(logrus.Fields{"user_id": u.ID, "failed_attempts": u.FailedLoginAttempts})
		if errors.Is(attemptErr, ErrAccountLocked) {
			entry.Warn("login rejected: account locked")
		} else {
			entry.Info("login rejected: bad password")
		}
		return nil, attemptErr
	}

	sid := uuid.NewString()
	token, exp, err := s.Tokens.GenerateAccessToken(u.ID, u.Username, u.Fullname, sid)
	if err != nil {
		s.log().WithError(err).WithField("user_id", u.ID).Error("sign session token failed")
		return nil, internal("sign token", err)
	}
	s.storeSession(ctx, u, sid, now)

	return &LoginResult{
		Token:          token,
		ExpiresAt:      exp,
		SessionID:      sid,
		User:           NewProfile(u),
		PasswordExpiry: s.expiryStatus(u, now),
	}, nil
}

// attempt runs one login attempt through the throttle state machine.
//
//	Unlocked --(failure, count reaches MaxFailedAttempts)--> Locked
//	Locked   --(LockoutDuration elapsed since last failure)--> Unlocked, count reset
//
// Unlocking is evaluated lazily here, never by a timer. verify is only called
// when the account is (or just became) unlocked. The returned mutations must be
// persisted whether or not an error is returned.
func (s *Service) attempt(u *entity.User, now time.Time, verify func() bool) ([]entity.Mutation, error) {
	var muts []entity.Mutation
	attempts := u.FailedLoginAttempts
	lockout := s.Security.LockoutDuration

	if u.AccountLocked {
		elapsed := lockout
		if u.LastFailedLoginAttempt != nil {
			elapsed = now.Sub(*u.LastFailedLoginAttempt)
		}
		if elapsed < lockout {
			return nil, &LockedError{Remaining: lockout - elapsed}
		}
		muts = append(muts,
			entity.Set(entity.FieldAccountLocked, false),
			entity.Set(entity.FieldFailedLoginAttempts, 0),
		)
		attempts = 0
	}

	if !verify() {
		attempts++
		muts = append(muts,
			entity.Set(entity.FieldFailedLoginAttempts, attempts),
			entity.SetTime(entity.FieldLastFailedLoginAttempt, now),
		)
		if attempts >= s.Security.MaxFailedAttempts {
			muts = append(muts, entity.Set(entity.FieldAccountLocked, true))
			return entity.Collapse(muts), &LockedError{Remaining: lockout}
		}
		return entity.Collapse(muts), ErrInvalidCredentials
	}

	if attempts != 0 || u.LastFailedLoginAttempt != nil {
		muts = append(muts,
			entity.Set(entity.FieldFailedLoginAttempts, 0),
			entity.ClearTime(entity.FieldLastFailedLoginAttempt),
		)
	}
	return entity.Collapse(muts), nil
}

// storeSession records the active session in Redis; the auth middleware
// rejects tokens whose session id no longer matches.
func (s *Service) storeSession(ctx context.Context, u *entity.User, sid string, now time.Time) {
	if s.Redis == nil {
		return
	}
	fields := map[string]any{
		"user_id":    u.ID,
		"username":   u.Username,
		"fullname":   u.Fullname,
		"sid":        sid,
		"logged_in":  true,
		"created_at": nowRFC3339(now),
	}
	key := helpers.SessionKey(u.ID)
	pipe := s.Redis.Pipeline()
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, s.Security.SessionTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		s.log().WithError(err).WithField("key", key).Warn("redis pipeline failed")
	}
}

// Logout drops the user's Redis session.
func (s *Service) Logout(ctx context.Context, userID string) error {
	if s.Redis == nil {
		return nil
	}
	if err := s.Redis.Del(ctx, helpers.SessionKey(userID)).Err(); err != nil {
		return internal("delete session", err)
	}
	return nil
}
