package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-travel-booking/internal/domain/entity"
	repo "github.com/oksasatya/go-travel-booking/internal/domain/repository"
	"github.com/oksasatya/go-travel-booking/pkg/helpers"
)

type RegisterInput struct {
	Username string
	Password string
	Fullname string
	Email    string
}

// Register validates the input, hashes the password and creates the user.
// The store's unique constraints are authoritative; the username lookup only
// gives an early answer.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Profile, error) {
	switch {
	case in.Username == "":
		return nil, invalid("username", "Please fill in all fields")
	case in.Password == "":
		return nil, invalid("password", "Please fill in all fields")
	case in.Fullname == "":
		return nil, invalid("fullname", "Please fill in all fields")
	case in.Email == "":
		return nil, invalid("email", "Please fill in all fields")
	}
	if !validEmail(in.Email) {
		return nil, invalid("email", "Please enter a valid email")
	}
	if err := checkPolicy(in.Password); err != nil {
		return nil, err
	}

	if _, err := s.Repo.GetByUsername(ctx, in.Username); err == nil {
		return nil, ErrDuplicateUsername
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, internal("lookup username", err)
	}

	hash, err := s.hash(in.Password)
	if err != nil {
		return nil, internal("hash password", err)
	}
	now := s.now()
	u := &entity.User{
		Username:        in.Username,
		Email:           in.Email,
		Fullname:        in.Fullname,
		Password:        hash,
		PasswordHistory: entity.PushPasswordHistory(nil, hash, s.Security.PasswordHistoryDepth),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.Repo.Create(ctx, u); err != nil {
		if isDuplicate(err) {
			return nil, err
		}
		return nil, internal("create user", err)
	}

	s.log().WithFields(logrus.Fields{"user_id": u.ID, "username": u.Username}).Info("user registered")
	s.indexUser(ctx, u)
	return NewProfile(u), nil
}

// ChangePassword replaces the password of an authenticated user.
func (s *Service) ChangePassword(ctx context.Context, userID, current, next, confirm string) error {
	u, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}
	if !s.Verify(current, u.Password) {
		return ErrUnauthorized
	}
	if next != confirm {
		return invalid("confirmPassword", "New password and confirm password do not match")
	}
	if current == next {
		return invalid("newPassword", "New password must be different from the current password")
	}
	if err := checkPolicy(next); err != nil {
		return err
	}
	if s.reused(u, next) {
		return s.reuseError("newPassword")
	}

	if err := s.storePassword(ctx, u, next); err != nil {
		return err
	}
	s.log().WithField("user_id", u.ID).Info("password changed")
	return nil
}

// Verify reports whether plaintext matches the stored bcrypt hash.
func (s *Service) Verify(plaintext, hash string) bool {
	if hash == "" {
		return false
	}
	return helpers.CompareHashAndPassword(hash, plaintext)
}

func (s *Service) hash(plain string) (string, error) {
	return helpers.HashPasswordCost(plain, s.Security.BcryptCost)
}

// reused reports whether plain matches the current password or one kept in history.
func (s *Service) reused(u *entity.User, plain string) bool {
	if s.Verify(plain, u.Password) {
		return true
	}
	for _, h := range u.PasswordHistory {
		if h != u.Password && s.Verify(plain, h) {
			return true
		}
	}
	return false
}

func (s *Service) reuseError(field string) error {
	return invalid(field, fmt.Sprintf("New password must not match any of your last %d passwords", s.Security.PasswordHistoryDepth))
}

// storePassword hashes plain and persists it with a fresh change timestamp and history entry.
// Extra mutations are applied in the same write.
func (s *Service) storePassword(ctx context.Context, u *entity.User, plain string, extra ...entity.Mutation) error {
	hash, err := s.hash(plain)
	if err != nil {
		return internal("hash password", err)
	}
	muts := append([]entity.Mutation{
		entity.Set(entity.FieldPassword, hash),
		entity.SetTime(entity.FieldPasswordChangedAt, s.now()),
		entity.Set(entity.FieldPasswordHistory, entity.PushPasswordHistory(u.PasswordHistory, hash, s.Security.PasswordHistoryDepth)),
	}, extra...)
	return s.apply(ctx, u, "update password", muts...)
}

// apply persists muts and mirrors them on u.
func (s *Service) apply(ctx context.Context, u *entity.User, op string, muts ...entity.Mutation) error {
	if len(muts) == 0 {
		return nil
	}
	if err := s.Repo.Apply(ctx, u.ID, muts...); err != nil {
		if isDuplicate(err) {
			return err
		}
		if errors.Is(err, repo.ErrNotFound) {
			return ErrUserNotFound
		}
		return internal(op, err)
	}
	if err := u.Apply(muts...); err != nil {
		return internal(op, err)
	}
	return nil
}

func (s *Service) getUser(ctx context.Context, id string) (*entity.User, error) {
	u, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, internal("get user", err)
	}
	return u, nil
}

func checkPolicy(pw string) error {
	if err := helpers.CheckPasswordStrength(pw); err != nil {
		return invalid("password", policyMessage(err))
	}
	return nil
}

func policyMessage(err error) string {
	switch {
	case errors.Is(err, helpers.ErrPasswordLength):
		return fmt.Sprintf("Password length should be at least %d characters.", helpers.MinPasswordLength)
	case errors.Is(err, helpers.ErrPasswordTooLong):
		return fmt.Sprintf("Password must be at most %d bytes long.", helpers.MaxPasswordBytes)
	}
	return "Password must include a combination of Uppercase letters, Lowercase letters, Numbers, Special characters (e.g., !, @, #, $)"
}

func validEmail(email string) bool {
	return strings.Contains(email, "@") && strings.Contains(email, ".")
}

func isDuplicate(err error) bool {
	return errors.Is(err, repo.ErrDuplicateUsername) ||
		errors.Is(err, repo.ErrDuplicateEmail) ||
		errors.Is(err, repo.ErrDuplicatePhone)
}
