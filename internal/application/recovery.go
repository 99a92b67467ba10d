package application

import (
	"context"
	"encoding/hex"
	"errors"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-travel-booking/internal/domain/entity"
	repo "github.com/oksasatya/go-travel-booking/internal/domain/repository"
	"github.com/oksasatya/go-travel-booking/pkg/mailer/templates"
)

// RequestPasswordReset issues a one-time reset token for the account with
// the given email and mails it. The token stays stored when delivery fails.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	if email == "" {
		return invalid("email", "Please enter your email")
	}
	u, err := s.Repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrUserNotFound
		}
		return internal("lookup email", err)
	}

	token, err := s.newResetToken()
	if err != nil {
		return internal("generate reset token", err)
	}
	expires := s.now().Add(s.Security.ResetTokenTTL)
	if err := s.apply(ctx, u, "store reset token",
		entity.Set(entity.FieldResetPasswordToken, token),
		entity.SetTime(entity.FieldResetPasswordExpires, expires),
	); err != nil {
		return err
	}
	s.log().WithFields(logrus.Fields{"user_id": u.ID, "token": "redacted"}).Info("password reset token issued")

	data := templates.NewForgotPasswordData(s.Branding, u.Fullname, u.Email, token, expires)
	subject, text, html, err := templates.Render(templates.ForgotPassword, data)
	if err != nil {
		return internal("render reset email", err)
	}
	if s.Mail == nil {
		return ErrMailDeliveryFailed
	}
	if err := s.Mail.Send(ctx, u.Email, subject, text, html); err != nil {
		s.log().WithError(err).WithField("user_id", u.ID).Error("reset email delivery failed")
		return errors.Join(ErrMailDeliveryFailed, err)
	}
	return nil
}

// ResetPassword consumes a live reset token and sets a new password.
func (s *Service) ResetPassword(ctx context.Context, token, password string) error {
	if password == "" {
		return invalid("password", "Please enter a new password")
	}
	if err := checkPolicy(password); err != nil {
		return err
	}
	if token == "" {
		return ErrInvalidOrExpiredToken
	}
	u, err := s.Repo.GetByResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrInvalidOrExpiredToken
		}
		return internal("lookup reset token", err)
	}
	if u.ResetPasswordExpires == nil || !u.ResetPasswordExpires.After(s.now()) {
		if err := s.apply(ctx, u, "clear expired reset token", clearResetToken()...); err != nil {
			s.log().WithError(err).WithField("user_id", u.ID).Warn("clear expired reset token failed")
		}
		return ErrInvalidOrExpiredToken
	}
	if s.reused(u, password) {
		return s.reuseError("password")
	}

	if err := s.storePassword(ctx, u, password, clearResetToken()...); err != nil {
		return err
	}
	s.log().WithFields(logrus.Fields{"user_id": u.ID, "token": "redacted"}).Info("password reset")
	return nil
}

func (s *Service) newResetToken() (string, error) {
	n := s.Security.ResetTokenBytes
	if n <= 0 {
		n = 20
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(s.random(), b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func clearResetToken() []entity.Mutation {
	return []entity.Mutation{
		entity.Set(entity.FieldResetPasswordToken, ""),
		entity.ClearTime(entity.FieldResetPasswordExpires),
	}
}
