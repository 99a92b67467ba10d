package application

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/oksasatya/go-travel-booking/internal/domain/entity"
)

// ExpiryStatus is advisory; an expired password does not block login.
type ExpiryStatus struct {
	Expired       bool    `json:"expired"`
	DaysRemaining int     `json:"days_remaining"`
	Message       *string `json:"message"`
}

func (s *Service) PasswordExpiryStatus(ctx context.Context, userID string) (*ExpiryStatus, error) {
	u, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	st := s.expiryStatus(u, s.now())
	return &st, nil
}

func (s *Service) expiryStatus(u *entity.User, now time.Time) ExpiryStatus {
	maxDays := int(s.Security.PasswordMaxAge / (24 * time.Hour))
	since := int(math.Floor(now.Sub(u.PasswordBaseline()).Hours() / 24))
	remaining := maxDays - since

	st := ExpiryStatus{
		Expired:       since >= maxDays,
		DaysRemaining: remaining,
	}
	if remaining > 0 && remaining <= s.Security.ExpiryWarnDays {
		msg := fmt.Sprintf("Your password will expire in %d days. Please change your password.", remaining)
		st.Message = &msg
	}
	return st
}
