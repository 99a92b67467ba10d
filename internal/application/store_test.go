package application

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/oksasatya/go-travel-booking/internal/domain/entity"
	repo "github.com/oksasatya/go-travel-booking/internal/domain/repository"
)

// memStore is an in-memory UserRepository enforcing the same unique
// constraints as the real stores.
type memStore struct {
	mu      sync.Mutex
	users   map[string]*entity.User
	seq     int
	creates int
	applies int

	ApplyErr error
}

func newMemStore() *memStore {
	return &memStore{users: map[string]*entity.User{}}
}

func clone(u *entity.User) *entity.User {
	c := *u
	c.PasswordHistory = append([]string(nil), u.PasswordHistory...)
	for _, p := range []**time.Time{&c.PasswordChangedAt, &c.LastFailedLoginAttempt, &c.ResetPasswordExpires} {
		if *p != nil {
			t := **p
			*p = &t
		}
	}
	return &c
}

func (m *memStore) conflict(u *entity.User) error {
	for id, o := range m.users {
		if id == u.ID {
			continue
		}
		switch {
		case o.Username == u.Username:
			return repo.ErrDuplicateUsername
		case o.Email == u.Email:
			return repo.ErrDuplicateEmail
		case u.PhoneNumber != "" && o.PhoneNumber == u.PhoneNumber:
			return repo.ErrDuplicatePhone
		}
	}
	return nil
}

func (m *memStore) Create(_ context.Context, u *entity.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.conflict(u); err != nil {
		return err
	}
	m.seq++
	u.ID = "u" + strconv.Itoa(m.seq)
	m.users[u.ID] = clone(u)
	m.creates++
	return nil
}

func (m *memStore) find(match func(*entity.User) bool) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if match(u) {
			return clone(u), nil
		}
	}
	return nil, repo.ErrNotFound
}

func (m *memStore) GetByID(_ context.Context, id string) (*entity.User, error) {
	return m.find(func(u *entity.User) bool { return u.ID == id })
}

func (m *memStore) GetByUsername(_ context.Context, username string) (*entity.User, error) {
	return m.find(func(u *entity.User) bool { return u.Username == username })
}

func (m *memStore) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	return m.find(func(u *entity.User) bool { return u.Email == email })
}

func (m *memStore) GetByPhone(_ context.Context, phone string) (*entity.User, error) {
	return m.find(func(u *entity.User) bool { return u.PhoneNumber != "" && u.PhoneNumber == phone })
}

func (m *memStore) GetByResetToken(_ context.Context, token string) (*entity.User, error) {
	return m.find(func(u *entity.User) bool {
		return token != "" && u.ResetPasswordToken == token
	})
}

func (m *memStore) Apply(_ context.Context, id string, muts ...entity.Mutation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ApplyErr != nil {
		return m.ApplyErr
	}
	cur, ok := m.users[id]
	if !ok {
		return repo.ErrNotFound
	}
	next := clone(cur)
	if err := next.Apply(muts...); err != nil {
		return err
	}
	if err := m.conflict(next); err != nil {
		return err
	}
	m.users[id] = next
	m.applies++
	return nil
}

func (m *memStore) get(id string) *entity.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return clone(m.users[id])
}

func (m *memStore) writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.creates + m.applies
}
