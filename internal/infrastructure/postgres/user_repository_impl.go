package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/go-travel-booking/internal/domain/entity"
	"github.com/oksasatya/go-travel-booking/internal/domain/repository"
)

const uniqueViolation = "23505"

const userColumns = `id, username, email, fullname, COALESCE(phone_number, ''), bio, image,
	password, password_changed_at, password_history,
	failed_login_attempts, last_failed_login_attempt, account_locked,
	COALESCE(reset_password_token, ''), reset_password_expires,
	created_at, updated_at`

// nullable columns store NULL instead of an empty string so partial unique indexes skip them
var nullableText = map[entity.Field]bool{
	entity.FieldPhoneNumber:        true,
	entity.FieldResetPasswordToken: true,
}

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = u.CreatedAt
	}
	history := u.PasswordHistory
	if history == nil {
		history = []string{}
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (username, email, fullname, phone_number, bio, image,
			password, password_changed_at, password_history, created_at, updated_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`, u.Username, u.Email, u.Fullname, u.PhoneNumber, u.Bio, u.Image,
		u.Password, u.PasswordChangedAt, history, u.CreatedAt, u.UpdatedAt)

	if err := row.Scan(&u.ID); err != nil {
		return mapError(err)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, repository.ErrNotFound
	}
	return r.getOne(ctx, `WHERE id = $1`, id)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	return r.getOne(ctx, `WHERE username = $1`, username)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.getOne(ctx, `WHERE email = $1`, email)
}

func (r *UserRepository) GetByPhone(ctx context.Context, phone string) (*entity.User, error) {
	if phone == "" {
		return nil, repository.ErrNotFound
	}
	return r.getOne(ctx, `WHERE phone_number = $1`, phone)
}

func (r *UserRepository) GetByResetToken(ctx context.Context, token string) (*entity.User, error) {
	if token == "" {
		return nil, repository.ErrNotFound
	}
	return r.getOne(ctx, `WHERE reset_password_token = $1`, token)
}

func (r *UserRepository) Apply(ctx context.Context, id string, muts ...entity.Mutation) error {
	if len(muts) == 0 {
		return nil
	}
	if _, err := uuid.Parse(id); err != nil {
		return repository.ErrNotFound
	}
	query, args, err := buildUpdate(id, muts)
	if err != nil {
		return err
	}
	res, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return mapError(err)
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) getOne(ctx context.Context, where string, args ...any) (*entity.User, error) {
	u := &entity.User{}
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users `+where, args...)
	if err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.Fullname, &u.PhoneNumber, &u.Bio, &u.Image,
		&u.Password, &u.PasswordChangedAt, &u.PasswordHistory,
		&u.FailedLoginAttempts, &u.LastFailedLoginAttempt, &u.AccountLocked,
		&u.ResetPasswordToken, &u.ResetPasswordExpires,
		&u.CreatedAt, &u.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

// buildUpdate renders the mutations as a single UPDATE statement.
// Repeated fields collapse to their last value.
func buildUpdate(id string, muts []entity.Mutation) (string, []any, error) {
	if err := entity.Validate(muts); err != nil {
		return "", nil, err
	}
	muts = entity.Collapse(muts)

	sets := make([]string, 0, len(muts)+1)
	args := make([]any, 0, len(muts)+1)
	for _, m := range muts {
		args = append(args, m.Value)
		placeholder := fmt.Sprintf("$%d", len(args))
		if nullableText[m.Field] {
			placeholder = "NULLIF(" + placeholder + ", '')"
		}
		sets = append(sets, string(m.Field)+" = "+placeholder)
	}
	sets = append(sets, "updated_at = NOW()")
	args = append(args, id)

	return fmt.Sprintf("UPDATE users SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args)), args, nil
}

func mapError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return err
	}
	switch {
	case strings.Contains(pgErr.ConstraintName, "username"):
		return repository.ErrDuplicateUsername
	case strings.Contains(pgErr.ConstraintName, "email"):
		return repository.ErrDuplicateEmail
	case strings.Contains(pgErr.ConstraintName, "phone"):
		return repository.ErrDuplicatePhone
	}
	return err
}

var _ repository.UserRepository = (*UserRepository)(nil)
