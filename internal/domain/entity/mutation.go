package entity

import (
	"fmt"
	"time"
)

// Field names a mutable column of the user record.
type Field string

const (
	FieldUsername               Field = "username"
	FieldEmail                  Field = "email"
	FieldFullname               Field = "fullname"
	FieldPhoneNumber            Field = "phone_number"
	FieldBio                    Field = "bio"
	FieldImage                  Field = "image"
	FieldPassword               Field = "password"
	FieldPasswordChangedAt      Field = "password_changed_at"
	FieldPasswordHistory        Field = "password_history"
	FieldFailedLoginAttempts    Field = "failed_login_attempts"
	FieldLastFailedLoginAttempt Field = "last_failed_login_attempt"
	FieldAccountLocked          Field = "account_locked"
	FieldResetPasswordToken     Field = "reset_password_token"
	FieldResetPasswordExpires   Field = "reset_password_expires"
)

// Mutation is a single field assignment applied to a stored user record.
// Time fields take a *time.Time; nil clears them.
type Mutation struct {
	Field Field
	Value any
}

func Set(f Field, v any) Mutation { return Mutation{Field: f, Value: v} }

// SetTime returns a mutation assigning t to a timestamp field.
func SetTime(f Field, t time.Time) Mutation { return Mutation{Field: f, Value: &t} }

// ClearTime returns a mutation clearing a timestamp field.
func ClearTime(f Field) Mutation { return Mutation{Field: f, Value: (*time.Time)(nil)} }

// Validate reports whether every mutation names a known field with a value of the right type.
func Validate(muts []Mutation) error {
	var scratch User
	return scratch.Apply(muts...)
}

// Apply assigns the mutations to u in order.
func (u *User) Apply(muts ...Mutation) error {
	for _, m := range muts {
		if err := u.apply(m); err != nil {
			return err
		}
	}
	return nil
}

func (u *User) apply(m Mutation) error {
	switch m.Field {
	case FieldUsername:
		return assign(&u.Username, m)
	case FieldEmail:
		return assign(&u.Email, m)
	case FieldFullname:
		return assign(&u.Fullname, m)
	case FieldPhoneNumber:
		return assign(&u.PhoneNumber, m)
	case FieldBio:
		return assign(&u.Bio, m)
	case FieldImage:
		return assign(&u.Image, m)
	case FieldPassword:
		return assign(&u.Password, m)
	case FieldResetPasswordToken:
		return assign(&u.ResetPasswordToken, m)
	case FieldPasswordHistory:
		v, ok := m.Value.([]string)
		if !ok {
			return typeErr(m)
		}
		u.PasswordHistory = append([]string(nil), v...)
	case FieldFailedLoginAttempts:
		return assign(&u.FailedLoginAttempts, m)
	case FieldAccountLocked:
		return assign(&u.AccountLocked, m)
	case FieldPasswordChangedAt:
		return assignTime(&u.PasswordChangedAt, m)
	case FieldLastFailedLoginAttempt:
		return assignTime(&u.LastFailedLoginAttempt, m)
	case FieldResetPasswordExpires:
		return assignTime(&u.ResetPasswordExpires, m)
	default:
		return fmt.Errorf("unknown user field %q", m.Field)
	}
	return nil
}

func assign[T any](dst *T, m Mutation) error {
	v, ok := m.Value.(T)
	if !ok {
		return typeErr(m)
	}
	*dst = v
	return nil
}

func assignTime(dst **time.Time, m Mutation) error {
	v, ok := m.Value.(*time.Time)
	if !ok {
		return typeErr(m)
	}
	if v == nil {
		*dst = nil
		return nil
	}
	t := *v
	*dst = &t
	return nil
}

func typeErr(m Mutation) error {
	return fmt.Errorf("invalid value %T for user field %q", m.Value, m.Field)
}

// Collapse drops all but the last mutation of each field, keeping the order of
// the surviving mutations.
func Collapse(muts []Mutation) []Mutation {
	last := make(map[Field]int, len(muts))
	for i, m := range muts {
		last[m.Field] = i
	}
	out := make([]Mutation, 0, len(last))
	for i, m := range muts {
		if last[m.Field] == i {
			out = append(out, m)
		}
	}
	return out
}
