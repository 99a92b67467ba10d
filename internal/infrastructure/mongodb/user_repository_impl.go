package mongodb

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/oksasatya/go-travel-booking/internal/domain/entity"
	"github.com/oksasatya/go-travel-booking/internal/domain/repository"
)

const (
	usersCollection = "users"

	idxUsername = "users_username_key"
	idxEmail    = "users_email_key"
	idxPhone    = "users_phone_number_key"
	idxToken    = "users_reset_password_token_idx"
)

type userDoc struct {
	ID          bson.ObjectID `bson:"_id,omitempty"`
	Username    string        `bson:"username"`
	Email       string        `bson:"email"`
	Fullname    string        `bson:"fullname"`
	PhoneNumber string        `bson:"phone_number,omitempty"`
	Bio         string        `bson:"bio"`
	Image       string        `bson:"image"`

	Password          string     `bson:"password"`
	PasswordChangedAt *time.Time `bson:"password_changed_at,omitempty"`
	PasswordHistory   []string   `bson:"password_history"`

	FailedLoginAttempts    int        `bson:"failed_login_attempts"`
	LastFailedLoginAttempt *time.Time `bson:"last_failed_login_attempt,omitempty"`
	AccountLocked          bool       `bson:"account_locked"`

	ResetPasswordToken   string     `bson:"reset_password_token,omitempty"`
	ResetPasswordExpires *time.Time `bson:"reset_password_expires,omitempty"`

	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func toDoc(u *entity.User) userDoc {
	history := u.PasswordHistory
	if history == nil {
		history = []string{}
	}
	return userDoc{
		Username:               u.Username,
		Email:                  u.Email,
		Fullname:               u.Fullname,
		PhoneNumber:            u.PhoneNumber,
		Bio:                    u.Bio,
		Image:                  u.Image,
		Password:               u.Password,
		PasswordChangedAt:      u.PasswordChangedAt,
		PasswordHistory:        history,
		FailedLoginAttempts:    u.FailedLoginAttempts,
		LastFailedLoginAttempt: u.LastFailedLoginAttempt,
		AccountLocked:          u.AccountLocked,
		ResetPasswordToken:     u.ResetPasswordToken,
		ResetPasswordExpires:   u.ResetPasswordExpires,
		CreatedAt:              u.CreatedAt,
		UpdatedAt:              u.UpdatedAt,
	}
}

func (d *userDoc) toEntity() *entity.User {
	return &entity.User{
		ID:                     d.ID.Hex(),
		Username:               d.Username,
		Email:                  d.Email,
		Fullname:               d.Fullname,
		PhoneNumber:            d.PhoneNumber,
		Bio:                    d.Bio,
		Image:                  d.Image,
		Password:               d.Password,
		PasswordChangedAt:      d.PasswordChangedAt,
		PasswordHistory:        d.PasswordHistory,
		FailedLoginAttempts:    d.FailedLoginAttempts,
		LastFailedLoginAttempt: d.LastFailedLoginAttempt,
		AccountLocked:          d.AccountLocked,
		ResetPasswordToken:     d.ResetPasswordToken,
		ResetPasswordExpires:   d.ResetPasswordExpires,
		CreatedAt:              d.CreatedAt,
		UpdatedAt:              d.UpdatedAt,
	}
}

type UserRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{coll: db.Collection(usersCollection), now: time.Now}
}

// EnsureIndexes creates the unique indexes the store relies on for identity uniqueness.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetName(idxUsername).SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetName(idxEmail).SetUnique(true)},
		{
			Keys: bson.D{{Key: "phone_number", Value: 1}},
			Options: options.Index().SetName(idxPhone).SetUnique(true).
				SetPartialFilterExpression(bson.M{"phone_number": bson.M{"$exists": true}}),
		},
		{
			Keys: bson.D{{Key: "reset_password_token", Value: 1}},
			Options: options.Index().SetName(idxToken).
				SetPartialFilterExpression(bson.M{"reset_password_token": bson.M{"$exists": true}}),
		},
	})
	return err
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = r.now().UTC()
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = u.CreatedAt
	}
	res, err := r.coll.InsertOne(ctx, toDoc(u))
	if err != nil {
		return mapError(err)
	}
	if oid, ok := res.InsertedID.(bson.ObjectID); ok {
		u.ID = oid.Hex()
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, repository.ErrNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UserRepository) GetByPhone(ctx context.Context, phone string) (*entity.User, error) {
	if phone == "" {
		return nil, repository.ErrNotFound
	}
	return r.findOne(ctx, bson.M{"phone_number": phone})
}

func (r *UserRepository) GetByResetToken(ctx context.Context, token string) (*entity.User, error) {
	if token == "" {
		return nil, repository.ErrNotFound
	}
	return r.findOne(ctx, bson.M{"reset_password_token": token})
}

// Apply runs the mutations as one UpdateOne, atomic on the document.
func (r *UserRepository) Apply(ctx context.Context, id string, muts ...entity.Mutation) error {
	if len(muts) == 0 {
		return nil
	}
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return repository.ErrNotFound
	}
	update, err := buildUpdate(muts, r.now().UTC())
	if err != nil {
		return err
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return mapError(err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*entity.User, error) {
	var d userDoc
	if err := r.coll.FindOne(ctx, filter).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return d.toEntity(), nil
}

// buildUpdate turns mutations into $set/$unset. Empty phone numbers and tokens
// are unset so the partial indexes ignore them; nil timestamps are unset too.
func buildUpdate(muts []entity.Mutation, now time.Time) (bson.D, error) {
	if err := entity.Validate(muts); err != nil {
		return nil, err
	}
	set := bson.D{}
	unset := bson.D{}
	for _, m := range entity.Collapse(muts) {
		key := string(m.Field)
		switch v := m.Value.(type) {
		case *time.Time:
			if v == nil {
				unset = append(unset, bson.E{Key: key, Value: ""})
				continue
			}
			set = append(set, bson.E{Key: key, Value: *v})
		case string:
			if v == "" && (m.Field == entity.FieldPhoneNumber || m.Field == entity.FieldResetPasswordToken) {
				unset = append(unset, bson.E{Key: key, Value: ""})
				continue
			}
			set = append(set, bson.E{Key: key, Value: v})
		default:
			set = append(set, bson.E{Key: key, Value: v})
		}
	}
	set = append(set, bson.E{Key: "updated_at", Value: now})

	update := bson.D{{Key: "$set", Value: set}}
	if len(unset) > 0 {
		update = append(update, bson.E{Key: "$unset", Value: unset})
	}
	return update, nil
}

func mapError(err error) error {
	if !mongo.IsDuplicateKeyError(err) {
		return err
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, idxUsername):
		return repository.ErrDuplicateUsername
	case strings.Contains(msg, idxEmail):
		return repository.ErrDuplicateEmail
	case strings.Contains(msg, idxPhone):
		return repository.ErrDuplicatePhone
	}
	return err
}

var _ repository.UserRepository = (*UserRepository)(nil)
