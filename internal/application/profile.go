package application

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"path"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"

	"github.com/oksasatya/go-travel-booking/internal/domain/entity"
	repo "github.com/oksasatya/go-travel-booking/internal/domain/repository"
	"github.com/oksasatya/go-travel-booking/pkg/helpers"
)

const unsupportedImageMsg = "File format not supported."

// Profile is the public view of a user: no password material, no throttle or recovery state.
type Profile struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	Fullname    string    `json:"fullname"`
	Email       string    `json:"email"`
	PhoneNumber string    `json:"phoneNumber,omitempty"`
	Bio         string    `json:"bio,omitempty"`
	Image       string    `json:"image,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func NewProfile(u *entity.User) *Profile {
	return &Profile{
		ID:          u.ID,
		Username:    u.Username,
		Fullname:    u.Fullname,
		Email:       u.Email,
		PhoneNumber: u.PhoneNumber,
		Bio:         u.Bio,
		Image:       u.Image,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func (s *Service) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	u, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return NewProfile(u), nil
}

// GetUserByID returns the public profile of any user.
func (s *Service) GetUserByID(ctx context.Context, id string) (*Profile, error) {
	return s.GetProfile(ctx, id)
}

// UpdateProfileInput carries optional changes. Empty strings leave username,
// fullname and email untouched; nil leaves bio and phone untouched.
type UpdateProfileInput struct {
	Username    string
	Fullname    string
	Email       string
	Bio         *string
	PhoneNumber *string
}

// UpdateProfile applies the changed fields, rejecting identities taken by another user.
func (s *Service) UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (*Profile, error) {
	u, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	var muts []entity.Mutation
	if in.Username != "" && in.Username != u.Username {
		if err := s.ensureFree(ctx, s.Repo.GetByUsername, in.Username, u.ID, ErrDuplicateUsername); err != nil {
			return nil, err
		}
		muts = append(muts, entity.Set(entity.FieldUsername, in.Username))
	}
	if in.Fullname != "" && in.Fullname != u.Fullname {
		muts = append(muts, entity.Set(entity.FieldFullname, in.Fullname))
	}
	if in.Email != "" && in.Email != u.Email {
		if !validEmail(in.Email) {
			return nil, invalid("email", "Please enter a valid email")
		}
		if err := s.ensureFree(ctx, s.Repo.GetByEmail, in.Email, u.ID, ErrDuplicateEmail); err != nil {
			return nil, err
		}
		muts = append(muts, entity.Set(entity.FieldEmail, in.Email))
	}
	if in.Bio != nil && *in.Bio != u.Bio {
		muts = append(muts, entity.Set(entity.FieldBio, *in.Bio))
	}
	if in.PhoneNumber != nil && *in.PhoneNumber != u.PhoneNumber {
		if *in.PhoneNumber != "" {
			if err := s.ensureFree(ctx, s.Repo.GetByPhone, *in.PhoneNumber, u.ID, ErrDuplicatePhone); err != nil {
				return nil, err
			}
		}
		muts = append(muts, entity.Set(entity.FieldPhoneNumber, *in.PhoneNumber))
	}

	if err := s.apply(ctx, u, "update profile", muts...); err != nil {
		return nil, err
	}
	if len(muts) > 0 {
		u.UpdatedAt = s.now()
		s.touchSession(ctx, u)
		s.indexUser(ctx, u)
	}
	return NewProfile(u), nil
}

func (s *Service) ensureFree(ctx context.Context, find func(context.Context, string) (*entity.User, error), value, selfID string, dup error) error {
	other, err := find(ctx, value)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil
		}
		return internal("uniqueness lookup", err)
	}
	if other.ID != selfID {
		return dup
	}
	return nil
}

// touchSession refreshes the cached identity fields, preserving the session TTL.
func (s *Service) touchSession(ctx context.Context, u *entity.User) {
	if s.Redis == nil {
		return
	}
	key := helpers.SessionKey(u.ID)
	n, err := s.Redis.Exists(ctx, key).Result()
	if err != nil || n == 0 {
		return
	}
	if err := s.Redis.HSet(ctx, key, map[string]any{
		"username":   u.Username,
		"fullname":   u.Fullname,
		"updated_at": nowRFC3339(s.now()),
	}).Err(); err != nil {
		s.log().WithError(err).WithField("key", key).Warn("redis session refresh failed")
	}
}

// UploadAvatar stores the image in GCS and records its URL on the profile.
func (s *Service) UploadAvatar(ctx context.Context, userID string, r io.Reader, contentType string) (*Profile, error) {
	ext, ok := helpers.ImageExtension(contentType)
	if !ok {
		return nil, invalid("image", unsupportedImageMsg)
	}
	u, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if s.GCS == nil || s.GCSBucket == "" {
		return nil, internal("upload avatar", errors.New("gcs not configured"))
	}
	objectPath := path.Join("avatars", u.ID, uuid.NewString()+ext)
	url, err := helpers.UploadObject(ctx, s.GCS, s.GCSBucket, objectPath, contentType, r)
	if err != nil {
		return nil, internal("upload avatar", err)
	}
	if err := s.apply(ctx, u, "update avatar", entity.Set(entity.FieldImage, url)); err != nil {
		return nil, err
	}
	s.indexUser(ctx, u)
	return NewProfile(u), nil
}

// indexUser mirrors the profile into the search index. Failures are only logged.
func (s *Service) indexUser(ctx context.Context, u *entity.User) {
	if s.ES == nil || s.ESUsersIndex == "" {
		return
	}
	doc := map[string]any{
		"id":         u.ID,
		"username":   u.Username,
		"fullname":   u.Fullname,
		"email":      u.Email,
		"image":      u.Image,
		"created_at": u.CreatedAt.Format(time.RFC3339Nano),
	}
	b, _ := json.Marshal(doc)
	req := esapi.IndexRequest{Index: s.ESUsersIndex, DocumentID: u.ID, Body: strings.NewReader(string(b)), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		s.log().WithError(err).WithField("user_id", u.ID).Warn("es index failed")
		return
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		s.log().WithField("status", res.Status()).WithField("user_id", u.ID).Warn("es index response error")
	}
}

// SearchUsers performs a multi_match search on username, fullname and email.
func (s *Service) SearchUsers(ctx context.Context, q string, size int) ([]map[string]any, error) {
	if s.ES == nil || s.ESUsersIndex == "" {
		return []map[string]any{}, nil
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"username^2", "fullname", "email"},
			},
		},
		"size": size,
	}
	b, _ := json.Marshal(query)

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := s.ES.Search(s.ES.Search.WithContext(c), s.ES.Search.WithIndex(s.ESUsersIndex), s.ES.Search.WithBody(strings.NewReader(string(b))))
	if err != nil {
		return nil, internal("search users", err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return nil, internal("search users", errors.New(res.Status()))
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, internal("decode search", err)
	}

	out := make([]map[string]any, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}
