package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	userapp "github.com/oksasatya/go-travel-booking/internal/application"
	"github.com/oksasatya/go-travel-booking/internal/interface/middleware"
	"github.com/oksasatya/go-travel-booking/pkg/helpers"
	"github.com/oksasatya/go-travel-booking/pkg/response"
	"github.com/oksasatya/go-travel-booking/pkg/validation"
)

const maxAvatarBytes = 5 << 20

// AccountService is the account operations the user handler serves.
type AccountService interface {
	Register(ctx context.Context, in userapp.RegisterInput) (*userapp.Profile, error)
	Login(ctx context.Context, username, password string) (*userapp.LoginResult, error)
	Logout(ctx context.Context, userID string) error
	GetProfile(ctx context.Context, userID string) (*userapp.Profile, error)
	GetUserByID(ctx context.Context, id string) (*userapp.Profile, error)
	UpdateProfile(ctx context.Context, userID string, in userapp.UpdateProfileInput) (*userapp.Profile, error)
	UploadAvatar(ctx context.Context, userID string, r io.Reader, contentType string) (*userapp.Profile, error)
	ChangePassword(ctx context.Context, userID, current, next, confirm string) error
	PasswordExpiryStatus(ctx context.Context, userID string) (*userapp.ExpiryStatus, error)
	SearchUsers(ctx context.Context, q string, size int) ([]map[string]any, error)
}

type UserHandler struct {
	Svc     AccountService
	Logger  *logrus.Logger
	Cookies *helpers.Manager
}

func NewUserHandler(svc AccountService, logger *logrus.Logger, cookieDomain string, cookieSecure bool) *UserHandler {
	return &UserHandler{Svc: svc, Logger: logger, Cookies: helpers.NewCookie(cookieDomain, cookieSecure)}
}

// Field presence and password policy are checked by the service so the
// messages stay the same for every caller.
type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Fullname string `json:"fullname"`
	Email    string `json:"email"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type updateProfileRequest struct {
	Username    string  `json:"username" binding:"omitempty,max=50"`
	Fullname    string  `json:"fullname" binding:"omitempty,max=100"`
	Email       string  `json:"email" binding:"omitempty,email"`
	Bio         *string `json:"bio" binding:"omitempty,max=500"`
	PhoneNumber *string `json:"phoneNumber" binding:"omitempty,phone"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

type searchQuery struct {
	Q    string `form:"q" binding:"required"`
	Size int    `form:"size" binding:"omitempty,min=1,max=50"`
}

// Register POST /api/users/register
func (h *UserHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	p, err := h.Svc.Register(c.Request.Context(), userapp.RegisterInput{
		Username: req.Username,
		Password: req.Password,
		Fullname: req.Fullname,
		Email:    req.Email,
	})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, p, "User created", nil)
}

// Login POST /api/users/login
func (h *UserHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	res, err := h.Svc.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, userapp.ErrUserNotFound) {
			response.Error[any](c, http.StatusBadRequest, "User is not registered", nil)
			return
		}
		respondError(c, h.Logger, err)
		return
	}
	h.Cookies.SetAccess(c, res.Token, res.ExpiresAt)
	response.Success(c, http.StatusOK, gin.H{
		"token":           res.Token,
		"user":            res.User,
		"password_expiry": res.PasswordExpiry,
	}, "login successful", map[string]any{"expires_at": res.ExpiresAt})
}

// Logout POST /api/users/logout
func (h *UserHandler) Logout(c *gin.Context) {
	if err := h.Svc.Logout(c.Request.Context(), c.GetString(middleware.CtxUserIDKey)); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	h.Cookies.Clear(c)
	response.Success[any](c, http.StatusOK, gin.H{"logged_out": true}, "logged out", nil)
}

// GetProfile GET /api/users/profile
func (h *UserHandler) GetProfile(c *gin.Context) {
	p, err := h.Svc.GetProfile(c.Request.Context(), c.GetString(middleware.CtxUserIDKey))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, p, "profile", nil)
}

// GetUser GET /api/users/:user_id
func (h *UserHandler) GetUser(c *gin.Context) {
	p, err := h.Svc.GetUserByID(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, p, "user", nil)
}

// UpdateProfile PUT /api/users/profile
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	p, err := h.Svc.UpdateProfile(c.Request.Context(), c.GetString(middleware.CtxUserIDKey), userapp.UpdateProfileInput{
		Username:    req.Username,
		Fullname:    req.Fullname,
		Email:       req.Email,
		Bio:         req.Bio,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, p, "profile updated", nil)
}

// UploadImage POST /api/users/profile/image (multipart field "image")
func (h *UserHandler) UploadImage(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxAvatarBytes)
	fh, err := c.FormFile("image")
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "Please upload a file", nil)
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "Please upload a file", nil)
		return
	}
	defer func() { _ = f.Close() }()

	p, err := h.Svc.UploadAvatar(c.Request.Context(), c.GetString(middleware.CtxUserIDKey), f, fh.Header.Get("Content-Type"))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, p, "profile image updated", nil)
}

// ChangePassword PUT /api/users/password
func (h *UserHandler) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	err := h.Svc.ChangePassword(c.Request.Context(), c.GetString(middleware.CtxUserIDKey), req.CurrentPassword, req.NewPassword, req.ConfirmPassword)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success[any](c, http.StatusOK, nil, "Password updated successfully", nil)
}

// PasswordExpiry GET /api/users/password/expiry
func (h *UserHandler) PasswordExpiry(c *gin.Context) {
	st, err := h.Svc.PasswordExpiryStatus(c.Request.Context(), c.GetString(middleware.CtxUserIDKey))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, st, "password expiry", nil)
}

// Search GET /api/users/search?q=...&size=...
func (h *UserHandler) Search(c *gin.Context) {
	var q searchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid query", validation.ToDetails(err))
		return
	}
	hits, err := h.Svc.SearchUsers(c.Request.Context(), q.Q, q.Size)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, hits, "search results", map[string]any{"count": len(hits), "q": q.Q, "size": q.Size})
}
