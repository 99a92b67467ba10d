package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/oksasatya/go-travel-booking/internal/interface/http"
	"github.com/oksasatya/go-travel-booking/internal/interface/middleware"
)

// UserModule wires account routes under /users.
// Public: register, login, user lookup by id.
// Protected: logout, profile, password change and expiry, search.
type UserModule struct {
	Handler *handlers.UserHandler
	JWT     middleware.TokenParser
	Redis   *redis.Client
}

func NewUserModule(h *handlers.UserHandler, jwt middleware.TokenParser, rdb *redis.Client) *UserModule {
	return &UserModule{Handler: h, JWT: jwt, Redis: rdb}
}

func (m *UserModule) Name() string { return "users" }

func (m *UserModule) Register(rg *gin.RouterGroup) {
	users := rg.Group("/users")

	// the login throttle locks accounts; this limits guessing across accounts from one client
	loginLimiter := middleware.RateLimit(m.Redis, 10, time.Minute, middleware.KeyByIPAndPath(), middleware.AllowPrivateIP())
	registerLimiter := middleware.RateLimit(m.Redis, 20, time.Minute, middleware.KeyByIPAndPath(), nil)

	users.POST("/register", registerLimiter, m.Handler.Register)
	users.POST("/login", loginLimiter, m.Handler.Login)

	auth := users.Group("")
	auth.Use(middleware.Auth(m.Redis, m.JWT))
	auth.Use(
		middleware.RateLimit(m.Redis, 300, time.Minute, middleware.KeyByIP(), nil),
		middleware.RateLimit(m.Redis, 120, time.Minute, middleware.KeyByUserID(), nil),
	)
	{
		auth.POST("/logout", m.Handler.Logout)
		auth.GET("/profile", m.Handler.GetProfile)
		auth.PUT("/profile", m.Handler.UpdateProfile)
		auth.POST("/profile/image", m.Handler.UploadImage)
		auth.PUT("/password", m.Handler.ChangePassword)
		auth.GET("/password/expiry", m.Handler.PasswordExpiry)
		auth.GET("/search", m.Handler.Search)
	}

	users.GET("/:user_id", m.Handler.GetUser)
}
