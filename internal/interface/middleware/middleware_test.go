package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-travel-booking/pkg/helpers"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err, "failed to start miniredis")
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb, mr
}

type parserMock struct {
	ParseFunc func(token string) (*helpers.Claims, error)
}

func (m *parserMock) ParseAccessToken(token string) (*helpers.Claims, error) {
	return m.ParseFunc(token)
}

func okParser(token string) (*helpers.Claims, error) {
	if token != "good" {
		return nil, errors.New("token is malformed")
	}
	return &helpers.Claims{UserID: "u1", Username: "alice", Fullname: "Alice A", SessionID: "s1"}, nil
}

func authRouter(rdb *redis.Client) *gin.Engine {
	r := gin.New()
	r.GET("/me", Auth(rdb, &parserMock{ParseFunc: okParser}), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"id":       c.GetString(CtxUserIDKey),
			"username": c.GetString(CtxUsernameKey),
			"fullname": c.GetString(CtxFullnameKey),
		})
	})
	return r
}

func TestAuth(t *testing.T) {
	rdb, mr := setupTestRedis(t)
	mr.HSet(helpers.SessionKey("u1"), "sid", "s1")
	r := authRouter(rdb)

	tests := []struct {
		name   string
		setup  func(req *http.Request)
		status int
	}{
		{"no token", func(*http.Request) {}, http.StatusUnauthorized},
		{"bad token", func(req *http.Request) { req.Header.Set("Authorization", "Bearer bad") }, http.StatusUnauthorized},
		{"bearer", func(req *http.Request) { req.Header.Set("Authorization", "Bearer good") }, http.StatusOK},
		{"cookie", func(req *http.Request) {
			req.AddCookie(&http.Cookie{Name: helpers.AccessTokenCookie, Value: "good"})
		}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			tt.setup(req)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
		})
	}

	t.Run("sets identity", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer good")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		var body map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, map[string]string{"id": "u1", "username": "alice", "fullname": "Alice A"}, body)
	})
}

func TestAuth_Session(t *testing.T) {
	rdb, mr := setupTestRedis(t)
	r := authRouter(rdb)

	call := func() int {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer good")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusUnauthorized, call(), "logged out")

	mr.HSet(helpers.SessionKey("u1"), "sid", "s2")
	assert.Equal(t, http.StatusUnauthorized, call(), "replaced by a newer login")

	mr.HSet(helpers.SessionKey("u1"), "sid", "s1")
	assert.Equal(t, http.StatusOK, call())
}

func TestAuth_WithoutRedis(t *testing.T) {
	r := authRouter(nil)
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer good")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimit(t *testing.T) {
	rdb, _ := setupTestRedis(t)
	r := gin.New()
	r.Use(RealIP())
	r.POST("/login", RateLimit(rdb, 2, time.Minute, KeyByIPAndPath(), AllowPaths("/health")), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	send := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.Header.Set("X-Forwarded-For", ip)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := send("203.0.113.7")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Remaining"))

	assert.Equal(t, http.StatusNoContent, send("203.0.113.7").Code)

	w = send("203.0.113.7")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusNoContent, send("198.51.100.1").Code, "other clients keep their budget")
}

func TestRateLimit_Bypass(t *testing.T) {
	rdb, _ := setupTestRedis(t)
	r := gin.New()
	r.Use(RealIP())
	r.GET("/x", RateLimit(rdb, 1, time.Minute, KeyByIP(), AnyAllow(AllowPrivateIP())), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set("X-Forwarded-For", "10.0.0.8")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNoContent, w.Code)
	}
}

func TestRealIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"cloudflare wins", map[string]string{"CF-Connecting-IP": "198.51.100.2", "X-Forwarded-For": "203.0.113.1"}, "198.51.100.2"},
		{"x-real-ip before forwarded", map[string]string{"X-Real-IP": "198.51.100.7", "X-Forwarded-For": "203.0.113.1"}, "198.51.100.7"},
		{"left-most forwarded", map[string]string{"X-Forwarded-For": "203.0.113.1, 10.0.0.1"}, "203.0.113.1"},
		{"invalid x-real-ip skipped", map[string]string{"X-Real-IP": "proxy", "X-Forwarded-For": "2001:db8::1"}, "2001:db8::1"},
		{"garbage falls back", map[string]string{"X-Forwarded-For": "nope"}, "192.0.2.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			r := gin.New()
			r.Use(RealIP())
			r.GET("/", func(c *gin.Context) { got = c.GetString(CtxRealIPKey) })

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			r.ServeHTTP(httptest.NewRecorder(), req)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("request_id")) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, w.Body.String(), 36)
	assert.Equal(t, w.Body.String(), w.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "7f1c2a8e-5b0f-4c55-9d8e-0c9b1f3a2e11")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "7f1c2a8e-5b0f-4c55-9d8e-0c9b1f3a2e11", w.Body.String())
}

func TestAccessLog_UsesRouteTemplate(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(&logrus.JSONFormatter{})

	r := gin.New()
	r.Use(AccessLog(logger))
	r.POST("/reset/:token", func(c *gin.Context) { c.Status(http.StatusBadRequest) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/reset/secret-token", nil))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "/reset/:token", line["path"])
	assert.Equal(t, float64(http.StatusBadRequest), line["status"])
	assert.Equal(t, "warning", line["level"])
	assert.NotContains(t, buf.String(), "secret-token")
}
