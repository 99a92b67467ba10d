package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type pingModule struct{}

func (pingModule) Name() string { return "ping" }

func (pingModule) Register(rg *gin.RouterGroup) {
	rg.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("tag")) })
}

func TestRegistry_MountsUnderAPI(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	reg := NewRegistry(engine)
	reg.Use(func(c *gin.Context) {
		c.Set("tag", "mw")
		c.Next()
	})
	reg.Add(pingModule{})
	reg.RegisterAll()

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "mw", w.Body.String())

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRegistry_Names(t *testing.T) {
	reg := NewRegistry(gin.New())
	reg.Add(pingModule{})
	assert.Equal(t, []string{"ping"}, reg.Names())
	assert.Panics(t, func() { reg.Add(pingModule{}) })
}
