package httpapi

import (
	"fmt"
	"net/http"

	"luckee-incentive/pkg/config"
	"luckee-incentive/pkg/domain"
	"luckee-incentive/pkg/health"
	"luckee-incentive/pkg/middleware"
	"luckee-incentive/services/incentive"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
)

var Module = fx.Module("httpapi",
	fx.Provide(
		NewHandler,
		NewRouter,
	),
)

type Handler struct {
	dispatcher *incentive.Dispatcher
}

func NewHandler(d *incentive.Dispatcher) *Handler {
	return &Handler{dispatcher: d}
}

type RouterParams struct {
	fx.In
	Config  *config.Config
	Handler *Handler
	Health  health.HealthService
}

// NewRouter builds the gin engine served by the HTTP server.
func NewRouter(p RouterParams) http.Handler {
	if p.Config.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.Error())

	r.GET("/healthz", p.Health.Liveness)
	r.GET("/readyz", p.Health.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1", middleware.Caller())
	v1.POST("/instantiate", p.Handler.Instantiate)
	v1.POST("/execute", p.Handler.Execute)
	v1.POST("/query", p.Handler.Query)

	return r
}

func invalid(err error) error {
	return fmt.Errorf("%w: %v", domain.ErrInvalidMessage, err)
}

func (h *Handler) caller(c *gin.Context) (string, bool) {
	caller := middleware.CallerFromContext(c.Request.Context())
	if caller == "" {
		_ = c.Error(domain.ErrUnauthorized)
		return "", false
	}
	return caller, true
}

func (h *Handler) Instantiate(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}

	var msg incentive.InstantiateMsg
	if err := c.ShouldBindJSON(&msg); err != nil {
		_ = c.Error(invalid(err))
		return
	}

	resp, err := h.dispatcher.Instantiate(c.Request.Context(), caller, msg)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) Execute(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}

	var msg incentive.ExecuteMsg
	if err := c.ShouldBindJSON(&msg); err != nil {
		_ = c.Error(invalid(err))
		return
	}

	resp, err := h.dispatcher.Execute(c.Request.Context(), caller, msg)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Query needs no caller.
func (h *Handler) Query(c *gin.Context) {
	var msg incentive.QueryMsg
	if err := c.ShouldBindJSON(&msg); err != nil {
		_ = c.Error(invalid(err))
		return
	}

	out, err := h.dispatcher.Query(c.Request.Context(), msg)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}
