// Package router registers the HTTP API on an echo instance.
package router

import (
	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/box-builder/internal/config"
	"github.com/iliyamo/box-builder/internal/handler"
	"github.com/iliyamo/box-builder/internal/middleware"
	"github.com/iliyamo/box-builder/internal/model"
)

// Handlers groups everything RegisterRoutes wires up.
type Handlers struct {
	Auth     *handler.AuthHandler
	Public   *handler.PublicHandler
	Session  *handler.SessionHandler
	Operator *handler.OperatorHandler
}

// Limits configures the Redis-backed middleware. A nil Redis client turns
// both off.
type Limits struct {
	Redis     *redis.Client
	Cache     config.CacheConfig
	RateLimit config.RateLimitConfig
}

// RegisterRoutes mounts the public catalog (cached and rate limited), the
// composition sessions (rate limited), operator auth and the operator
// back office (JWT + OPERATOR role).
func RegisterRoutes(e *echo.Echo, h Handlers, lim Limits, jwtSecret string, logger *log.Logger) {
	e.GET("/healthz", handler.Health)

	limit := middleware.NewTokenBucket(lim.RateLimit, lim.Redis, logger)
	cache := middleware.NewRedisCache(lim.Cache, lim.Redis, logger)

	pub := e.Group("/v1", limit, cache)
	pub.GET("/templates", h.Public.ListTemplates)
	pub.GET("/templates/:key/layout", h.Public.TemplateLayout)
	pub.GET("/boxes", h.Public.ListBoxes)
	pub.GET("/boxes/:id", h.Public.GetBox)
	pub.GET("/boxes/:id/layout", h.Public.BoxLayout)
	pub.GET("/items", h.Public.ListItems)

	s := e.Group("/v1/sessions", limit)
	s.POST("", h.Session.Create)
	s.GET("/:id", h.Session.Get)
	s.PUT("/:id/box", h.Session.SelectBox)
	s.POST("/:id/items", h.Session.AddItem)
	s.DELETE("/:id/slots/:slot", h.Session.RemoveSlot)
	s.DELETE("/:id", h.Session.Delete)
	s.POST("/:id/checkout", h.Session.Checkout)

	e.POST("/v1/auth/login", h.Auth.Login, limit)
	authed := e.Group("/v1", middleware.JWTAuth(jwtSecret), middleware.RequireRole(model.RoleOperator))
	authed.GET("/me", h.Auth.Me)
	authed.POST("/auth/password", h.Auth.ChangePassword)

	op := e.Group("/v1/operator", middleware.JWTAuth(jwtSecret), middleware.RequireRole(model.RoleOperator))
	op.GET("/boxes", h.Operator.ListBoxes)
	op.POST("/boxes", h.Operator.CreateBox)
	op.POST("/boxes/rebuild", h.Operator.RebuildAll)
	op.PUT("/boxes/:id", h.Operator.UpdateBox)
	op.PATCH("/boxes/:id", h.Operator.UpdateBox)
	op.DELETE("/boxes/:id", h.Operator.DeleteBox)
	op.POST("/boxes/:id/rebuild", h.Operator.RebuildOne)

	op.GET("/items", h.Operator.ListItems)
	op.POST("/items", h.Operator.CreateItem)
	op.PUT("/items/:id", h.Operator.UpdateItem)
	op.PATCH("/items/:id", h.Operator.UpdateItem)
	op.DELETE("/items/:id", h.Operator.DeleteItem)

	op.POST("/uploads", h.Operator.Upload)

	op.GET("/orders", h.Operator.ListOrders)
	op.GET("/orders/:id", h.Operator.GetOrder)
}
