// Package auth provides credential sign-in and access-token issuance for
// coordination staff accounts.
package auth

import (
	"maintops_backend/internal/auth/handler"
	"maintops_backend/internal/auth/repository"
	"maintops_backend/internal/auth/service"
	"maintops_backend/internal/config"
	apphttp "maintops_backend/internal/http"
	"maintops_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Module struct {
	Service *service.Service
	handler *handler.Handler
}

func NewModule(pool *pgxpool.Pool, cfg *config.Config, validate *validator.Validator) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, cfg)
	return &Module{
		Service: svc,
		handler: handler.New(svc, validate),
	}
}

func (m *Module) Name() string { return "auth" }

func (m *Module) RegisterRoutes(rc *apphttp.RouterContext) {
	rc.V1.POST("/auth/sign-in", m.handler.SignIn)
	rc.Protected.GET("/auth/me", m.handler.GetMe)
	rc.Protected.GET("/users", m.handler.ListUsers)
}
