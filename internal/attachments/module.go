// Package attachments stores work-order photos in object storage, keeping
// only metadata rows in Postgres.
package attachments

import (
	"context"

	"maintops_backend/internal/attachments/handler"
	"maintops_backend/internal/attachments/repository"
	apphttp "maintops_backend/internal/http"
	"maintops_backend/internal/storage"
	"maintops_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Config interface {
	GetMinIOBucketWOPhotos() string
}

type Module struct {
	store   *storage.Service
	bucket  string
	handler *handler.Handler
}

func NewModule(pool *pgxpool.Pool, store *storage.Service, cfg Config, validate *validator.Validator) *Module {
	bucket := cfg.GetMinIOBucketWOPhotos()
	return &Module{
		store:   store,
		bucket:  bucket,
		handler: handler.New(repository.New(pool), store, bucket, validate),
	}
}

func (m *Module) Name() string { return "attachments" }

// EnsureBucket creates the photo bucket on startup.
func (m *Module) EnsureBucket(ctx context.Context) error {
	return m.store.EnsureBucketExists(ctx, m.bucket)
}

func (m *Module) RegisterRoutes(rc *apphttp.RouterContext) {
	workOrders := rc.Protected.Group("/work-orders")
	{
		workOrders.GET("/:id/attachments", m.handler.List)
		workOrders.POST("/:id/attachments", m.handler.RequestUpload)
	}

	rc.Protected.DELETE("/attachments/:id", m.handler.Delete)
}
