package usecase

import (
	"context"

	"github.com/lookbook-tech/go-backend/internal/domain"
)

type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) (*domain.Product, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]domain.Product, error)
}

// VectorIndex — возможность хранилища по k-NN поиску.
// Attach идемпотентен: повторная привязка того же вектора к тому же товару
// не меняет наблюдаемое состояние.
type VectorIndex interface {
	Attach(ctx context.Context, productID string, vector []float32) error
	VectorOf(ctx context.Context, productID string) ([]float32, error)
	KNearest(ctx context.Context, ref []float32, excludeID string, limit int) ([]domain.Product, error)
}

type CacheRepository interface {
	GetProducts(ctx context.Context, ids []string) (map[string]ProductInfo, error)
	SetProducts(ctx context.Context, products []ProductInfo) error
	DeleteProducts(ctx context.Context, ids []string) error
}

type OutboxRepository interface {
	Create(ctx context.Context, event *OutboxEvent) (*OutboxEvent, error)
	GetAndMarkAsProcessing(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkAsProcessed(ctx context.Context, id int64) error
	MarkAsFailed(ctx context.Context, id int64) error
}

type ImageRepository interface {
	Upload(ctx context.Context, image *domain.Image) (string, error)
	Delete(ctx context.Context, key string) error
}
