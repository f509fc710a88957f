//go:generate goverter gen github.com/lookbook-tech/go-backend/internal/repository/pgdb/converter
package converter

import (
	"time"

	"github.com/lookbook-tech/go-backend/internal/domain"
	"github.com/lookbook-tech/go-backend/internal/usecase"
)

// ProductConverter преобразует сущности Product между domain и моделью PostgreSQL.
// goverter:converter
// goverter:extend ConvertTime
// goverter:extend ConvertPointerTime
type ProductConverter interface {
	// goverter:ignore FeatureVector
	ToEntity(model *ProductModel) *domain.Product
	ToModel(entity *domain.Product) *ProductModel
}

// OutboxEventConverter преобразует сущности OutboxEvent между usecase и моделью PostgreSQL.
// goverter:converter
// goverter:extend ConvertTime
// goverter:extend ConvertPointerTime
// goverter:extend ConvertOutboxStatus
// goverter:extend ConvertStatusString
// goverter:extend ConvertOutboxEventType
// goverter:extend ConvertEventTypeString
type OutboxEventConverter interface {
	ToModel(entity *usecase.OutboxEvent) *OutboxEventModel
	ToEntity(model *OutboxEventModel) *usecase.OutboxEvent
	ToArrEntity(models []*OutboxEventModel) []*usecase.OutboxEvent
}

func ConvertPointerTime(t *time.Time) *time.Time {
	return t
}

func ConvertTime(t time.Time) time.Time {
	return t
}

func ConvertOutboxStatus(s usecase.OutboxStatus) string {
	return string(s)
}

func ConvertStatusString(s string) usecase.OutboxStatus {
	return usecase.OutboxStatus(s)
}

func ConvertOutboxEventType(t usecase.OutboxEventType) string {
	return string(t)
}

func ConvertEventTypeString(s string) usecase.OutboxEventType {
	return usecase.OutboxEventType(s)
}
