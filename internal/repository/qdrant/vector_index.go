package qdrant

import (
	"context"

	"github.com/jimlawless/whereami"
	"github.com/lookbook-tech/go-backend/internal/cfg"
	"github.com/lookbook-tech/go-backend/internal/domain"
	"github.com/lookbook-tech/go-backend/internal/usecase"
	"github.com/lookbook-tech/go-backend/pkg/e"
	"github.com/qdrant/go-client/qdrant"
)

// VectorIndex — реализация usecase.VectorIndex поверх Qdrant.
// Точка индекса ключуется uuid товара; записи товаров остаются в PostgreSQL,
// выдача k-NN гидрируется через ProductRepository с сохранением порядка рангов.
type VectorIndex struct {
	client    *qdrant.Client
	products  usecase.ProductRepository
	cfg       *cfg.QdrantCfg
	searchCfg *cfg.SearchCfg
}

func NewVectorIndex(client *qdrant.Client, products usecase.ProductRepository, cfg *cfg.QdrantCfg, searchCfg *cfg.SearchCfg) *VectorIndex {
	return &VectorIndex{
		client:    client,
		products:  products,
		cfg:       cfg,
		searchCfg: searchCfg,
	}
}

// Attach идемпотентно сохраняет вектор товара в коллекции Qdrant.
func (q *VectorIndex) Attach(ctx context.Context, productID string, vector []float32) error {
	if len(vector) != q.searchCfg.VectorSize {
		return e.Wrap(whereami.WhereAmI(), e.ErrVectorDimensionMismatch)
	}

	if _, err := q.products.GetByID(ctx, productID); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	embedding := domain.NewEmbedding(productID, vector, domain.NewPayload(productID, ""))

	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.cfg.QdrantCollectionName,
		Points: []*qdrant.PointStruct{
			{
				Id:      qdrant.NewIDUUID(embedding.ID),
				Vectors: qdrant.NewVectors(embedding.Vector...),
				Payload: qdrant.NewValueMap(embedding.Payload),
			},
		},
	})
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// VectorOf возвращает вектор точки с идентификатором товара.
func (q *VectorIndex) VectorOf(ctx context.Context, productID string) ([]float32, error) {
	points, err := q.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: q.cfg.QdrantCollectionName,
		Ids:            []*qdrant.PointId{qdrant.NewIDUUID(productID)},
		WithVectors:    qdrant.NewWithVectorsEnable(true),
	})
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if len(points) == 0 {
		return nil, e.Wrap(whereami.WhereAmI(), e.ErrVectorMissing)
	}

	vector := points[0].GetVectors().GetVector().GetData()
	if len(vector) == 0 {
		return nil, e.Wrap(whereami.WhereAmI(), e.ErrVectorMissing)
	}

	return vector, nil
}

// KNearest запрашивает ближайшие точки у Qdrant и гидрирует товары из PostgreSQL.
func (q *VectorIndex) KNearest(ctx context.Context, ref []float32, excludeID string, limit int) ([]domain.Product, error) {
	req := &qdrant.QueryPoints{
		CollectionName: q.cfg.QdrantCollectionName,
		Query:          qdrant.NewQuery(ref...),
		Limit:          qdrant.PtrOf(uint64(limit)),
	}

	if excludeID != "" {
		req.Filter = &qdrant.Filter{
			MustNot: []*qdrant.Condition{
				qdrant.NewHasID(qdrant.NewIDUUID(excludeID)),
			},
		}
	}

	points, err := q.client.Query(ctx, req)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	ids := make([]string, 0, len(points))
	for _, point := range points {
		ids = append(ids, point.GetId().GetUuid())
	}

	products, err := q.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	// Порядок рангов Qdrant, записи без товара в БД пропускаются
	byID := make(map[string]domain.Product, len(products))
	for _, product := range products {
		byID[product.ID] = product
	}

	result := make([]domain.Product, 0, len(ids))
	for _, id := range ids {
		if product, ok := byID[id]; ok {
			result = append(result, product)
		}
	}

	return result, nil
}
