package usecase

import "context"

type ProductUC interface {
	IngestProduct(ctx context.Context, req *IngestProductReq) (*IngestProductRes, error)
	ReindexProduct(ctx context.Context, productID string, vector []float32) error
	Recommend(ctx context.Context, productID string) (*RecommendRes, error)
	SearchByImage(ctx context.Context, req *SearchByImageReq) (*SearchRes, error)
}
