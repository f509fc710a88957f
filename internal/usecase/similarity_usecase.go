package usecase

import (
	"context"
	"time"

	"github.com/lookbook-tech/go-backend/pkg/e"
)

// Recommend возвращает товары, визуально похожие на указанный.
// Возвращает e.ErrProductNotFound для неизвестного id и e.ErrVectorMissing,
// если товар ещё не прошёл фазу привязки вектора.
func (p *ProductUseCase) Recommend(ctx context.Context, productID string) (*RecommendRes, error) {
	const op = "ProductUseCase.Recommend"

	refInfo, err := p.referenceProduct(ctx, productID)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	vector, err := p.vectorIndex.VectorOf(ctx, productID)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	neighbors, err := p.vectorIndex.KNearest(ctx, vector, productID, p.cfg.Limit)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	recommendations := toProductInfos(neighbors)
	p.warmCache(append(recommendations, *refInfo))

	return NewRecommendRes(*refInfo, recommendations), nil
}

// SearchByImage ищет товары, похожие на произвольное изображение.
// Запись товара для изображения-запроса не создаётся.
func (p *ProductUseCase) SearchByImage(ctx context.Context, req *SearchByImageReq) (*SearchRes, error) {
	const op = "ProductUseCase.SearchByImage"

	if len(req.Image.Data) == 0 {
		return nil, e.Wrap(op, e.ErrNoImage)
	}

	analysis, err := p.analysis.Analyze(ctx, NewAnalyzeReq(req.Image))
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	neighbors, err := p.vectorIndex.KNearest(ctx, analysis.Vector, "", p.cfg.Limit)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	matches := toProductInfos(neighbors)
	p.warmCache(matches)

	return NewSearchRes(matches), nil
}

// referenceProduct возвращает справочный товар, предпочитая кэш.
func (p *ProductUseCase) referenceProduct(ctx context.Context, productID string) (*ProductInfo, error) {
	if cached, err := p.cacheRepo.GetProducts(ctx, []string{productID}); err == nil {
		if info, ok := cached[productID]; ok {
			return &info, nil
		}
	}

	product, err := p.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	info := NewProductInfo(product)
	return &info, nil
}

// warmCache фоново прогревает кэш возвращаемыми товарами.
func (p *ProductUseCase) warmCache(products []ProductInfo) {
	if len(products) == 0 {
		return
	}

	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		defer cancel()

		if err := p.cacheRepo.SetProducts(bgCtx, products); err != nil {
			p.logger.Warnf("failed to cache products in background: %v", err)
		}
	}()
}
