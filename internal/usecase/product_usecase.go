package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/lookbook-tech/go-backend/internal/cfg"
	"github.com/lookbook-tech/go-backend/internal/domain"
	"github.com/lookbook-tech/go-backend/pkg/e"
	"github.com/lookbook-tech/go-backend/pkg/logger"
)

// ProductUseCase реализует конвейер загрузки товара и поисковые запросы по сходству.
type ProductUseCase struct {
	productRepo ProductRepository
	vectorIndex VectorIndex
	txManager   TxManager
	analysis    AnalysisInfra
	imagesInfra ImagesInfra
	outboxRepo  OutboxRepository
	cacheRepo   CacheRepository
	logger      logger.Logger
	cfg         *cfg.SearchCfg
}

func NewProductUC(
	productRepo ProductRepository,
	vectorIndex VectorIndex,
	txManager TxManager,
	analysis AnalysisInfra,
	imagesInfra ImagesInfra,
	outboxRepo OutboxRepository,
	cacheRepo CacheRepository,
	logger logger.Logger,
	cfg *cfg.SearchCfg,
) *ProductUseCase {
	return &ProductUseCase{
		productRepo: productRepo,
		vectorIndex: vectorIndex,
		txManager:   txManager,
		analysis:    analysis,
		imagesInfra: imagesInfra,
		outboxRepo:  outboxRepo,
		cacheRepo:   cacheRepo,
		logger:      logger,
		cfg:         cfg,
	}
}

// ingestedPayload — тело outbox-события о загруженном товаре.
type ingestedPayload struct {
	ProductID string   `json:"product_id"`
	Tags      []string `json:"tags"`
	ImageKey  string   `json:"image_key,omitempty"`
}

// IngestProduct проводит изображение через полный конвейер:
// анализ -> сохранение изображения -> создание записи товара -> привязка вектора.
// Анализ выполняется до создания записи, поэтому товар создаётся только для
// изображений, принятых сервисом анализа.
func (p *ProductUseCase) IngestProduct(ctx context.Context, req *IngestProductReq) (*IngestProductRes, error) {
	const op = "ProductUseCase.IngestProduct"

	if err := p.validateIngest(req); err != nil {
		return nil, e.Wrap(op, err)
	}

	// Received -> Analyzed
	analysis, err := p.analysis.Analyze(ctx, NewAnalyzeReq(req.Image))
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	// Сохранение изображения в объектное хранилище
	imageRes, err := p.imagesInfra.UploadImage(ctx, NewUploadImageReq(req.Name, req.Image))
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	// Analyzed -> Persisted: запись товара без вектора плюс outbox-событие в одной транзакции
	productID := uuid.NewString()
	product := domain.NewProduct(productID, req.Name, req.Price, imageRes.URL, analysis.Tags)

	err = p.txManager.Do(ctx, func(ctx context.Context) error {
		if _, err := p.productRepo.Create(ctx, product); err != nil {
			return err
		}

		payload, err := json.Marshal(ingestedPayload{
			ProductID: productID,
			Tags:      analysis.Tags,
			ImageKey:  imageRes.Key,
		})
		if err != nil {
			return err
		}

		_, err = p.outboxRepo.Create(ctx, NewOutboxEvent(uuid.NewString(), EventTypeProductIngested, productID, payload))
		return err
	})
	if err != nil {
		// Запись товара не состоялась, изображение осиротело
		p.logger.Warnf("cleaning up orphaned image after failed product create: key: %s, error: %v", imageRes.Key, err)
		p.imagesInfra.CleanupImages([]string{imageRes.Key})
		return nil, e.Wrap(op, err)
	}

	// Persisted -> Indexed
	if err := p.vectorIndex.Attach(ctx, productID, analysis.Vector); err != nil {
		// Товар создан, вектор не привязан: запись остаётся вне поиска до повторной привязки.
		// Откат не выполняется, разрыв фиксируется в outbox для внешнего ремонта.
		p.logger.Errorf(err, "consistency gap: product %s persisted without feature vector", productID)
		p.recordAttachFailure(ctx, productID)
		return nil, e.Wrap(op, fmt.Errorf("%w: %w", e.ErrVectorAttachFailed, err))
	}

	if err := p.cacheRepo.DeleteProducts(ctx, []string{productID}); err != nil {
		p.logger.Warnf("failed to invalidate product cache: %v", e.Wrap(op, err))
	}

	// Indexed -> Complete
	return NewIngestProductRes(productID, analysis.Tags), nil
}

// ReindexProduct повторно привязывает вектор к существующему товару.
// Операция идемпотентна и служит путём восстановления после сбоя второй фазы записи.
func (p *ProductUseCase) ReindexProduct(ctx context.Context, productID string, vector []float32) error {
	const op = "ProductUseCase.ReindexProduct"

	if _, err := p.productRepo.GetByID(ctx, productID); err != nil {
		return e.Wrap(op, err)
	}

	if err := p.vectorIndex.Attach(ctx, productID, vector); err != nil {
		return e.Wrap(op, err)
	}

	if err := p.cacheRepo.DeleteProducts(ctx, []string{productID}); err != nil {
		p.logger.Warnf("failed to invalidate product cache: %v", e.Wrap(op, err))
	}

	return nil
}

// recordAttachFailure фиксирует разрыв консистентности в outbox.
// Неудача записи события не маскирует исходную ошибку привязки.
func (p *ProductUseCase) recordAttachFailure(ctx context.Context, productID string) {
	payload, err := json.Marshal(ingestedPayload{ProductID: productID})
	if err != nil {
		p.logger.Warnf("failed to marshal attach failure payload: %v", err)
		return
	}

	err = p.txManager.Do(ctx, func(ctx context.Context) error {
		_, err := p.outboxRepo.Create(ctx, NewOutboxEvent(uuid.NewString(), EventTypeVectorAttachFailed, productID, payload))
		return err
	})
	if err != nil {
		p.logger.Warnf("failed to record attach failure for product %s: %v", productID, err)
	}
}

// validateIngest проверяет корректность входных данных конвейера.
func (p *ProductUseCase) validateIngest(req *IngestProductReq) error {
	if len(req.Image.Data) == 0 {
		return e.ErrNoImage
	}

	if req.Price < 0 {
		return e.ErrInvalidPrice
	}

	return nil
}
