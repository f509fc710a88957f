package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lookbook-tech/go-backend/internal/cfg"
	"github.com/lookbook-tech/go-backend/pkg/e"
	"github.com/lookbook-tech/go-backend/pkg/logger"
)

type ucFixture struct {
	uc       *ProductUseCase
	repo     *fakeProductRepo
	index    *fakeVectorIndex
	analysis *fakeAnalysis
	images   *fakeImages
	outbox   *fakeOutbox
	cache    *fakeCache
}

func newUCFixture() *ucFixture {
	repo := newFakeProductRepo()
	index := newFakeVectorIndex(repo)
	analysis := newFakeAnalysis()
	images := newFakeImages()
	outbox := newFakeOutbox()
	cache := newFakeCache()

	uc := NewProductUC(
		repo,
		index,
		fakeTxManager{},
		analysis,
		images,
		outbox,
		cache,
		logger.NewNoop(),
		&cfg.SearchCfg{
			Limit:        4,
			VectorSize:   3,
			DefaultName:  "Test Item",
			DefaultPrice: "29.99",
		},
	)

	return &ucFixture{
		uc:       uc,
		repo:     repo,
		index:    index,
		analysis: analysis,
		images:   images,
		outbox:   outbox,
		cache:    cache,
	}
}

func image(content string) ProductImage {
	return *NewProductImage([]byte(content), "image/jpeg", int64(len(content)), content+".jpg")
}

func TestIngestProduct(t *testing.T) {
	t.Parallel()

	f := newUCFixture()
	f.analysis.on([]byte("red-shoe"), []float32{1, 0, 0}, []string{"shoe", "red"})

	res, err := f.uc.IngestProduct(context.Background(), NewIngestProductReq("Red Sneaker", 2999, image("red-shoe")))
	require.NoError(t, err)
	require.NotEmpty(t, res.ProductID)
	assert.Equal(t, []string{"shoe", "red"}, res.Tags)

	// Запись содержит метаданные и вектор
	product, err := f.repo.GetByID(context.Background(), res.ProductID)
	require.NoError(t, err)
	assert.Equal(t, "Red Sneaker", product.Name)
	assert.Equal(t, int64(2999), product.Price)
	assert.Equal(t, []string{"shoe", "red"}, product.Tags)
	assert.Equal(t, []float32{1, 0, 0}, product.FeatureVector)
	assert.NotEmpty(t, product.ImageURL)

	// Одно событие о загрузке с идентификатором товара в теле
	events := f.outbox.byType(EventTypeProductIngested)
	require.Len(t, events, 1)
	assert.Equal(t, res.ProductID, events[0].ProductID)

	var payload struct {
		ProductID string   `json:"product_id"`
		Tags      []string `json:"tags"`
	}
	require.NoError(t, json.Unmarshal(events[0].Payload, &payload))
	assert.Equal(t, res.ProductID, payload.ProductID)
	assert.Equal(t, []string{"shoe", "red"}, payload.Tags)
}

func TestIngestProduct_Validation(t *testing.T) {
	t.Parallel()

	f := newUCFixture()

	_, err := f.uc.IngestProduct(context.Background(), NewIngestProductReq("Item", 100, ProductImage{}))
	require.ErrorIs(t, err, e.ErrNoImage)
	assert.Zero(t, f.analysis.calls, "analysis must not be called for empty image")

	_, err = f.uc.IngestProduct(context.Background(), NewIngestProductReq("Item", -1, image("x")))
	require.ErrorIs(t, err, e.ErrInvalidPrice)
}

func TestIngestProduct_AnalysisRejected(t *testing.T) {
	t.Parallel()

	f := newUCFixture()
	// fakeAnalysis отклоняет незнакомое изображение

	_, err := f.uc.IngestProduct(context.Background(), NewIngestProductReq("Item", 100, image("unknown")))
	require.ErrorIs(t, err, e.ErrAnalysisRejected)

	// Товар не создан, изображение не загружено
	assert.Empty(t, f.repo.products)
	assert.Empty(t, f.images.uploaded)
}

func TestIngestProduct_CreateFailureCleansUpImage(t *testing.T) {
	t.Parallel()

	f := newUCFixture()
	f.analysis.on([]byte("red-shoe"), []float32{1, 0, 0}, nil)
	f.repo.createErr = e.ErrStoreUnavailable

	_, err := f.uc.IngestProduct(context.Background(), NewIngestProductReq("Item", 100, image("red-shoe")))
	require.ErrorIs(t, err, e.ErrStoreUnavailable)

	// Осиротевшее изображение удалено
	require.Len(t, f.images.uploaded, 1)
	assert.Equal(t, f.images.uploaded, f.images.cleaned)
	assert.Empty(t, f.outbox.events)
}

func TestIngestProduct_AttachFailureLeavesProductRetrievable(t *testing.T) {
	t.Parallel()

	f := newUCFixture()
	f.analysis.on([]byte("red-shoe"), []float32{1, 0, 0}, []string{"shoe"})
	f.index.attachErr = errors.New("index write timeout")

	_, err := f.uc.IngestProduct(context.Background(), NewIngestProductReq("Gap Item", 100, image("red-shoe")))
	require.ErrorIs(t, err, e.ErrVectorAttachFailed)

	// Товар существует без вектора и доступен по id
	require.Len(t, f.repo.products, 1)
	var productID string
	for id := range f.repo.products {
		productID = id
	}

	product, err := f.repo.GetByID(context.Background(), productID)
	require.NoError(t, err)
	assert.Nil(t, product.FeatureVector)
	assert.False(t, product.Indexed())

	// Разрыв зафиксирован в outbox
	gaps := f.outbox.byType(EventTypeVectorAttachFailed)
	require.Len(t, gaps, 1)
	assert.Equal(t, productID, gaps[0].ProductID)

	// Recommend по товару без вектора сообщает об отсутствии вектора
	_, err = f.uc.Recommend(context.Background(), productID)
	require.ErrorIs(t, err, e.ErrVectorMissing)

	// Повторная привязка чинит запись
	f.index.attachErr = nil
	require.NoError(t, f.uc.ReindexProduct(context.Background(), productID, []float32{1, 0, 0}))

	product, err = f.repo.GetByID(context.Background(), productID)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0, 0}, product.FeatureVector)
	assert.True(t, product.Indexed())
}

func TestReindexProduct_UnknownProduct(t *testing.T) {
	t.Parallel()

	f := newUCFixture()

	err := f.uc.ReindexProduct(context.Background(), "missing-id", []float32{1, 0, 0})
	require.ErrorIs(t, err, e.ErrProductNotFound)
}

func TestReindexProduct_Idempotent(t *testing.T) {
	t.Parallel()

	f := newUCFixture()
	f.analysis.on([]byte("red-shoe"), []float32{1, 0, 0}, nil)

	res, err := f.uc.IngestProduct(context.Background(), NewIngestProductReq("Item", 100, image("red-shoe")))
	require.NoError(t, err)

	// Повторная привязка того же вектора не меняет наблюдаемое состояние
	require.NoError(t, f.uc.ReindexProduct(context.Background(), res.ProductID, []float32{1, 0, 0}))

	product, err := f.repo.GetByID(context.Background(), res.ProductID)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0, 0}, product.FeatureVector)
}
