package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lookbook-tech/go-backend/pkg/e"
)

// seedCatalog загружает три товара с известными векторами:
// A=[1,0,0], B=[0.9,0.1,0] (почти A), C=[-1,0,0] (противоположный A).
func seedCatalog(t *testing.T, f *ucFixture) (idA, idB, idC string) {
	t.Helper()

	f.analysis.on([]byte("product-a"), []float32{1, 0, 0}, []string{"shoe", "red"})
	f.analysis.on([]byte("product-b"), []float32{0.9, 0.1, 0}, []string{"shoe"})
	f.analysis.on([]byte("product-c"), []float32{-1, 0, 0}, []string{"bag"})

	resA, err := f.uc.IngestProduct(context.Background(), NewIngestProductReq("A", 100, image("product-a")))
	require.NoError(t, err)
	resB, err := f.uc.IngestProduct(context.Background(), NewIngestProductReq("B", 200, image("product-b")))
	require.NoError(t, err)
	resC, err := f.uc.IngestProduct(context.Background(), NewIngestProductReq("C", 300, image("product-c")))
	require.NoError(t, err)

	return resA.ProductID, resB.ProductID, resC.ProductID
}

func TestRecommend(t *testing.T) {
	t.Parallel()

	f := newUCFixture()
	idA, idB, idC := seedCatalog(t, f)

	res, err := f.uc.Recommend(context.Background(), idA)
	require.NoError(t, err)

	assert.Equal(t, idA, res.Product.ID)
	assert.Equal(t, "A", res.Product.Name)

	// Соседи упорядочены по близости, сам товар исключён
	require.Len(t, res.Recommendations, 2)
	assert.Equal(t, idB, res.Recommendations[0].ID)
	assert.Equal(t, idC, res.Recommendations[1].ID)
	for _, rec := range res.Recommendations {
		assert.NotEqual(t, idA, rec.ID)
	}
}

func TestRecommend_UnknownProduct(t *testing.T) {
	t.Parallel()

	f := newUCFixture()
	seedCatalog(t, f)

	_, err := f.uc.Recommend(context.Background(), "no-such-id")
	require.ErrorIs(t, err, e.ErrProductNotFound)
}

func TestRecommend_RespectsLimit(t *testing.T) {
	t.Parallel()

	f := newUCFixture()
	f.uc.cfg.Limit = 1
	idA, idB, _ := seedCatalog(t, f)

	res, err := f.uc.Recommend(context.Background(), idA)
	require.NoError(t, err)
	require.Len(t, res.Recommendations, 1)
	assert.Equal(t, idB, res.Recommendations[0].ID)
}

func TestRecommend_SingleProductCatalog(t *testing.T) {
	t.Parallel()

	f := newUCFixture()
	f.analysis.on([]byte("solo"), []float32{0, 1, 0}, nil)

	res, err := f.uc.IngestProduct(context.Background(), NewIngestProductReq("Solo", 100, image("solo")))
	require.NoError(t, err)

	rec, err := f.uc.Recommend(context.Background(), res.ProductID)
	require.NoError(t, err)
	assert.Empty(t, rec.Recommendations)
}

func TestSearchByImage(t *testing.T) {
	t.Parallel()

	f := newUCFixture()
	idA, _, _ := seedCatalog(t, f)
	productCount := len(f.repo.products)

	// Изображение, байт в байт совпадающее с изображением товара A
	res, err := f.uc.SearchByImage(context.Background(), NewSearchByImageReq(image("product-a")))
	require.NoError(t, err)

	require.NotEmpty(t, res.Matches)
	assert.Equal(t, idA, res.Matches[0].ID, "identical image must rank its product first")

	// Поиск не создаёт запись товара
	assert.Len(t, f.repo.products, productCount)
}

func TestSearchByImage_NoImage(t *testing.T) {
	t.Parallel()

	f := newUCFixture()

	_, err := f.uc.SearchByImage(context.Background(), NewSearchByImageReq(ProductImage{}))
	require.ErrorIs(t, err, e.ErrNoImage)
	assert.Zero(t, f.analysis.calls)
}

func TestSearchByImage_AnalysisUnavailable(t *testing.T) {
	t.Parallel()

	f := newUCFixture()
	seedCatalog(t, f)
	f.analysis.err = e.ErrAnalysisUnavailable

	_, err := f.uc.SearchByImage(context.Background(), NewSearchByImageReq(image("product-a")))
	require.ErrorIs(t, err, e.ErrAnalysisUnavailable)
}

func TestRecommend_PrefersCachedReference(t *testing.T) {
	t.Parallel()

	f := newUCFixture()
	idA, _, _ := seedCatalog(t, f)

	// Кэш содержит карточку с отличающимся именем: ответ должен взять её,
	// не обращаясь к основному хранилищу
	require.NoError(t, f.cache.SetProducts(context.Background(), []ProductInfo{
		{ID: idA, Name: "A (cached)", Price: 100},
	}))

	res, err := f.uc.Recommend(context.Background(), idA)
	require.NoError(t, err)
	assert.Equal(t, "A (cached)", res.Product.Name)
}
