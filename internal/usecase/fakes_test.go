package usecase

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/lookbook-tech/go-backend/internal/domain"
	"github.com/lookbook-tech/go-backend/pkg/e"
)

// fakeProductRepo хранит товары в памяти.
type fakeProductRepo struct {
	mu       sync.Mutex
	products map[string]*domain.Product

	createErr error
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: make(map[string]*domain.Product)}
}

func (f *fakeProductRepo) Create(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.createErr != nil {
		return nil, f.createErr
	}

	cp := *product
	f.products[product.ID] = &cp
	return &cp, nil
}

func (f *fakeProductRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	product, ok := f.products[id]
	if !ok {
		return nil, e.ErrProductNotFound
	}

	cp := *product
	return &cp, nil
}

func (f *fakeProductRepo) GetByIDs(ctx context.Context, ids []string) ([]domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	result := make([]domain.Product, 0, len(ids))
	for _, id := range ids {
		if product, ok := f.products[id]; ok {
			result = append(result, *product)
		}
	}
	return result, nil
}

// fakeVectorIndex — векторный индекс с перебором по косинусному расстоянию.
type fakeVectorIndex struct {
	mu      sync.Mutex
	repo    *fakeProductRepo
	vectors map[string][]float32

	attachErr   error
	attachCalls int
}

func newFakeVectorIndex(repo *fakeProductRepo) *fakeVectorIndex {
	return &fakeVectorIndex{repo: repo, vectors: make(map[string][]float32)}
}

func (f *fakeVectorIndex) Attach(ctx context.Context, productID string, vector []float32) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.attachCalls++
	if f.attachErr != nil {
		return f.attachErr
	}

	if _, ok := f.repo.products[productID]; !ok {
		return e.ErrProductNotFound
	}

	cp := make([]float32, len(vector))
	copy(cp, vector)
	f.vectors[productID] = cp
	f.repo.products[productID].FeatureVector = cp
	return nil
}

func (f *fakeVectorIndex) VectorOf(ctx context.Context, productID string) ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.repo.products[productID]; !ok {
		return nil, e.ErrProductNotFound
	}

	vector, ok := f.vectors[productID]
	if !ok {
		return nil, e.ErrVectorMissing
	}
	return vector, nil
}

func (f *fakeVectorIndex) KNearest(ctx context.Context, ref []float32, excludeID string, limit int) ([]domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	type scored struct {
		id   string
		dist float64
	}

	var candidates []scored
	for id, vector := range f.vectors {
		if id == excludeID {
			continue
		}
		candidates = append(candidates, scored{id: id, dist: cosineDistance(ref, vector)})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].dist != candidates[j].dist {
			return candidates[i].dist < candidates[j].dist
		}
		return candidates[i].id < candidates[j].id
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	result := make([]domain.Product, 0, len(candidates))
	for _, c := range candidates {
		result = append(result, *f.repo.products[c.id])
	}
	return result, nil
}

func cosineDistance(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}

// fakeAnalysis возвращает вектор и теги по содержимому изображения.
type fakeAnalysis struct {
	responses map[string]*AnalyzeRes
	err       error
	calls     int
}

func newFakeAnalysis() *fakeAnalysis {
	return &fakeAnalysis{responses: make(map[string]*AnalyzeRes)}
}

func (f *fakeAnalysis) on(image []byte, vector []float32, tags []string) {
	f.responses[string(image)] = NewAnalyzeRes(vector, tags)
}

func (f *fakeAnalysis) Analyze(ctx context.Context, req *AnalyzeReq) (*AnalyzeRes, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}

	res, ok := f.responses[string(req.Image.Data)]
	if !ok {
		return nil, e.ErrAnalysisRejected
	}
	return res, nil
}

// fakeImages сохраняет ключи загруженных и удалённых изображений.
type fakeImages struct {
	mu       sync.Mutex
	seq      int
	uploaded []string
	cleaned  []string

	uploadErr error
}

func newFakeImages() *fakeImages {
	return &fakeImages{}
}

func (f *fakeImages) UploadImage(ctx context.Context, req *UploadImageReq) (*UploadImageRes, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.uploadErr != nil {
		return nil, f.uploadErr
	}

	f.seq++
	key := fmt.Sprintf("products/img-%d.jpg", f.seq)
	f.uploaded = append(f.uploaded, key)
	return NewUploadImageRes(key, "http://storage.local/products-bucket/"+key), nil
}

func (f *fakeImages) CleanupImages(keys []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleaned = append(f.cleaned, keys...)
}

func (f *fakeImages) WaitForCleanup(ctx context.Context) error { return nil }

// fakeTxManager выполняет fn напрямую, без настоящей транзакции.
type fakeTxManager struct{}

func (fakeTxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// fakeOutbox собирает созданные события.
type fakeOutbox struct {
	mu     sync.Mutex
	seq    int64
	events []*OutboxEvent

	createErr error
}

func newFakeOutbox() *fakeOutbox {
	return &fakeOutbox{}
}

func (f *fakeOutbox) Create(ctx context.Context, event *OutboxEvent) (*OutboxEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.createErr != nil {
		return nil, f.createErr
	}

	f.seq++
	cp := *event
	cp.ID = f.seq
	f.events = append(f.events, &cp)
	return &cp, nil
}

func (f *fakeOutbox) GetAndMarkAsProcessing(ctx context.Context, limit int) ([]*OutboxEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var result []*OutboxEvent
	for _, event := range f.events {
		if event.Status == Pending && len(result) < limit {
			event.Status = Processing
			result = append(result, event)
		}
	}
	return result, nil
}

func (f *fakeOutbox) MarkAsProcessed(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, event := range f.events {
		if event.ID == id {
			event.Status = Processed
		}
	}
	return nil
}

func (f *fakeOutbox) MarkAsFailed(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, event := range f.events {
		if event.ID == id {
			event.Status = Failed
		}
	}
	return nil
}

func (f *fakeOutbox) byType(eventType OutboxEventType) []*OutboxEvent {
	f.mu.Lock()
	defer f.mu.Unlock()

	var result []*OutboxEvent
	for _, event := range f.events {
		if event.EventType == eventType {
			result = append(result, event)
		}
	}
	return result
}

// fakeCache — кэш товаров в памяти.
type fakeCache struct {
	mu      sync.Mutex
	entries map[string]ProductInfo
	deleted []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]ProductInfo)}
}

func (f *fakeCache) GetProducts(ctx context.Context, ids []string) (map[string]ProductInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	result := make(map[string]ProductInfo)
	for _, id := range ids {
		if info, ok := f.entries[id]; ok {
			result[id] = info
		}
	}
	return result, nil
}

func (f *fakeCache) SetProducts(ctx context.Context, products []ProductInfo) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, info := range products {
		f.entries[info.ID] = info
	}
	return nil
}

func (f *fakeCache) DeleteProducts(ctx context.Context, ids []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, id := range ids {
		delete(f.entries, id)
		f.deleted = append(f.deleted, id)
	}
	return nil
}
