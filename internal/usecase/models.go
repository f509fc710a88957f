package usecase

import (
	"time"

	"github.com/lookbook-tech/go-backend/internal/domain"
)

// INGEST PIPELINE

// ProductImage представляет изображение, загруженное через multipart/form-data.
type ProductImage struct {
	Data     []byte // байты изображения
	MimeType string // Content-Type из multipart (image/jpeg)
	Size     int64  // фактический размер в байтах
	Name     string // оригинальное имя файла (для логов)
}

// IngestProductReq — запрос на загрузку нового товара.
// Значения Name и Price по умолчанию подставляются на границе HTTP до вызова конвейера.
type IngestProductReq struct {
	Name  string
	Price int64
	Image ProductImage
}

// IngestProductRes — результат загрузки: идентификатор товара и теги от сервиса анализа.
type IngestProductRes struct {
	ProductID string
	Tags      []string
}

// SIMILARITY QUERY ENGINE

// ProductInfo — DTO с информацией о товаре для внешнего использования.
type ProductInfo struct {
	ID       string
	Name     string
	Price    int64
	ImageURL string
	Tags     []string
}

// RecommendRes — справочный товар и его ближайшие соседи по вектору признаков.
type RecommendRes struct {
	Product         ProductInfo
	Recommendations []ProductInfo
}

// SearchByImageReq — запрос поиска по произвольному изображению (товар не создаётся).
type SearchByImageReq struct {
	Image ProductImage
}

// SearchRes — ближайшие товары к вектору переданного изображения.
type SearchRes struct {
	Matches []ProductInfo
}

// INFRASTRUCTURE

// AnalyzeReq — запрос на анализ изображения внешним сервисом.
type AnalyzeReq struct {
	Image ProductImage
}

// AnalyzeRes — вектор признаков и предложенные теги для одного изображения.
type AnalyzeRes struct {
	Vector []float32
	Tags   []string
}

// UploadImageReq — запрос на сохранение изображения товара в объектное хранилище.
type UploadImageReq struct {
	ProductName string
	Image       ProductImage
}

// UploadImageRes — ключ объекта и публичный URL сохранённого изображения.
type UploadImageRes struct {
	Key string
	URL string
}

type WriteRawMessageReq struct {
	ProductID string
	Payload   []byte
}

// OUTBOX

type OutboxStatus string

const (
	Pending    OutboxStatus = "pending"
	Processing OutboxStatus = "processing"
	Processed  OutboxStatus = "processed"
	Failed     OutboxStatus = "failed"
)

type OutboxEventType string

const (
	// EventTypeProductIngested публикуется после успешной привязки вектора.
	EventTypeProductIngested OutboxEventType = "product.ingested"
	// EventTypeVectorAttachFailed фиксирует товар, оставшийся без вектора
	// после сбоя второй фазы записи. Требует внешнего ремонта или повторной привязки.
	EventTypeVectorAttachFailed OutboxEventType = "product.vector_attach_failed"
)

type OutboxEvent struct {
	ID          int64
	EventID     string
	EventType   OutboxEventType
	ProductID   string
	Payload     []byte
	Status      OutboxStatus
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

// MAPPERS

func NewIngestProductReq(name string, price int64, image ProductImage) *IngestProductReq {
	return &IngestProductReq{
		Name:  name,
		Price: price,
		Image: image,
	}
}

func NewIngestProductRes(productID string, tags []string) *IngestProductRes {
	return &IngestProductRes{
		ProductID: productID,
		Tags:      tags,
	}
}

func NewProductImage(data []byte, mimeType string, size int64, name string) *ProductImage {
	return &ProductImage{
		Data:     data,
		MimeType: mimeType,
		Size:     size,
		Name:     name,
	}
}

func NewProductInfo(product *domain.Product) ProductInfo {
	return ProductInfo{
		ID:       product.ID,
		Name:     product.Name,
		Price:    product.Price,
		ImageURL: product.ImageURL,
		Tags:     product.Tags,
	}
}

func NewRecommendRes(product ProductInfo, recommendations []ProductInfo) *RecommendRes {
	return &RecommendRes{
		Product:         product,
		Recommendations: recommendations,
	}
}

func NewSearchByImageReq(image ProductImage) *SearchByImageReq {
	return &SearchByImageReq{Image: image}
}

func NewSearchRes(matches []ProductInfo) *SearchRes {
	return &SearchRes{Matches: matches}
}

func NewAnalyzeReq(image ProductImage) *AnalyzeReq {
	return &AnalyzeReq{Image: image}
}

func NewAnalyzeRes(vector []float32, tags []string) *AnalyzeRes {
	return &AnalyzeRes{
		Vector: vector,
		Tags:   tags,
	}
}

func NewUploadImageReq(productName string, image ProductImage) *UploadImageReq {
	return &UploadImageReq{
		ProductName: productName,
		Image:       image,
	}
}

func NewUploadImageRes(key string, url string) *UploadImageRes {
	return &UploadImageRes{
		Key: key,
		URL: url,
	}
}

func NewWriteRawMessageReq(productID string, payload []byte) *WriteRawMessageReq {
	return &WriteRawMessageReq{
		ProductID: productID,
		Payload:   payload,
	}
}

func NewOutboxEvent(eventID string, eventType OutboxEventType, productID string, payload []byte) *OutboxEvent {
	return &OutboxEvent{
		EventID:   eventID,
		EventType: eventType,
		ProductID: productID,
		Payload:   payload,
		Status:    Pending,
		CreatedAt: time.Now().UTC(),
	}
}

func toProductInfos(products []domain.Product) []ProductInfo {
	infos := make([]ProductInfo, 0, len(products))
	for i := range products {
		infos = append(infos, NewProductInfo(&products[i]))
	}
	return infos
}
