package http

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/jimlawless/whereami"
	"github.com/shopspring/decimal"

	"github.com/lookbook-tech/go-backend/internal/cfg"
	"github.com/lookbook-tech/go-backend/internal/usecase"
	"github.com/lookbook-tech/go-backend/pkg/e"
)

// ErrorResponse — единый формат тела ошибки.
// Kind позволяет клиенту различать категории без разбора текста сообщения.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// ProductView — представление товара в ответах API.
// Цена отдаётся в основных единицах валюты, как принималась на входе.
type ProductView struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Price    float64  `json:"price"`
	ImageURL string   `json:"imageUrl"`
	Tags     []string `json:"tags"`
}

func NewErrorResponse(code int, kind, message string) *ErrorResponse {
	return &ErrorResponse{
		Code:    code,
		Kind:    kind,
		Message: message,
	}
}

func NewProductView(info usecase.ProductInfo) ProductView {
	tags := info.Tags
	if tags == nil {
		tags = []string{}
	}
	return ProductView{
		ID:       info.ID,
		Name:     info.Name,
		Price:    float64(info.Price) / 100,
		ImageURL: info.ImageURL,
		Tags:     tags,
	}
}

func newProductViews(infos []usecase.ProductInfo) []ProductView {
	views := make([]ProductView, 0, len(infos))
	for _, info := range infos {
		views = append(views, NewProductView(info))
	}
	return views
}

// ToHTTPResponse переводит ошибку конвейера в статус и категорию HTTP-ответа.
func ToHTTPResponse(err error) (int, string, string) {
	switch {
	case errors.Is(err, e.ErrExpectedMultipart):
		return http.StatusBadRequest, "validation", e.ErrExpectedMultipart.Error()
	case errors.Is(err, e.ErrNoImage):
		return http.StatusBadRequest, "validation", e.ErrNoImage.Error()
	case errors.Is(err, e.ErrInvalidPrice):
		return http.StatusBadRequest, "validation", e.ErrInvalidPrice.Error()
	case errors.Is(err, e.ErrPricePrecision):
		return http.StatusBadRequest, "validation", e.ErrPricePrecision.Error()
	case errors.Is(err, e.ErrFileTooLarge):
		return http.StatusBadRequest, "validation", e.ErrFileTooLarge.Error()
	case errors.Is(err, e.ErrUnsupportedMediaType):
		return http.StatusBadRequest, "validation", e.ErrUnsupportedMediaType.Error()
	case errors.Is(err, e.ErrProductNotFound):
		return http.StatusNotFound, "not_found", e.ErrProductNotFound.Error()
	case errors.Is(err, e.ErrVectorMissing):
		return http.StatusNotFound, "not_found", e.ErrVectorMissing.Error()
	case errors.Is(err, e.ErrAnalysisRejected):
		return http.StatusUnprocessableEntity, "analysis_rejected", e.ErrAnalysisRejected.Error()
	case errors.Is(err, e.ErrAnalysisUnavailable):
		return http.StatusBadGateway, "analysis_unavailable", e.ErrAnalysisUnavailable.Error()
	case errors.Is(err, e.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, "store_unavailable", e.ErrStoreUnavailable.Error()
	case errors.Is(err, e.ErrVectorAttachFailed):
		return http.StatusInternalServerError, "consistency_gap", e.ErrVectorAttachFailed.Error()
	default:
		return http.StatusInternalServerError, "internal", e.ErrInternalServerError.Error()
	}
}

func WriteError(w http.ResponseWriter, err error) {
	code, kind, msg := ToHTTPResponse(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(NewErrorResponse(code, kind, msg))
}

func WriteSuccess(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// parsePriceToCents переводит строку вида "29.99" или "30" в минорные единицы.
func parsePriceToCents(s string) (int64, error) {
	if strings.TrimSpace(s) == "" {
		return 0, e.ErrInvalidPrice
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, e.ErrInvalidPrice
	}

	if d.LessThan(decimal.Zero) {
		return 0, e.ErrInvalidPrice
	}

	// Верхняя граница страхует от переполнения при умножении на 100
	maxPrice := decimal.NewFromInt(1_000_000_000)
	if d.GreaterThan(maxPrice) {
		return 0, e.ErrInvalidPrice
	}

	if d.Exponent() < -2 {
		return 0, e.ErrPricePrecision
	}

	return d.Mul(decimal.NewFromInt(100)).Round(0).IntPart(), nil
}

// parseUploadForm читает поля формы загрузки товара, подставляя значения
// по умолчанию для отсутствующих name и price.
func parseUploadForm(r *http.Request, search *cfg.SearchCfg) (string, int64, error) {
	name := r.FormValue("name")
	if name == "" {
		name = search.DefaultName
	}

	priceStr := r.FormValue("price")
	if priceStr == "" {
		priceStr = search.DefaultPrice
	}

	priceCents, err := parsePriceToCents(priceStr)
	if err != nil {
		return "", 0, err
	}

	return name, priceCents, nil
}

func ensureMultipartForm(r *http.Request, maxMemory int64) error {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return e.Wrap(whereami.WhereAmI(), e.ErrExpectedMultipart)
	}
	return r.ParseMultipartForm(maxMemory)
}

// parseImage читает единственный файл из поля image.
func parseImage(files []*multipart.FileHeader) (*usecase.ProductImage, error) {
	const maxFileSize = 15 << 20

	if len(files) == 0 {
		return nil, e.ErrNoImage
	}

	fh := files[0]
	data, mimeType, err := readFile(fh, maxFileSize)
	if err != nil {
		return nil, err
	}

	if !strings.HasPrefix(mimeType, "image/") {
		return nil, e.Wrap(mimeType, e.ErrUnsupportedMediaType)
	}

	return usecase.NewProductImage(data, mimeType, int64(len(data)), fh.Filename), nil
}

func readFile(fh *multipart.FileHeader, maxSize int64) ([]byte, string, error) {
	src, err := fh.Open()
	if err != nil {
		return nil, "", e.ErrInternalServerError
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, "", e.ErrInternalServerError
	}
	if int64(len(data)) > maxSize {
		return nil, "", e.Wrap(fh.Filename, e.ErrFileTooLarge)
	}
	if len(data) == 0 {
		return nil, "", e.ErrNoImage
	}

	mimeType := http.DetectContentType(data[:min(len(data), 512)])
	return data, mimeType, nil
}
