package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lookbook-tech/go-backend/internal/cfg"
	"github.com/lookbook-tech/go-backend/internal/usecase"
	"github.com/lookbook-tech/go-backend/pkg/e"
	"github.com/lookbook-tech/go-backend/pkg/logger"
)

type ProductHandler struct {
	productUsecase usecase.ProductUC
	searchCfg      *cfg.SearchCfg
	logger         logger.Logger
}

func NewProductHandler(productUsecase usecase.ProductUC, searchCfg *cfg.SearchCfg, logger logger.Logger) *ProductHandler {
	return &ProductHandler{
		productUsecase: productUsecase,
		searchCfg:      searchCfg,
		logger:         logger,
	}
}

// uploadProduct
//
//	@Summary		Загрузка нового товара
//	@Description	Принимает изображение товара, извлекает вектор признаков и создает запись в каталоге
//	@Tags			products
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			image	formData	file					true	"Изображение товара"
//	@Param			name	formData	string					false	"Название товара"
//	@Param			price	formData	number					false	"Цена"
//	@Success		200		{object}	map[string]interface{}	"Товар создан"
//	@Failure		400		{object}	ErrorResponse			"Ошибка валидации"
//	@Failure		422		{object}	ErrorResponse			"Изображение отклонено сервисом анализа"
//	@Failure		502		{object}	ErrorResponse			"Сервис анализа недоступен"
//	@Router			/upload [post]
func (p *ProductHandler) uploadProduct(w http.ResponseWriter, r *http.Request) {
	const (
		maxTotalRequestSize = 20 << 20
		maxMemory           = 16 << 20
	)

	r.Body = http.MaxBytesReader(w, r.Body, maxTotalRequestSize)

	if err := ensureMultipartForm(r, maxMemory); err != nil {
		p.logger.Warnf("%d upload: %s", http.StatusBadRequest, r.Header.Get("Content-Type"))
		WriteError(w, e.ErrExpectedMultipart)
		return
	}

	name, priceCents, err := parseUploadForm(r, p.searchCfg)
	if err != nil {
		p.logger.Warnf("%d upload: %s", http.StatusBadRequest, err.Error())
		WriteError(w, err)
		return
	}

	image, err := parseImage(r.MultipartForm.File["image"])
	if err != nil {
		p.logger.Warnf("%d upload: %s", http.StatusBadRequest, err.Error())
		WriteError(w, err)
		return
	}

	res, err := p.productUsecase.IngestProduct(r.Context(), usecase.NewIngestProductReq(name, priceCents, *image))
	if err != nil {
		p.logger.Warnf("upload: %s", err.Error())
		WriteError(w, err)
		return
	}

	tags := res.Tags
	if tags == nil {
		tags = []string{}
	}
	WriteSuccess(w, http.StatusOK, map[string]interface{}{
		"message":   "Product uploaded successfully",
		"productId": res.ProductID,
		"tags":      tags,
	})
}

// recommendProducts
//
//	@Summary		Похожие товары
//	@Description	Возвращает товар и его ближайших соседей по вектору признаков
//	@Tags			products
//	@Produce		json
//	@Param			id	path		string					true	"Идентификатор товара"
//	@Success		200	{object}	map[string]interface{}	"Товар и рекомендации"
//	@Failure		404	{object}	ErrorResponse			"Товар не найден"
//	@Router			/recommend/{id} [get]
func (p *ProductHandler) recommendProducts(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "id")
	if productID == "" {
		WriteError(w, e.ErrProductNotFound)
		return
	}

	res, err := p.productUsecase.Recommend(r.Context(), productID)
	if err != nil {
		p.logger.Warnf("recommend %s: %s", productID, err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, map[string]interface{}{
		"product":         NewProductView(res.Product),
		"recommendations": newProductViews(res.Recommendations),
	})
}

// searchByImage
//
//	@Summary		Поиск по изображению
//	@Description	Ищет ближайшие товары к вектору переданного изображения, не создавая запись
//	@Tags			products
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			image	formData	file					true	"Изображение-запрос"
//	@Success		200		{object}	map[string]interface{}	"Найденные товары"
//	@Failure		400		{object}	ErrorResponse			"Изображение не передано"
//	@Router			/search [post]
func (p *ProductHandler) searchByImage(w http.ResponseWriter, r *http.Request) {
	const (
		maxTotalRequestSize = 20 << 20
		maxMemory           = 16 << 20
	)

	r.Body = http.MaxBytesReader(w, r.Body, maxTotalRequestSize)

	if err := ensureMultipartForm(r, maxMemory); err != nil {
		p.logger.Warnf("%d search: %s", http.StatusBadRequest, r.Header.Get("Content-Type"))
		WriteError(w, e.ErrExpectedMultipart)
		return
	}

	image, err := parseImage(r.MultipartForm.File["image"])
	if err != nil {
		p.logger.Warnf("%d search: %s", http.StatusBadRequest, err.Error())
		WriteError(w, err)
		return
	}

	res, err := p.productUsecase.SearchByImage(r.Context(), usecase.NewSearchByImageReq(*image))
	if err != nil {
		p.logger.Warnf("search: %s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, map[string]interface{}{
		"matches": newProductViews(res.Matches),
	})
}
