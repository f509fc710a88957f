package http

import (
	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "github.com/lookbook-tech/go-backend/docs" // Импорт сгенерированных файлов
	"github.com/lookbook-tech/go-backend/internal/cfg"
	"github.com/lookbook-tech/go-backend/internal/usecase"
	"github.com/lookbook-tech/go-backend/pkg/logger"
)

type Router struct {
	router    *chi.Mux
	searchCfg *cfg.SearchCfg
	logger    logger.Logger
}

func NewRouter(router *chi.Mux, searchCfg *cfg.SearchCfg, logger logger.Logger) *Router {
	return &Router{router: router, searchCfg: searchCfg, logger: logger}
}

// Init регистрирует маршруты. Эндпоинты намеренно живут в корне,
// без префикса версии: так их ожидают существующие клиенты.
func (r *Router) Init(prUC usecase.ProductUC) {
	r.router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	prHandler := NewProductHandler(prUC, r.searchCfg, r.logger)
	registerProductRoutes(r.router, prHandler)
}

func registerProductRoutes(router chi.Router, prHandler *ProductHandler) {
	router.Post("/upload", prHandler.uploadProduct)
	router.Get("/recommend/{id}", prHandler.recommendProducts)
	router.Post("/search", prHandler.searchByImage)
}
