package main

import (
	"os"

	"github.com/lookbook-tech/go-backend/internal/app"
	config "github.com/lookbook-tech/go-backend/internal/cfg"
	"github.com/lookbook-tech/go-backend/pkg/logger"
)

//	@title			Lookbook Catalog API
//	@version		1.0
//	@description	Каталог товаров с поиском по визуальному сходству

func main() {
	log := logger.NewSlogLogger()

	cfg, err := config.Load(log)
	if err != nil {
		log.Errorf(err, "failed to load config")
		os.Exit(1)
	}

	application, err := app.NewApp(cfg, log)
	if err != nil {
		log.Errorf(err, "failed to initialize app")
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		os.Exit(1)
	}
}
