package minio

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lookbook-tech/go-backend/internal/cfg"
	"github.com/lookbook-tech/go-backend/internal/domain"
	"github.com/lookbook-tech/go-backend/internal/infrastructure"
	"github.com/lookbook-tech/go-backend/internal/usecase"
	"github.com/lookbook-tech/go-backend/pkg/e"
	"github.com/lookbook-tech/go-backend/pkg/logger"
)

// MinioInfrastructure управляет сохранением и очисткой изображений товаров в MinIO
// и строит публичные URL, которые попадают в imageUrl товара.
type MinioInfrastructure struct {
	minioRepo usecase.ImageRepository
	cfg       *cfg.MinIOCfg
	logger    logger.Logger
	wg        sync.WaitGroup
}

func NewMinioInfrastructure(minioRepo usecase.ImageRepository, cfg *cfg.MinIOCfg, logger logger.Logger) *MinioInfrastructure {
	return &MinioInfrastructure{
		minioRepo: minioRepo,
		cfg:       cfg,
		logger:    logger,
	}
}

// UploadImage сохраняет изображение товара и возвращает ключ объекта
// вместе с публичным URL. Ключ уникален для каждой загрузки.
func (m *MinioInfrastructure) UploadImage(ctx context.Context, req *usecase.UploadImageReq) (*usecase.UploadImageRes, error) {
	const op = "MinioInfrastructure.UploadImage"

	ext, err := infrastructure.GetExtensionFromMIME(req.Image.MimeType)
	if err != nil {
		return nil, e.Wrap(op, fmt.Errorf("invalid mime type %s for %s: %w", req.Image.MimeType, req.Image.Name, err))
	}

	imageID := uuid.NewString()
	objKey := fmt.Sprintf("products/%s-%s.%s", sanitizeName(req.ProductName), imageID, ext)
	image := domain.NewImage(imageID, m.cfg.BucketName, objKey, req.Image.Data, &req.Image.Size, &req.Image.MimeType)

	key, err := m.minioRepo.Upload(ctx, image)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return usecase.NewUploadImageRes(key, m.publicURL(key)), nil
}

// CleanupImages асинхронно удаляет осиротевшие объекты после сбоя конвейера.
func (m *MinioInfrastructure) CleanupImages(keys []string) {
	if len(keys) == 0 {
		return
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		for _, key := range keys {
			if err := m.minioRepo.Delete(ctx, key); err != nil {
				m.logger.Warnf("failed to cleanup orphaned image %s: %v", key, err)
			}
		}
	}()
}

// WaitForCleanup дожидается завершения фоновых удалений (используется при shutdown).
func (m *MinioInfrastructure) WaitForCleanup(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// publicURL строит стабильный внешний URL объекта.
func (m *MinioInfrastructure) publicURL(key string) string {
	return fmt.Sprintf("%s/%s/%s", m.cfg.PublicBaseURL, m.cfg.BucketName, key)
}

// sanitizeName приводит имя товара к безопасному фрагменту ключа объекта.
func sanitizeName(name string) string {
	name = strings.TrimSpace(strings.ToLower(name))
	name = strings.ReplaceAll(name, " ", "-")
	name = strings.ReplaceAll(name, "/", "-")
	if name == "" {
		name = "item"
	}
	return name
}
