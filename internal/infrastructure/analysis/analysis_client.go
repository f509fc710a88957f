package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/lookbook-tech/go-backend/internal/cfg"
	"github.com/lookbook-tech/go-backend/internal/usecase"
	"github.com/lookbook-tech/go-backend/pkg/e"
	"github.com/lookbook-tech/go-backend/pkg/jitter"
	"github.com/lookbook-tech/go-backend/pkg/logger"
)

// Client — клиент внешнего сервиса анализа изображений.
// Отправляет байты изображения как multipart/form-data на POST {base}/analyze
// и получает вектор признаков с предложенными тегами.
//
// Ошибки различимы по возможности повтора: e.ErrAnalysisUnavailable — сеть или
// 5xx, повтор допустим; e.ErrAnalysisRejected — некорректный ответ или отказ,
// повтор без нового изображения бессмыслен. Клиент без состояния, безопасен
// для конкурентных вызовов.
type Client struct {
	httpClient *http.Client
	cfg        *cfg.AnalysisCfg
	vectorSize int
	logger     logger.Logger
}

// analyzeResponse — тело ответа сервиса анализа.
type analyzeResponse struct {
	Filename      string    `json:"filename"`
	Vector        []float32 `json:"vector"`
	SuggestedTags []string  `json:"suggested_tags"`
}

func NewClient(cfg *cfg.AnalysisCfg, vectorSize int, logger logger.Logger) *Client {
	return &Client{
		httpClient: &http.Client{},
		cfg:        cfg,
		vectorSize: vectorSize,
		logger:     logger,
	}
}

// Analyze выполняет анализ изображения с повторами при недоступности сервиса.
// Вызов не имеет побочных эффектов, поэтому повтор безопасен.
func (c *Client) Analyze(ctx context.Context, req *usecase.AnalyzeReq) (*usecase.AnalyzeRes, error) {
	const (
		op         = "analysis.Client.Analyze"
		baseJitter = 1 * time.Second
		maxJitter  = 30 * time.Second
	)

	if len(req.Image.Data) == 0 {
		return nil, e.Wrap(op, e.ErrNoImage)
	}

	maxRetries := c.cfg.MaxRetries
	if maxRetries < 1 {
		maxRetries = 1
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		res, err := c.analyzeOnce(ctx, req)
		if err == nil {
			return res, nil
		}
		lastErr = err

		// Отказ сервиса не лечится повтором
		if !errors.Is(err, e.ErrAnalysisUnavailable) {
			return nil, e.Wrap(op, err)
		}

		if attempt == maxRetries-1 {
			break
		}

		sleepTime := jitter.ExponentialBackoff(
			baseJitter,
			maxJitter,
			attempt,
			jitter.DefaultJitter,
		)

		c.logger.Warnf("analysis request failed, retrying in %v (attempt %d)", sleepTime, attempt+1)
		select {
		case <-time.After(sleepTime):
		case <-ctx.Done():
			return nil, e.Wrap(op, ctx.Err())
		}
	}

	return nil, e.Wrap(op, lastErr)
}

// analyzeOnce выполняет один запрос к сервису анализа с ограниченным таймаутом.
func (c *Client) analyzeOnce(ctx context.Context, req *usecase.AnalyzeReq) (*usecase.AnalyzeRes, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	body, contentType, err := c.buildMultipartBody(req.Image)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/analyze", body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", e.ErrAnalysisUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, fmt.Errorf("%w: status %d", e.ErrAnalysisUnavailable, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: status %d", e.ErrAnalysisRejected, resp.StatusCode)
	}

	var decoded analyzeResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 32<<20)).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: malformed response: %w", e.ErrAnalysisRejected, err)
	}

	if len(decoded.Vector) == 0 {
		return nil, fmt.Errorf("%w: empty vector", e.ErrAnalysisRejected)
	}

	if c.vectorSize > 0 && len(decoded.Vector) != c.vectorSize {
		return nil, fmt.Errorf("%w: vector size %d, want %d", e.ErrAnalysisRejected, len(decoded.Vector), c.vectorSize)
	}

	return usecase.NewAnalyzeRes(decoded.Vector, decoded.SuggestedTags), nil
}

// buildMultipartBody упаковывает изображение в multipart-форму с полем file.
// Имя файла используется только для оформления формы, не для идентификации.
func (c *Client) buildMultipartBody(image usecase.ProductImage) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", image.Name)
	if err != nil {
		return nil, "", err
	}

	if _, err := part.Write(image.Data); err != nil {
		return nil, "", err
	}

	if err := writer.Close(); err != nil {
		return nil, "", err
	}

	return body, writer.FormDataContentType(), nil
}
