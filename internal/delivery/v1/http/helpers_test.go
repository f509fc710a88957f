package http

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lookbook-tech/go-backend/internal/usecase"
	"github.com/lookbook-tech/go-backend/pkg/e"
)

func TestParsePriceToCents(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    int64
		wantErr error
	}{
		{in: "29.99", want: 2999},
		{in: "30", want: 3000},
		{in: "0", want: 0},
		{in: "0.5", want: 50},
		{in: "1234.00", want: 123400},
		{in: "", wantErr: e.ErrInvalidPrice},
		{in: "  ", wantErr: e.ErrInvalidPrice},
		{in: "abc", wantErr: e.ErrInvalidPrice},
		{in: "-1", wantErr: e.ErrInvalidPrice},
		{in: "29.999", wantErr: e.ErrPricePrecision},
		{in: "10000000000", wantErr: e.ErrInvalidPrice},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			got, err := parsePriceToCents(tt.in)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToHTTPResponse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		wantCode int
		wantKind string
	}{
		{name: "no image", err: e.ErrNoImage, wantCode: http.StatusBadRequest, wantKind: "validation"},
		{name: "invalid price", err: e.ErrInvalidPrice, wantCode: http.StatusBadRequest, wantKind: "validation"},
		{name: "not found", err: e.ErrProductNotFound, wantCode: http.StatusNotFound, wantKind: "not_found"},
		{name: "vector missing", err: e.ErrVectorMissing, wantCode: http.StatusNotFound, wantKind: "not_found"},
		{name: "analysis rejected", err: e.ErrAnalysisRejected, wantCode: http.StatusUnprocessableEntity, wantKind: "analysis_rejected"},
		{name: "analysis unavailable", err: e.ErrAnalysisUnavailable, wantCode: http.StatusBadGateway, wantKind: "analysis_unavailable"},
		{name: "store unavailable", err: e.ErrStoreUnavailable, wantCode: http.StatusServiceUnavailable, wantKind: "store_unavailable"},
		{name: "attach failed", err: e.ErrVectorAttachFailed, wantCode: http.StatusInternalServerError, wantKind: "consistency_gap"},
		{name: "unknown", err: errors.New("boom"), wantCode: http.StatusInternalServerError, wantKind: "internal"},
		{name: "wrapped", err: e.Wrap("op", e.ErrProductNotFound), wantCode: http.StatusNotFound, wantKind: "not_found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			code, kind, msg := ToHTTPResponse(tt.err)
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantKind, kind)
			assert.NotEmpty(t, msg)
		})
	}
}

func TestNewProductView(t *testing.T) {
	t.Parallel()

	view := NewProductView(usecase.ProductInfo{
		ID:       "p1",
		Name:     "Sneaker",
		Price:    2999,
		ImageURL: "http://storage.local/bucket/key.jpg",
	})

	assert.Equal(t, 29.99, view.Price)
	assert.NotNil(t, view.Tags, "tags must serialize as [] rather than null")
}
