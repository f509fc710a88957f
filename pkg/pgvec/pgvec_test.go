package pgvec

import (
	"math"
	"testing"

	"github.com/lookbook-tech/go-backend/pkg/e"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		vector []float32
	}{
		{"unit axis", []float32{1, 0, 0}},
		{"fractions", []float32{0.9, 0.1, 0}},
		{"negative", []float32{-1, 0, 0}},
		{"small values", []float32{0.000123, -42.5, 1e-7}},
		{"single component", []float32{3.14159}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			literal, err := Encode(tt.vector)
			require.NoError(t, err)

			decoded, err := Decode(literal)
			require.NoError(t, err)
			require.Equal(t, tt.vector, decoded)
		})
	}
}

func TestEncodeLiteralFormat(t *testing.T) {
	literal, err := Encode([]float32{1, 0.5, -2})
	require.NoError(t, err)
	require.Equal(t, "[1,0.5,-2]", literal)
}

func TestEncodeRejectsInvalid(t *testing.T) {
	tests := []struct {
		name   string
		vector []float32
	}{
		{"empty", nil},
		{"nan", []float32{1, float32(math.NaN())}},
		{"positive inf", []float32{float32(math.Inf(1))}},
		{"negative inf", []float32{0, float32(math.Inf(-1))}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Encode(tt.vector)
			require.ErrorIs(t, err, e.ErrInvalidVector)
		})
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	tests := []struct {
		name    string
		literal string
	}{
		{"no brackets", "1,2,3"},
		{"empty string", ""},
		{"empty brackets", "[]"},
		{"garbage component", "[1,abc,3]"},
		{"unclosed", "[1,2,3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.literal)
			require.ErrorIs(t, err, e.ErrInvalidVector)
		})
	}
}

func TestDecodeAcceptsSpaces(t *testing.T) {
	decoded, err := Decode(" [1, 0.25, -3] ")
	require.NoError(t, err)
	require.Equal(t, []float32{1, 0.25, -3}, decoded)
}
