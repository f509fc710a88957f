// Package pgvec кодирует векторы признаков в текстовый литерал pgvector
// вида [0.12,0.98,...] и обратно.
package pgvec

import (
	"math"
	"strconv"
	"strings"

	"github.com/lookbook-tech/go-backend/pkg/e"
)

// Encode переводит вектор в литерал хранилища.
// Возвращает e.ErrInvalidVector для пустого вектора и для компонент NaN/Inf.
func Encode(vector []float32) (string, error) {
	if len(vector) == 0 {
		return "", e.Wrap("pgvec.Encode: empty vector", e.ErrInvalidVector)
	}

	var sb strings.Builder
	sb.WriteByte('[')
	for i, v := range vector {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return "", e.Wrap("pgvec.Encode: non-finite component", e.ErrInvalidVector)
		}
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatFloat(f, 'g', -1, 32))
	}
	sb.WriteByte(']')

	return sb.String(), nil
}

// Decode разбирает литерал хранилища в вектор.
func Decode(literal string) ([]float32, error) {
	s := strings.TrimSpace(literal)
	if len(s) < 2 || s[0] != '[' || s[len(s)-1] != ']' {
		return nil, e.Wrap("pgvec.Decode: missing brackets", e.ErrInvalidVector)
	}

	s = s[1 : len(s)-1]
	if strings.TrimSpace(s) == "" {
		return nil, e.Wrap("pgvec.Decode: empty vector", e.ErrInvalidVector)
	}

	parts := strings.Split(s, ",")
	vector := make([]float32, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return nil, e.Wrap("pgvec.Decode: component "+strconv.Itoa(i), e.ErrInvalidVector)
		}
		vector[i] = float32(f)
	}

	return vector, nil
}
