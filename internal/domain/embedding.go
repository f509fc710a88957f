package domain

import "time"

// Payload описывает дополнительную информацию вектора
type Payload map[string]any

// Embedding представляет эмбеддинг изображения товара во внешнем векторном индексе
type Embedding struct {
	ID      string
	Vector  []float32
	Payload Payload
}

func NewEmbedding(id string, vector []float32, payload Payload) *Embedding {
	return &Embedding{
		ID:      id,
		Vector:  vector,
		Payload: payload,
	}
}

func NewPayload(productID string, imageKey string) Payload {
	return Payload{
		"product_id": productID,
		"image_key":  imageKey,
		"created_at": time.Now().UTC().UnixNano(),
	}
}
