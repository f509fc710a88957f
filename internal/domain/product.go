package domain

import "time"

// Product описывает товар каталога.
// FeatureVector равен nil до завершения второй фазы загрузки (attach);
// такой товар существует, но не участвует в поиске по сходству.
type Product struct {
	ID            string // uuid
	Name          string
	Price         int64 // Цена хранится в копейках
	ImageURL      string
	Tags          []string
	FeatureVector []float32
	CreatedAt     time.Time
	UpdatedAt     *time.Time
}

func NewProduct(id string, name string, price int64, imageURL string, tags []string) *Product {
	return &Product{
		ID:       id,
		Name:     name,
		Price:    price,
		ImageURL: imageURL,
		Tags:     tags,
	}
}

// Indexed сообщает, прошёл ли товар фазу привязки вектора.
func (p *Product) Indexed() bool {
	return len(p.FeatureVector) > 0
}
