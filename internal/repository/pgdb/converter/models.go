package converter

import "time"

// ProductModel представляет запись таблицы products в PostgreSQL.
// Колонка feature_vector читается и пишется отдельно через текстовый литерал pgvector.
type ProductModel struct {
	ID        string     `db:"id"`
	Name      string     `db:"name"`
	Price     int64      `db:"price"`
	ImageURL  string     `db:"image_url"`
	Tags      []string   `db:"tags"`
	CreatedAt time.Time  `db:"created_at"`
	UpdatedAt *time.Time `db:"updated_at"`
}

// OutboxEventModel представляет запись таблицы outbox_events в PostgreSQL.
type OutboxEventModel struct {
	ID          int64      `db:"id"`
	EventID     string     `db:"event_id"`
	EventType   string     `db:"event_type"`
	ProductID   string     `db:"product_id"`
	Payload     []byte     `db:"payload"`
	Status      string     `db:"status"`
	CreatedAt   time.Time  `db:"created_at"`
	ProcessedAt *time.Time `db:"processed_at"`
}
