package pgdb

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
	"github.com/lookbook-tech/go-backend/internal/cfg"
	"github.com/lookbook-tech/go-backend/internal/domain"
	"github.com/lookbook-tech/go-backend/internal/repository/pgdb/converter"
	"github.com/lookbook-tech/go-backend/pkg/e"
	"github.com/lookbook-tech/go-backend/pkg/pgvec"
	"github.com/lookbook-tech/go-backend/pkg/tr"
)

// ProductRepo реализует хранилище товаров поверх PostgreSQL с расширением pgvector.
// Помимо CRUD-операций отвечает за привязку вектора признаков и k-NN поиск
// через оператор косинусного расстояния <=>.
type ProductRepo struct {
	pool *pgxpool.Pool
	conv converter.ProductConverter
	cfg  *cfg.SearchCfg
}

func NewProductRepo(pool *pgxpool.Pool, conv converter.ProductConverter, cfg *cfg.SearchCfg) *ProductRepo {
	return &ProductRepo{
		pool: pool,
		conv: conv,
		cfg:  cfg,
	}
}

// Create вставляет новый товар без вектора признаков.
// Выполняется в рамках транзакции из контекста.
func (p *ProductRepo) Create(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	query := `
		INSERT INTO products (id, name, price, image_url, tags)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, name, price, image_url, tags, created_at, updated_at;
	`

	var model converter.ProductModel
	err = tx.QueryRow(ctx, query, product.ID, product.Name, product.Price, product.ImageURL, product.Tags).
		Scan(
			&model.ID, &model.Name, &model.Price, &model.ImageURL,
			&model.Tags, &model.CreatedAt, &model.UpdatedAt,
		)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), storeErr(err))
	}

	return p.conv.ToEntity(&model), nil
}

// GetByID возвращает товар вместе с вектором признаков (nil, если вектор не привязан).
func (p *ProductRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	query := `
		SELECT id, name, price, image_url, tags, feature_vector::text, created_at, updated_at
		FROM products
		WHERE id = $1
	`

	var (
		model   converter.ProductModel
		literal *string
	)
	err := p.pool.QueryRow(ctx, query, id).
		Scan(
			&model.ID, &model.Name, &model.Price, &model.ImageURL,
			&model.Tags, &literal, &model.CreatedAt, &model.UpdatedAt,
		)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), storeErr(err))
	}

	product := p.conv.ToEntity(&model)
	if literal != nil {
		vector, err := pgvec.Decode(*literal)
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		product.FeatureVector = vector
	}

	return product, nil
}

// GetByIDs возвращает товары по списку идентификаторов, без векторов.
// Отсутствующие идентификаторы пропускаются.
func (p *ProductRepo) GetByIDs(ctx context.Context, ids []string) ([]domain.Product, error) {
	query := `
		SELECT id, name, price, image_url, tags, created_at, updated_at
		FROM products
		WHERE id = ANY($1)
	`

	rows, err := p.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), storeErr(err))
	}
	defer rows.Close()

	return p.scanProducts(rows)
}

// Attach идемпотентно привязывает вектор признаков к существующему товару.
// Повторная привязка того же вектора не меняет запись (no_changes в выборке).
func (p *ProductRepo) Attach(ctx context.Context, productID string, vector []float32) error {
	if len(vector) != p.cfg.VectorSize {
		return e.Wrap(
			fmt.Sprintf("%s: got %d, want %d", whereami.WhereAmI(), len(vector), p.cfg.VectorSize),
			e.ErrVectorDimensionMismatch,
		)
	}

	literal, err := pgvec.Encode(vector)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	query := `
		WITH attach AS (
		UPDATE products
		SET feature_vector = $2::vector, updated_at = NOW()
		WHERE id = $1
		  AND (feature_vector IS NULL OR feature_vector <> $2::vector)
		RETURNING id
		)
		SELECT id, false AS no_changes FROM attach

		UNION ALL

		SELECT id, true AS no_changes FROM products
		WHERE id = $1 AND NOT EXISTS (SELECT 1 FROM attach);
	`

	var (
		id        string
		noChanges bool
	)
	if err := p.pool.QueryRow(ctx, query, productID, literal).Scan(&id, &noChanges); err != nil {
		return e.Wrap(whereami.WhereAmI(), storeErr(err))
	}

	return nil
}

// VectorOf возвращает привязанный вектор признаков товара.
// Возвращает e.ErrVectorMissing, если вектор ещё не привязан.
func (p *ProductRepo) VectorOf(ctx context.Context, productID string) ([]float32, error) {
	query := `SELECT feature_vector::text FROM products WHERE id = $1`

	var literal *string
	if err := p.pool.QueryRow(ctx, query, productID).Scan(&literal); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), storeErr(err))
	}

	if literal == nil {
		return nil, e.Wrap(whereami.WhereAmI(), e.ErrVectorMissing)
	}

	vector, err := pgvec.Decode(*literal)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return vector, nil
}

// KNearest возвращает до limit товаров, ближайших к опорному вектору по косинусному
// расстоянию. Товары без вектора исключаются, равные расстояния упорядочиваются
// по времени создания. excludeID, если непустой, исключает товар из выдачи.
func (p *ProductRepo) KNearest(ctx context.Context, ref []float32, excludeID string, limit int) ([]domain.Product, error) {
	literal, err := pgvec.Encode(ref)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	query := `
		SELECT id, name, price, image_url, tags, created_at, updated_at
		FROM products
		WHERE feature_vector IS NOT NULL
		  AND ($2 = '' OR id <> $2)
		ORDER BY feature_vector <=> $1::vector, created_at, id
		LIMIT $3
	`

	rows, err := p.pool.Query(ctx, query, literal, excludeID, limit)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), storeErr(err))
	}
	defer rows.Close()

	return p.scanProducts(rows)
}

func (p *ProductRepo) scanProducts(rows pgx.Rows) ([]domain.Product, error) {
	result := make([]domain.Product, 0)
	for rows.Next() {
		var model converter.ProductModel
		if err := rows.Scan(
			&model.ID, &model.Name, &model.Price, &model.ImageURL,
			&model.Tags, &model.CreatedAt, &model.UpdatedAt,
		); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), storeErr(err))
		}

		result = append(result, *p.conv.ToEntity(&model))
	}

	if err := rows.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), storeErr(err))
	}

	return result, nil
}

// storeErr переводит ошибки драйвера в типизированные ошибки хранилища.
func storeErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return e.ErrProductNotFound
	}

	return fmt.Errorf("%w: %w", e.ErrStoreUnavailable, err)
}
