package tr

import (
	"context"

	transaction "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/jackc/pgx/v5"
	"github.com/lookbook-tech/go-backend/pkg/e"
)

// TxFromCtx извлекает объект транзакции (pgx.Tx) из контекста
func TxFromCtx(ctx context.Context) (pgx.Tx, error) {
	txAny := ctx.Value("tx")
	tx, ok := txAny.(pgx.Tx)
	if !ok {
		return nil, e.ErrTransactionNotFound
	}
	return tx, nil
}

// Manager выполняет функцию в рамках одной транзакции PostgreSQL.
// Объект pgx.Tx кладётся в контекст и извлекается репозиториями через TxFromCtx.
type Manager struct {
	pool transaction.Transactional
}

func NewManager(pool transaction.Transactional) *Manager {
	return &Manager{pool: pool}
}

// Do открывает транзакцию, выполняет fn и коммитит изменения.
// При ошибке fn транзакция откатывается, ошибка возвращается без изменений.
func (m *Manager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, tx, err := transaction.NewTransaction(ctx, pgx.TxOptions{}, m.pool)
	if err != nil {
		return e.Wrap("tr.Manager.Do", err)
	}

	defer func() {
		if tx.IsActive() {
			tx.Rollback(ctx)
		}
	}()

	ctx = context.WithValue(ctx, "tx", tx.Transaction())

	if err := fn(ctx); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
