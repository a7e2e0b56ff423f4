package memory

import (
	"context"
	"sync"
)

type txKey struct{}

// TxManager serializa los bloques transaccionales. No hay rollback:
// los repos en memoria no fallan a mitad de una operación.
type TxManager struct {
	mu sync.Mutex
}

func NewTxManager() *TxManager {
	return &TxManager{}
}

// RunInTx anidado corre dentro del bloque externo (igual que en Postgres).
func (m *TxManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(context.WithValue(ctx, txKey{}, true))
}
