package store

import "context"

// TxManager ejecuta fn como una unidad atómica.
// La implementación propaga la transacción dentro del ctx que recibe fn;
// los repos deben usar ese ctx para participar de ella.
type TxManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}
