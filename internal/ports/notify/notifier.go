package notify

import (
	"context"
	"errors"
)

// ErrDeliveryFailed envuelve cualquier fallo del gateway de correo.
var ErrDeliveryFailed = errors.New("notification delivery failed")

// Notifier es el gateway de notificaciones (emails transaccionales).
// Cualquier método puede fallar; el llamador decide si el fallo es fatal.
type Notifier interface {
	SendApproval(ctx context.Context, to, applicantName, petName, reviewerName string) error
	SendRejection(ctx context.Context, to, applicantName, petName, reviewerName string) error
	SendPasswordReset(ctx context.Context, to, token, name string) error
}
