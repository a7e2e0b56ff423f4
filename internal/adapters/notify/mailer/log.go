package mailer

import (
	"context"

	"pet-adoption/internal/platform/logger"
)

// LogNotifier se usa cuando no hay SMTP configurado (dev): solo deja constancia en el log.
type LogNotifier struct {
	log logger.Logger
}

func NewLog(log logger.Logger) *LogNotifier {
	if log == nil {
		log = logger.NewNop()
	}
	return &LogNotifier{log: log.With(map[string]any{"component": "mailer"})}
}

func (n *LogNotifier) SendApproval(_ context.Context, to, applicantName, petName, reviewerName string) error {
	n.log.Info("approval email (not sent)", map[string]any{"to": to, "name": applicantName, "pet": petName, "reviewer": reviewerName})
	return nil
}

func (n *LogNotifier) SendRejection(_ context.Context, to, applicantName, petName, reviewerName string) error {
	n.log.Info("rejection email (not sent)", map[string]any{"to": to, "name": applicantName, "pet": petName, "reviewer": reviewerName})
	return nil
}

// El token no se loguea.
func (n *LogNotifier) SendPasswordReset(_ context.Context, to, _ string, name string) error {
	n.log.Info("password reset email (not sent)", map[string]any{"to": to, "name": name})
	return nil
}
