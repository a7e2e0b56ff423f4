package mailer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"mime"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"pet-adoption/internal/ports/notify"
)

var ErrNotConfigured = errors.New("missing SMTP configuration")

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string // si está vacío se usa User

	App         string // nombre en asunto y pie
	FrontendURL string // base del link de reseteo
	ResetTTL    time.Duration
}

// SMTPNotifier implementa notify.Notifier con net/smtp.
type SMTPNotifier struct {
	cfg  SMTPConfig
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
	now  func() time.Time
}

func NewSMTP(cfg SMTPConfig) (*SMTPNotifier, error) {
	if cfg.Host == "" || cfg.Port == 0 {
		return nil, ErrNotConfigured
	}
	if cfg.From == "" {
		cfg.From = cfg.User
	}
	if cfg.From == "" {
		return nil, ErrNotConfigured
	}
	if cfg.App == "" {
		cfg.App = "Pet Shelter Pro"
	}
	if cfg.ResetTTL <= 0 {
		cfg.ResetTTL = time.Hour
	}
	return &SMTPNotifier{cfg: cfg, send: smtp.SendMail, now: time.Now}, nil
}

func (n *SMTPNotifier) SendApproval(ctx context.Context, to, applicantName, petName, reviewerName string) error {
	subject := fmt.Sprintf("Your application for %s has been approved!", petName)
	return n.deliver(ctx, to, subject, approvalTmpl, mailData{
		Name:     applicantName,
		Pet:      petName,
		Reviewer: reviewerName,
	})
}

func (n *SMTPNotifier) SendRejection(ctx context.Context, to, applicantName, petName, reviewerName string) error {
	subject := fmt.Sprintf("Update on your application for %s", petName)
	return n.deliver(ctx, to, subject, rejectionTmpl, mailData{
		Name:     applicantName,
		Pet:      petName,
		Reviewer: reviewerName,
	})
}

func (n *SMTPNotifier) SendPasswordReset(ctx context.Context, to, token, name string) error {
	url := strings.TrimRight(n.cfg.FrontendURL, "/") + "/reset-password/" + token
	return n.deliver(ctx, to, "Password Reset Request - "+n.cfg.App, resetTmpl, mailData{
		Name: name,
		URL:  url,
		TTL:  humanTTL(n.cfg.ResetTTL),
	})
}

func (n *SMTPNotifier) deliver(ctx context.Context, to, subject string, tmpl *template.Template, data mailData) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data.App = n.cfg.App
	data.Year = n.now().Year()

	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("render %s: %w", tmpl.Name(), err)
	}

	from := mail.Address{Name: singleLine(n.cfg.App), Address: singleLine(n.cfg.From)}
	rcpt := mail.Address{Address: singleLine(to)}
	msg := []byte(fmt.Sprintf(
		"From: %s\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=\"utf-8\"\r\n"+
			"\r\n%s\r\n",
		from.String(), rcpt.String(), mime.QEncoding.Encode("utf-8", singleLine(subject)), body.String(),
	))

	var a smtp.Auth
	if n.cfg.User != "" {
		a = smtp.PlainAuth("", n.cfg.User, n.cfg.Password, n.cfg.Host)
	}
	addr := net.JoinHostPort(n.cfg.Host, strconv.Itoa(n.cfg.Port))
	if err := n.send(addr, a, from.Address, []string{rcpt.Address}, msg); err != nil {
		return fmt.Errorf("%w: %v", notify.ErrDeliveryFailed, err)
	}
	return nil
}

func humanTTL(d time.Duration) string {
	if d%time.Hour == 0 {
		h := int(d / time.Hour)
		if h == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", h)
	}
	return fmt.Sprintf("%d minutes", int(d/time.Minute))
}

// singleLine quita CR/LF: los valores van dentro de headers.
func singleLine(s string) string {
	return strings.Join(strings.FieldsFunc(s, func(r rune) bool { return r == '\r' || r == '\n' }), " ")
}
