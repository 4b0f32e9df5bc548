package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"momo-proxy-backend/internal/domain"
	"momo-proxy-backend/internal/logger"
)

// MailSender is the part of the SendGrid client the alert service uses.
type MailSender interface {
	Send(email *mail.SGMailV3) (*rest.Response, error)
}

type AlertConfig struct {
	FromEmail      string
	FromName       string
	OperatorEmails []string
}

type alertService struct {
	sender MailSender
	cfg    AlertConfig
}

// NewAlertService mails operators through SendGrid. Without an API key or
// recipients alerts are only logged.
func NewAlertService(apiKey string, cfg AlertConfig) AlertService {
	if apiKey == "" || len(cfg.OperatorEmails) == 0 {
		return &logAlertService{}
	}
	return NewAlertServiceWithSender(sendgrid.NewSendClient(apiKey), cfg)
}

func NewAlertServiceWithSender(sender MailSender, cfg AlertConfig) AlertService {
	return &alertService{sender: sender, cfg: cfg}
}

func (s *alertService) NotifyUnmatched(ctx context.Context, fact domain.ConfirmationFact) error {
	subject := fmt.Sprintf("Unmatched %s confirmation", fact.Kind)
	body := fmt.Sprintf(
		"A success confirmation matched no in-flight transaction.\n\nType: %s\nCounterparty: %s\nAmount: %s\n\nNotice:\n%s\n",
		fact.Kind, fact.Counterparty, fact.Amount.StringFixed(2), fact.Raw)
	return s.send(subject, body)
}

func (s *alertService) NotifyStale(ctx context.Context, swept []domain.Transaction) error {
	subject := fmt.Sprintf("%d transaction(s) failed without confirmation", len(swept))
	var b strings.Builder
	b.WriteString("The following transactions received no confirmation in time. Their holds were released.\n\n")
	for _, tx := range swept {
		fmt.Fprintf(&b, "#%d %s %s %s (company %d, created %s)\n",
			tx.ID, tx.Kind, tx.Counterparty, tx.Amount.StringFixed(2), tx.CompanyID, tx.CreatedAt.UTC().Format("2006-01-02 15:04"))
	}
	return s.send(subject, b.String())
}

func (s *alertService) send(subject, plainText string) error {
	from := mail.NewEmail(s.cfg.FromName, s.cfg.FromEmail)

	message := mail.NewV3Mail()
	message.SetFrom(from)
	message.Subject = subject
	p := mail.NewPersonalization()
	for _, to := range s.cfg.OperatorEmails {
		p.AddTos(mail.NewEmail("", to))
	}
	message.AddPersonalizations(p)
	message.AddContent(mail.NewContent("text/plain", plainText))

	logger.ExternalServiceCall("sendgrid", "send", "subject", subject, "recipients", len(s.cfg.OperatorEmails))
	response, err := s.sender.Send(message)
	if err != nil {
		err = fmt.Errorf("failed to send alert: %w", err)
		logger.ExternalServiceResult("sendgrid", "send", err)
		return err
	}
	if response.StatusCode >= 400 {
		err = fmt.Errorf("sendgrid error: status %d, body: %s", response.StatusCode, response.Body)
		logger.ExternalServiceResult("sendgrid", "send", err)
		return err
	}
	logger.ExternalServiceResult("sendgrid", "send", nil, "status", response.StatusCode)
	return nil
}

type logAlertService struct{}

func (s *logAlertService) NotifyUnmatched(ctx context.Context, fact domain.ConfirmationFact) error {
	logger.Warn("ALERT unmatched confirmation", "kind", fact.Kind, "counterparty", fact.Counterparty, "amount", fact.Amount.StringFixed(2))
	return nil
}

func (s *logAlertService) NotifyStale(ctx context.Context, swept []domain.Transaction) error {
	ids := make([]int32, len(swept))
	for i, tx := range swept {
		ids[i] = tx.ID
	}
	logger.Warn("ALERT stale transactions failed", "count", len(swept), "transaction_ids", ids)
	return nil
}
