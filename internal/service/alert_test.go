package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"momo-proxy-backend/internal/domain"
)

func TestAlertService(t *testing.T) {
	ctx := context.Background()
	cfg := AlertConfig{FromEmail: "noreply@momo.test", FromName: "MoMo Proxy", OperatorEmails: []string{"ops@momo.test", "oncall@momo.test"}}

	t.Run("Unmatched confirmation mails every operator", func(t *testing.T) {
		sender := new(MockMailSender)
		sender.On("Send", mock.MatchedBy(func(m *mail.SGMailV3) bool {
			return len(m.Personalizations) == 1 &&
				len(m.Personalizations[0].To) == 2 &&
				m.Subject == "Unmatched push_funds confirmation" &&
				len(m.Content) == 1
		})).Return(&rest.Response{StatusCode: 202}, nil).Once()

		svc := NewAlertServiceWithSender(sender, cfg)
		err := svc.NotifyUnmatched(ctx, domain.ConfirmationFact{Kind: domain.KindPushFunds, Counterparty: "224600000001", Amount: dec("2000")})
		assert.NoError(t, err)
		sender.AssertExpectations(t)
	})

	t.Run("SendGrid rejection is an error", func(t *testing.T) {
		sender := new(MockMailSender)
		sender.On("Send", mock.Anything).Return(&rest.Response{StatusCode: 401, Body: "unauthorized"}, nil)

		svc := NewAlertServiceWithSender(sender, cfg)
		err := svc.NotifyStale(ctx, []domain.Transaction{{ID: 1, Amount: dec("2000"), CreatedAt: time.Now()}})
		assert.ErrorContains(t, err, "status 401")
	})

	t.Run("Transport error", func(t *testing.T) {
		sender := new(MockMailSender)
		sender.On("Send", mock.Anything).Return(nil, errors.New("dial tcp: timeout"))

		svc := NewAlertServiceWithSender(sender, cfg)
		assert.Error(t, svc.NotifyStale(ctx, []domain.Transaction{{ID: 1, Amount: dec("1")}}))
	})

	t.Run("Without credentials alerts are logged only", func(t *testing.T) {
		svc := NewAlertService("", cfg)
		assert.NoError(t, svc.NotifyUnmatched(ctx, domain.ConfirmationFact{}))
		assert.NoError(t, svc.NotifyStale(ctx, nil))
	})
}
