package jobs

import (
	"time"

	"momo-proxy-backend/internal/config"
	"momo-proxy-backend/internal/gateway"
	"momo-proxy-backend/internal/repository/postgres"
	"momo-proxy-backend/internal/service"
)

// NewJobRunnerFromConfig builds the queue processor and the sweeper on top
// of store and the USSD gateway described by cfg.
func NewJobRunnerFromConfig(cfg *config.Config, store *postgres.Store) (*JobRunner, error) {
	sims := make([]gateway.SIM, 0, len(cfg.Gateway.SIMs))
	for _, s := range cfg.Gateway.SIMs {
		sims = append(sims, gateway.SIM{Name: s.Name, Port: s.Port})
	}
	pool, err := gateway.NewSIMPool(sims, cfg.Gateway.SIMStrategy, cfg.Gateway.PrimarySIM, cfg.Gateway.SecondarySIM)
	if err != nil {
		return nil, err
	}
	channel := gateway.NewClient(gateway.Config{
		BaseURL:  cfg.Gateway.BaseURL,
		Username: cfg.Gateway.Username,
		Password: cfg.Gateway.Password,
		PIN:      cfg.Gateway.PIN,
		Timeout:  time.Duration(cfg.Gateway.TimeoutSeconds) * time.Second,
	}, pool)

	alertSvc := service.NewAlertService(cfg.Alerts.SendGridAPIKey, service.AlertConfig{
		FromEmail:      cfg.Alerts.FromEmail,
		FromName:       cfg.Alerts.FromName,
		OperatorEmails: cfg.Alerts.OperatorEmails,
	})
	ledgerSvc := service.NewLedgerService(store.Balances, store.Countries, store.TxManager)

	processor := service.NewProcessorService(
		store.WorkItems,
		store.Transactions,
		store.TxManager,
		ledgerSvc,
		service.NewDestinationResolver(store.Countries),
		service.NewFeeService(store.FeeRules, store.TxManager),
		channel,
		service.ProcessorConfig{
			BatchSize:      cfg.Processor.BatchSize,
			ChannelTimeout: time.Duration(cfg.Processor.ChannelTimeoutSeconds) * time.Second,
			MaxRetries:     cfg.Processor.MaxRetries,
			RetryBackoff:   100 * time.Millisecond,
			IsRetryable:    postgres.IsRetryable,
		},
	)
	sweeper := service.NewSweeperService(
		store.Transactions,
		store.TxManager,
		ledgerSvc,
		alertSvc,
		time.Duration(cfg.Sweeper.DeadlineHours)*time.Hour,
	)

	// A batch is at most BatchSize channel calls back to back.
	timeout := time.Duration(cfg.Processor.BatchSize*(cfg.Processor.ChannelTimeoutSeconds+5)) * time.Second
	return NewJobRunner(&Services{Processor: processor, Sweeper: sweeper}, timeout), nil
}
