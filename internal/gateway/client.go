package gateway

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"momo-proxy-backend/internal/domain"
	"momo-proxy-backend/internal/logger"
)

const maxResponseBytes = 64 << 10

type Config struct {
	BaseURL  string
	Username string
	Password string
	PIN      string
	Timeout  time.Duration
}

// Client drives mobile-money USSD menus through a GSM gateway's WebCGI
// endpoint. It implements the execution channel.
type Client struct {
	cfg  Config
	http *http.Client
	pool *SIMPool
}

func NewClient(cfg Config, pool *SIMPool) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		pool: pool,
	}
}

func (c *Client) Execute(ctx context.Context, directive domain.Directive) (*domain.ChannelResponse, error) {
	sim := c.pool.Pick()
	amount := directive.Amount.String()

	var text string
	var err error
	switch directive.Kind {
	case domain.KindPushFunds:
		text, err = c.pushFunds(ctx, sim, directive.Counterparty, amount)
	case domain.KindAirtime:
		text, err = c.send(ctx, sim, fmt.Sprintf("*142*4*%s*%s*%s#", directive.Counterparty, amount, c.cfg.PIN))
	case domain.KindPullFunds:
		text, err = c.send(ctx, sim, fmt.Sprintf("*142*2*1*%s*%s*1*%s#", amount, directive.Counterparty, c.cfg.PIN))
	default:
		return nil, fmt.Errorf("%w: unsupported kind %q", domain.ErrChannel, directive.Kind)
	}
	if err != nil {
		return nil, err
	}
	return &domain.ChannelResponse{Text: text, SIMUsed: sim.Name}, nil
}

// pushFunds walks the deposit menu: request, confirm, then the PIN when the
// network asks for it again.
func (c *Client) pushFunds(ctx context.Context, sim SIM, msisdn, amount string) (string, error) {
	step1, err := c.send(ctx, sim, fmt.Sprintf("*142*1*%s*%s*1*%s#", amount, msisdn, c.cfg.PIN))
	if err != nil {
		return "", err
	}
	if !strings.Contains(step1, "1.Confirmer") {
		return "", fmt.Errorf("%w: no confirmation menu received: %s", domain.ErrChannel, step1)
	}

	step2, err := c.send(ctx, sim, "1")
	if err != nil {
		return "", err
	}
	lower := strings.ToLower(step2)
	if !strings.Contains(lower, "code secret") && !strings.Contains(lower, "pin") {
		return step2, nil
	}
	return c.send(ctx, sim, c.cfg.PIN)
}

func (c *Client) send(ctx context.Context, sim SIM, content string) (string, error) {
	q := url.Values{}
	q.Set("1500102", "")
	q.Set("account", c.cfg.Username)
	q.Set("password", c.cfg.Password)
	q.Set("port", strconv.Itoa(sim.Port))
	q.Set("content", content)
	endpoint := c.cfg.BaseURL + "/cgi/WebCGI?" + q.Encode()

	// The PIN travels in content, so only the port is logged.
	logger.ExternalServiceCall("ussd-gateway", "send", "sim", sim.Name, "port", sim.Port)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("%w: build request: %v", domain.ErrChannel, err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.pool.MarkFailed(sim.Name)
		err = fmt.Errorf("%w: %v", domain.ErrChannel, err)
		logger.ExternalServiceResult("ussd-gateway", "send", err, "sim", sim.Name)
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		c.pool.MarkFailed(sim.Name)
		return "", fmt.Errorf("%w: read response: %v", domain.ErrChannel, err)
	}
	if resp.StatusCode >= 400 {
		err = fmt.Errorf("%w: gateway status %d", domain.ErrChannel, resp.StatusCode)
		logger.ExternalServiceResult("ussd-gateway", "send", err, "sim", sim.Name)
		return "", err
	}

	c.pool.MarkRecovered(sim.Name)
	logger.ExternalServiceResult("ussd-gateway", "send", nil, "sim", sim.Name, "status", resp.StatusCode)
	return strings.TrimSpace(string(body)), nil
}
