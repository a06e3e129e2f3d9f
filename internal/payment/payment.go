package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"storefront/internal/structs"
	"storefront/pkg/config"
	"storefront/pkg/logger"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

var (
	Module = fx.Options(
		fx.Provide(New),
		fx.Provide(NewDetectorFromConfig),
	)
)

type (
	Params struct {
		fx.In
		Config config.IConfig
		Logger logger.Logger
	}

	// Client asks the payment backend for a hosted payment page.
	Client interface {
		CreateLink(ctx context.Context, req structs.PaymentLinkRequest) (string, error)
	}

	client struct {
		host   string
		http   *http.Client
		logger logger.Logger
	}
)

func New(p Params) Client {
	timeout := p.Config.GetDuration("api.timeout")
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return NewClient(p.Config.GetString("api.host"), &http.Client{Timeout: timeout}, p.Logger)
}

func NewClient(host string, httpClient *http.Client, log logger.Logger) Client {
	return &client{
		host:   strings.TrimRight(host, "/"),
		http:   httpClient,
		logger: log,
	}
}

func (c *client) CreateLink(ctx context.Context, req structs.PaymentLinkRequest) (string, error) {
	if !req.Amount.IsPositive() {
		return "", fmt.Errorf("amount %s: %w", req.Amount, structs.ErrPaymentLink)
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("encode: %v: %w", err, structs.ErrPaymentLink)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/payment/process", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%v: %w", err, structs.ErrPaymentLink)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.logger.Error(ctx, "payment link request failed", zap.Error(err))
		return "", fmt.Errorf("%v: %w", err, structs.ErrPaymentLink)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read: %v: %w", err, structs.ErrPaymentLink)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error(ctx, "payment link non-2xx", zap.Int("status", resp.StatusCode), zap.String("body", string(raw)))
		return "", fmt.Errorf("status %d: %w", resp.StatusCode, structs.ErrPaymentLink)
	}

	var out structs.PaymentLinkResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		c.logger.Error(ctx, "payment link decode", zap.Error(err), zap.String("body", string(raw)))
		return "", fmt.Errorf("decode: %v: %w", err, structs.ErrPaymentLink)
	}
	if strings.TrimSpace(out.PaymentLink) == "" {
		return "", fmt.Errorf("empty link (%s): %w", out.Message, structs.ErrPaymentLink)
	}
	return out.PaymentLink, nil
}
