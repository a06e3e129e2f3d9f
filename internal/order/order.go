package order

import (
	"bytes"
	"context"
	"encoding/json"
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
		fx.Provide(NewHistory),
	)
)

type (
	Params struct {
		fx.In
		Config config.IConfig
		Logger logger.Logger
	}

	// Client places orders with the storefront API.
	Client interface {
		Create(ctx context.Context, token string, req structs.CreateOrder) ([]structs.Order, error)
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

// Create posts the order. A refusal naming unavailable shops comes back as
// *structs.UnavailableShopsError, every other failure as
// *structs.OrderSubmissionError.
func (c *client) Create(ctx context.Context, token string, req structs.CreateOrder) ([]structs.Order, error) {
	if strings.TrimSpace(token) == "" {
		return nil, &structs.OrderSubmissionError{Status: http.StatusUnauthorized, Err: structs.ErrUnauthorized}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, &structs.OrderSubmissionError{Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/order/create-order", bytes.NewReader(body))
	if err != nil {
		return nil, &structs.OrderSubmissionError{Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.logger.Error(ctx, "create order request failed", zap.Error(err))
		return nil, &structs.OrderSubmissionError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &structs.OrderSubmissionError{Status: resp.StatusCode, Err: err}
	}

	var out structs.CreateOrderResponse
	decodeErr := json.Unmarshal(raw, &out)

	if len(out.UnavailableShops) > 0 {
		c.logger.Warn(ctx, "order refused for location",
			zap.Int("status", resp.StatusCode),
			zap.Int("shops", len(out.UnavailableShops)),
			zap.String("message", out.Message),
		)
		return nil, &structs.UnavailableShopsError{Message: out.Message, Shops: out.UnavailableShops}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error(ctx, "create order non-2xx",
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(raw)),
		)
		return nil, &structs.OrderSubmissionError{Status: resp.StatusCode, Message: out.Message}
	}
	if decodeErr != nil {
		c.logger.Error(ctx, "create order decode", zap.Error(decodeErr), zap.String("body", string(raw)))
		return nil, &structs.OrderSubmissionError{Status: resp.StatusCode, Err: decodeErr}
	}
	if len(out.Orders) == 0 {
		return nil, &structs.OrderSubmissionError{Status: resp.StatusCode, Message: orDefault(out.Message, "no orders created")}
	}

	c.logger.Info(ctx, "order created", zap.Int("orders", len(out.Orders)), zap.String("first_id", out.Orders[0].ID))
	return out.Orders, nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

