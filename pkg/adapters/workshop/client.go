// Package workshop talks to the parts shop back office over HTTP:
// GET /api/inventory for the catalogue and POST /api/pedidos to register sales.
package workshop

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/aretw0/auraflow/pkg/domain"
)

// Config holds the client settings.
type Config struct {
	BaseURL     string        `yaml:"base_url"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxRetries  int           `yaml:"max_retries"`
	RetryWaitMS int           `yaml:"retry_wait_ms"`
	Debug       bool          `yaml:"debug"`
}

// DefaultConfig returns the settings used when a field is left empty.
func DefaultConfig() Config {
	return Config{Timeout: 10 * time.Second, MaxRetries: 2, RetryWaitMS: 200}
}

// Client implements ports.InventoryService and ports.SaleRegistrar.
type Client struct {
	client *resty.Client
}

type inventoryResponse struct {
	Inventory []domain.InventoryItem `json:"inventory"`
}

type saleResponse struct {
	SaleRequest domain.SaleConfirmation `json:"saleRequest"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewClient builds a client for the back office at cfg.BaseURL.
func NewClient(cfg Config) *Client {
	def := DefaultConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.RetryWaitMS <= 0 {
		cfg.RetryWaitMS = def.RetryWaitMS
	}
	c := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.MaxRetries).
		SetRetryWaitTime(time.Duration(cfg.RetryWaitMS) * time.Millisecond).
		SetHeader("Accept", "application/json").
		SetDebug(cfg.Debug)
	// Only reads are retried; a retried POST could register a sale twice.
	c.AddRetryCondition(func(r *resty.Response, err error) bool {
		if r == nil || r.Request == nil || r.Request.Method != http.MethodGet {
			return false
		}
		return err != nil || r.StatusCode() >= http.StatusInternalServerError
	})
	return &Client{client: c}
}

// Inventory fetches the catalogue.
func (c *Client) Inventory(ctx context.Context) ([]domain.InventoryItem, error) {
	var out inventoryResponse
	var apiErr errorResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetResult(&out).
		SetError(&apiErr).
		Get("/api/inventory")
	if err != nil {
		return nil, fmt.Errorf("inventory request failed: %w", err)
	}
	if resp.IsError() {
		return nil, statusError(resp, apiErr)
	}
	if out.Inventory == nil {
		return []domain.InventoryItem{}, nil
	}
	return out.Inventory, nil
}

// Register records a sale request. The service answers 201 with the stored request.
func (c *Client) Register(ctx context.Context, req domain.SaleRequest) (*domain.SaleConfirmation, error) {
	var out saleResponse
	var apiErr errorResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		SetResult(&out).
		SetError(&apiErr).
		Post("/api/pedidos")
	if err != nil {
		return nil, fmt.Errorf("sale registration failed: %w", err)
	}
	if resp.IsError() {
		return nil, statusError(resp, apiErr)
	}
	if resp.StatusCode() != http.StatusCreated {
		return nil, fmt.Errorf("sale registration: unexpected status %d", resp.StatusCode())
	}
	return &out.SaleRequest, nil
}

func statusError(resp *resty.Response, apiErr errorResponse) error {
	if apiErr.Error != "" {
		return fmt.Errorf("workshop api %s %s: %d: %s", resp.Request.Method, resp.Request.URL, resp.StatusCode(), apiErr.Error)
	}
	return fmt.Errorf("workshop api %s %s: %d", resp.Request.Method, resp.Request.URL, resp.StatusCode())
}
