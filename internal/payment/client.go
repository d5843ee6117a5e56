// Package payment is the client for the external payment gateway. The
// core never talks to the gateway beyond creating an order: completion
// happens on the client side and lands back on the confirm-payment
// endpoint. A gateway failure leaves the appointment in Pending Payment.
package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"medibook-server/internal/config"
)

// Order is the gateway's created payment order.
type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// Client creates payment orders against the gateway.
type Client interface {
	CreateOrder(ctx context.Context, amount int64, receipt string) (*Order, error)
}

type client struct {
	http *resty.Client
}

// NewClient builds a gateway client from config. Credentials go over
// basic auth, as the gateway expects.
func NewClient(cfg config.PaymentConfig) Client {
	http := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetBasicAuth(cfg.KeyID, cfg.KeySecret).
		SetTimeout(15 * time.Second)
	return &client{http: http}
}

type createOrderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

func (c *client) CreateOrder(ctx context.Context, amount int64, receipt string) (*Order, error) {
	var order Order
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(createOrderRequest{Amount: amount, Currency: "INR", Receipt: receipt}).
		SetResult(&order).
		Post("/orders")
	if err != nil {
		return nil, fmt.Errorf("payment gateway unreachable: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("payment gateway returned %s: %s", resp.Status(), resp.String())
	}
	return &order, nil
}
