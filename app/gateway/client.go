// Package gateway talks to the external payment gateway and hides its wire
// shape behind a stable Detail contract. The gateway is authoritative for
// payment completion but only eventually consistent from our side.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	BaseURL       string
	Project       string
	APIKey        string
	CallbackToken string
	HTTPTimeout   time.Duration
}

type Client struct {
	cfg    Config
	client *http.Client
}

func NewClient(cfg Config) *Client {
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")

	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

func (c *Client) Configured() bool {
	return strings.TrimSpace(c.cfg.Project) != "" && strings.TrimSpace(c.cfg.APIKey) != ""
}

func (c *Client) CallbackToken() string {
	return c.cfg.CallbackToken
}

type CreateInput struct {
	Method      string
	Amount      int64
	OrderID     string
	PayerName   string
	CallbackURL string
}

// CreateTransaction opens a payment on the gateway. A local failure does not
// imply the remote side did not create the payment; no compensation is
// attempted.
func (c *Client) CreateTransaction(ctx context.Context, in *CreateInput) (*Detail, error) {
	if !c.Configured() {
		return nil, &Error{Op: "create", Reason: "gateway credentials are not configured"}
	}

	method := strings.ToLower(strings.TrimSpace(in.Method))
	if method == "" {
		method = "qris"
	}
	payerName := strings.TrimSpace(in.PayerName)
	if payerName == "" {
		payerName = "Customer"
	}

	payload := map[string]interface{}{
		"project":    c.cfg.Project,
		"amount":     in.Amount,
		"order_id":   in.OrderID,
		"api_key":    c.cfg.APIKey,
		"payer_name": payerName,
	}
	if strings.TrimSpace(in.CallbackURL) != "" {
		payload["callback_url"] = in.CallbackURL
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &Error{Op: "create", Reason: "encode request", Err: err}
	}

	endpoint := c.cfg.BaseURL + "/api/transactioncreate/" + url.PathEscape(method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &Error{Op: "create", Reason: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	raw, err := c.do("create", req)
	if err != nil {
		return nil, err
	}
	return ParseDetail(unwrapPayload(raw)), nil
}

// FetchDetail reads the current gateway state for a known order.
func (c *Client) FetchDetail(ctx context.Context, amount int64, orderID string) (*Detail, error) {
	if !c.Configured() {
		return nil, &Error{Op: "detail", Reason: "gateway credentials are not configured"}
	}

	params := url.Values{}
	params.Set("project", c.cfg.Project)
	params.Set("amount", strconv.FormatInt(amount, 10))
	params.Set("order_id", orderID)
	params.Set("api_key", c.cfg.APIKey)

	endpoint := c.cfg.BaseURL + "/api/transactiondetail?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &Error{Op: "detail", Reason: "build request", Err: err}
	}

	raw, err := c.do("detail", req)
	if err != nil {
		return nil, err
	}
	return ParseDetail(unwrapPayload(raw)), nil
}

func (c *Client) do(op string, req *http.Request) (map[string]interface{}, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &Error{Op: op, Reason: "request failed", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Op: op, Reason: "read response", Err: err}
	}

	raw := map[string]interface{}{}
	_ = json.Unmarshal(body, &raw)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || stringField(raw, "status") == "failed" {
		reason := firstNonEmpty(stringField(raw, "msg"), stringField(raw, "message"))
		if reason == "" {
			reason = fmt.Sprintf("gateway returned status=%d", resp.StatusCode)
		}
		return nil, &Error{Op: op, Reason: reason}
	}

	return raw, nil
}

// Error is any failure of a gateway call: transport errors, timeouts, non-2xx
// responses, and failed envelopes all share this type.
type Error struct {
	Op     string
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("gateway %s: %s: %v", e.Op, e.Reason, e.Err)
	}
	return fmt.Sprintf("gateway %s: %s", e.Op, e.Reason)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
