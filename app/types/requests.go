package types

import (
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

// SupportedPaymentMethods is the fixed set of methods the gateway accepts.
var SupportedPaymentMethods = []string{
	"qris",
	"bca_va",
	"bni_va",
	"bri_va",
	"mandiri_va",
	"permata_va",
	"cimb_va",
	"paypal",
}

func IsSupportedPaymentMethod(method string) bool {
	for _, m := range SupportedPaymentMethods {
		if m == method {
			return true
		}
	}
	return false
}

type CreateTransactionRequest struct {
	ExternalID   string `json:"external_id"`
	Method       string `json:"method"`
	Amount       int64  `json:"amount"`
	CustomerName string `json:"customer_name"`
}

func NewCreateTransactionRequestFromContext(ctx echo.Context) (*CreateTransactionRequest, error) {
	var body CreateTransactionRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	body.ExternalID = strings.TrimSpace(body.ExternalID)
	body.Method = strings.ToLower(strings.TrimSpace(body.Method))
	body.CustomerName = strings.TrimSpace(body.CustomerName)

	return &body, nil
}

func (r *CreateTransactionRequest) Validate() error {
	if len(r.ExternalID) < 3 {
		return errors.New("external_id must be at least 3 characters")
	}
	if !IsSupportedPaymentMethod(r.Method) {
		return errors.New("method is not supported")
	}
	if r.Amount <= 0 {
		return errors.New("amount must be > 0")
	}
	return nil
}

const (
	defaultPerPage = int32(20)
	maxPerPage     = int32(100)
)

type ListTransactionsRequest struct {
	Status  string
	Page    int32
	PerPage int32
}

func NewListTransactionsRequestFromContext(ctx echo.Context) (*ListTransactionsRequest, error) {
	req := &ListTransactionsRequest{
		Status:  strings.ToLower(strings.TrimSpace(ctx.QueryParam("status"))),
		Page:    1,
		PerPage: defaultPerPage,
	}

	if pageRaw := strings.TrimSpace(ctx.QueryParam("page")); pageRaw != "" {
		page, err := strconv.ParseInt(pageRaw, 10, 32)
		if err != nil {
			return nil, err
		}
		req.Page = int32(page)
	}

	if perPageRaw := strings.TrimSpace(ctx.QueryParam("per_page")); perPageRaw != "" {
		perPage, err := strconv.ParseInt(perPageRaw, 10, 32)
		if err != nil {
			return nil, err
		}
		req.PerPage = int32(perPage)
	}

	return req, nil
}

func (r *ListTransactionsRequest) Validate() error {
	if r.Page <= 0 {
		return errors.New("page must be >= 1")
	}
	if r.PerPage <= 0 || r.PerPage > maxPerPage {
		return errors.New("per_page must be between 1 and 100")
	}
	switch r.Status {
	case "", "pending", "paid", "failed", "expired":
		return nil
	default:
		return errors.New("invalid status")
	}
}

func (r *ListTransactionsRequest) Offset() int32 {
	return (r.Page - 1) * r.PerPage
}

type GetTransactionRequest struct {
	ID uint64
}

func NewGetTransactionRequestFromContext(ctx echo.Context) (*GetTransactionRequest, error) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		return nil, err
	}
	return &GetTransactionRequest{ID: id}, nil
}

func (r *GetTransactionRequest) Validate() error {
	if r.ID == 0 {
		return errors.New("invalid transaction id")
	}
	return nil
}

type GatewayCallbackRequest struct {
	Token   string `json:"-"`
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

func NewGatewayCallbackRequestFromContext(ctx echo.Context) (*GatewayCallbackRequest, error) {
	var body GatewayCallbackRequest
	if err := ctx.Bind(&body); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	body.Token = strings.TrimSpace(ctx.QueryParam("token"))
	body.OrderID = strings.TrimSpace(body.OrderID)
	body.Status = strings.TrimSpace(body.Status)

	return &body, nil
}

func (r *GatewayCallbackRequest) Validate() error {
	if r.OrderID == "" {
		return errors.New("order_id is required")
	}
	return nil
}

type CreateWithdrawalRequest struct {
	Amount int64 `json:"amount"`
}

func NewCreateWithdrawalRequestFromContext(ctx echo.Context) (*CreateWithdrawalRequest, error) {
	var body CreateWithdrawalRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	return &body, nil
}

func (r *CreateWithdrawalRequest) Validate() error {
	if r.Amount <= 0 {
		return errors.New("amount must be > 0")
	}
	return nil
}

type ListWebhookLogsRequest struct {
	TransactionID uint64
}

func NewListWebhookLogsRequestFromContext(ctx echo.Context) (*ListWebhookLogsRequest, error) {
	req := &ListWebhookLogsRequest{}
	if raw := strings.TrimSpace(ctx.QueryParam("transaction_id")); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return nil, err
		}
		req.TransactionID = id
	}
	return req, nil
}
