package types

import "encoding/json"

// APIResponse is the success envelope: {"success": true, "data": ...}.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
}

// ReplayResponse wraps a stored idempotent response body verbatim.
type ReplayResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

type ErrorBody struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Details []string `json:"details"`
}

type ErrorResponse struct {
	Success bool      `json:"success"`
	Error   ErrorBody `json:"error"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

// TransactionCreatedResponse is the create projection; its serialized form is
// also what the idempotency guard stores and replays byte-identically.
type TransactionCreatedResponse struct {
	ID             uint64  `json:"id"`
	ExternalID     string  `json:"external_id"`
	GatewayOrderID string  `json:"gateway_order_id"`
	Method         string  `json:"method"`
	Status         string  `json:"status"`
	Amount         int64   `json:"amount"`
	TotalPayment   int64   `json:"total_payment"`
	PaymentNumber  *string `json:"payment_number"`
	QRString       *string `json:"qr_string"`
	QRImageURL     *string `json:"qr_image_url"`
	ExpiredAt      *string `json:"expired_at"`
}

type TransactionResponse struct {
	ID             uint64  `json:"id"`
	ExternalID     string  `json:"external_id"`
	GatewayOrderID string  `json:"gateway_order_id"`
	Method         string  `json:"method"`
	Status         string  `json:"status"`
	Amount         int64   `json:"amount"`
	TotalPayment   int64   `json:"total_payment"`
	PaymentNumber  *string `json:"payment_number"`
	QRString       *string `json:"qr_string"`
	QRImageURL     *string `json:"qr_image_url"`
	ExpiredAt      *string `json:"expired_at"`
	PaidAt         *string `json:"paid_at"`
	CreatedAt      string  `json:"created_at"`
}

type TransactionListItem struct {
	ID           uint64 `json:"id"`
	ExternalID   string `json:"external_id"`
	Method       string `json:"method"`
	Status       string `json:"status"`
	Amount       int64  `json:"amount"`
	TotalPayment int64  `json:"total_payment"`
	CreatedAt    string `json:"created_at"`
}

type Pagination struct {
	Page    int32 `json:"page"`
	PerPage int32 `json:"per_page"`
	Total   int64 `json:"total"`
}

type TransactionListResponse struct {
	Items      []*TransactionListItem `json:"items"`
	Pagination Pagination             `json:"pagination"`
}

type SyncTransactionResponse struct {
	ID            uint64  `json:"id"`
	Status        string  `json:"status"`
	GatewayStatus *string `json:"gateway_status"`
	TotalPayment  int64   `json:"total_payment"`
	PaymentNumber *string `json:"payment_number"`
	QRString      *string `json:"qr_string"`
	PaidAt        *string `json:"paid_at"`
}

type GatewayCallbackResponse struct {
	TransactionID uint64 `json:"transaction_id"`
	Status        string `json:"status"`
}

type BalanceResponse struct {
	TotalBalance        int64 `json:"total_balance"`
	WithdrawableBalance int64 `json:"withdrawable_balance"`
}

type WithdrawalResponse struct {
	ID          uint64  `json:"id"`
	Status      string  `json:"status"`
	AmountGross int64   `json:"amount_gross"`
	AmountFee   int64   `json:"amount_fee"`
	AmountNet   int64   `json:"amount_net"`
	BankName    string  `json:"bank_name"`
	ProcessedAt *string `json:"processed_at"`
	CreatedAt   string  `json:"created_at"`
}

type WithdrawalListResponse struct {
	Items []*WithdrawalResponse `json:"items"`
}

type WebhookLogResponse struct {
	ID            uint64  `json:"id"`
	TransactionID uint64  `json:"transaction_id"`
	EventType     string  `json:"event_type"`
	AttemptNo     int32   `json:"attempt_no"`
	IsSuccess     bool    `json:"is_success"`
	TargetURL     string  `json:"target_url"`
	ResponseCode  *int32  `json:"response_code"`
	ResponseBody  *string `json:"response_body"`
	CreatedAt     string  `json:"created_at"`
}

type WebhookLogListResponse struct {
	Items []*WebhookLogResponse `json:"items"`
}
