package gateway

import (
	"strings"
	"time"

	"github.com/bayarqu/ms-go-paybridge/app/entity"
)

// Detail is the normalized view of one gateway payment.
type Detail struct {
	// Status is the normalized local status; GatewayStatus the raw vocabulary.
	Status        string
	GatewayStatus string

	// Figures as reported by the gateway; the reconciler never trusts Fee.
	Fee          int64
	Amount       int64
	TotalPayment int64

	PaymentNumber *string
	QRString      *string
	QRImageURL    *string

	ExpiredAt *time.Time
	PaidAt    *time.Time

	// Raw is the full unwrapped payload, retained opaquely for audit.
	Raw map[string]interface{}
}

type Instrument struct {
	PaymentNumber *string
	QRString      *string
	QRImageURL    *string
}

// NormalizeStatus folds the gateway's status vocabulary into the fixed local
// enum. Unknown values map to pending so a vocabulary drift can never mark a
// payment paid or failed on its own.
func NormalizeStatus(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "completed", "paid", "success":
		return entity.StatusPaid
	case "expired":
		return entity.StatusExpired
	case "failed", "cancelled", "canceled":
		return entity.StatusFailed
	default:
		return entity.StatusPending
	}
}

var (
	paymentNumberAliases = []string{
		"payment_number", "va_number", "virtual_account",
		"virtual_account_number", "nomor_va", "va",
	}
	qrStringAliases = []string{
		"qr_string", "qris_string", "qr_content", "qr_code",
		"qr_text", "qris_payload", "payload",
	}
	qrImageURLAliases = []string{
		"qr_url", "qris_url", "qr_image", "qr_image_url", "qrcode_url",
	}
)

// ExtractInstrument pulls payment instrument fields out of a raw payload,
// trying known field aliases in order and taking the first non-empty match.
func ExtractInstrument(raw map[string]interface{}) Instrument {
	return Instrument{
		PaymentNumber: pickFirst(raw, paymentNumberAliases),
		QRString:      pickFirst(raw, qrStringAliases),
		QRImageURL:    pickFirst(raw, qrImageURLAliases),
	}
}

// ParseDetail normalizes one unwrapped gateway payload.
func ParseDetail(raw map[string]interface{}) *Detail {
	if raw == nil {
		raw = map[string]interface{}{}
	}

	gatewayStatus := stringField(raw, "status")
	instrument := ExtractInstrument(raw)

	return &Detail{
		Status:        NormalizeStatus(gatewayStatus),
		GatewayStatus: gatewayStatus,
		Fee:           numberField(raw, "fee"),
		Amount:        numberField(raw, "amount"),
		TotalPayment:  numberField(raw, "total_payment"),
		PaymentNumber: instrument.PaymentNumber,
		QRString:      instrument.QRString,
		QRImageURL:    instrument.QRImageURL,
		ExpiredAt:     timeField(raw, "expired_at"),
		PaidAt:        timeField(raw, "completed_at"),
		Raw:           raw,
	}
}

// unwrapPayload peels the single envelope key some gateway responses wrap the
// payment object in.
func unwrapPayload(raw map[string]interface{}) map[string]interface{} {
	if raw == nil {
		return map[string]interface{}{}
	}
	for _, key := range []string{"data", "payment", "transaction", "result", "response"} {
		if inner, ok := raw[key].(map[string]interface{}); ok {
			return inner
		}
	}
	return raw
}

func pickFirst(raw map[string]interface{}, keys []string) *string {
	for _, key := range keys {
		if s, ok := raw[key].(string); ok {
			trimmed := strings.TrimSpace(s)
			if trimmed != "" {
				return &trimmed
			}
		}
	}
	return nil
}

func stringField(raw map[string]interface{}, key string) string {
	if s, ok := raw[key].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

func numberField(raw map[string]interface{}, key string) int64 {
	switch v := raw[key].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0
		}
		var n int64
		for _, r := range trimmed {
			if r < '0' || r > '9' {
				return 0
			}
			n = n*10 + int64(r-'0')
		}
		return n
	default:
		return 0
	}
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func timeField(raw map[string]interface{}, key string) *time.Time {
	s, ok := raw[key].(string)
	if !ok {
		return nil
	}
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			utc := t.UTC()
			return &utc
		}
	}
	return nil
}
