package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(baseURL string) *Client {
	return NewClient(Config{
		BaseURL:     baseURL,
		Project:     "demo",
		APIKey:      "secret",
		HTTPTimeout: 2 * time.Second,
	})
}

func TestCreateTransactionSuccess(t *testing.T) {
	var gotPath string
	var gotBody map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]interface{}{
				"status":     "pending",
				"amount":     100000,
				"qr_string":  "00020101021226",
				"expired_at": "2026-09-01T12:00:00Z",
			},
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	detail, err := client.CreateTransaction(context.Background(), &CreateInput{
		Method:      "qris",
		Amount:      100000,
		OrderID:     "shop-abc-123",
		PayerName:   "Budi",
		CallbackURL: "https://pay.example.com/cb",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if gotPath != "/api/transactioncreate/qris" {
		t.Fatalf("unexpected path: %s", gotPath)
	}
	if gotBody["project"] != "demo" || gotBody["api_key"] != "secret" {
		t.Fatalf("credentials missing from payload: %v", gotBody)
	}
	if gotBody["order_id"] != "shop-abc-123" || gotBody["payer_name"] != "Budi" {
		t.Fatalf("unexpected payload: %v", gotBody)
	}
	if gotBody["callback_url"] != "https://pay.example.com/cb" {
		t.Fatalf("callback url missing: %v", gotBody)
	}

	if detail.Status != "pending" || detail.Amount != 100000 {
		t.Fatalf("unexpected detail: %+v", detail)
	}
	if detail.QRString == nil || *detail.QRString != "00020101021226" {
		t.Fatalf("qr string not extracted: %+v", detail)
	}
	if detail.ExpiredAt == nil {
		t.Fatal("expired_at not parsed")
	}
}

func TestCreateTransactionDefaultsPayerName(t *testing.T) {
	var gotBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"status": "pending"})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	if _, err := client.CreateTransaction(context.Background(), &CreateInput{Method: "qris", Amount: 5000, OrderID: "x"}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if gotBody["payer_name"] != "Customer" {
		t.Fatalf("expected default payer name, got %v", gotBody["payer_name"])
	}
}

func TestCreateTransactionFailedEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status": "failed",
			"msg":    "amount below minimum",
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.CreateTransaction(context.Background(), &CreateInput{Method: "qris", Amount: 1, OrderID: "x"})
	if err == nil {
		t.Fatal("expected error for failed envelope")
	}
	gwErr, ok := err.(*Error)
	if !ok {
		t.Fatalf("expected *Error, got %T", err)
	}
	if gwErr.Reason != "amount below minimum" {
		t.Fatalf("expected gateway reason to surface, got %q", gwErr.Reason)
	}
}

func TestFetchDetailNon2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.FetchDetail(context.Background(), 100000, "order-1")
	if err == nil {
		t.Fatal("expected error for non-2xx response")
	}
	if _, ok := err.(*Error); !ok {
		t.Fatalf("expected *Error, got %T", err)
	}
}

func TestFetchDetailQueryParams(t *testing.T) {
	var gotQuery map[string][]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"transaction": map[string]interface{}{
				"status":        "completed",
				"amount":        150000,
				"total_payment": 150000,
				"completed_at":  "2026-08-31 09:30:00",
			},
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	detail, err := client.FetchDetail(context.Background(), 150000, "order-2")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if gotQuery["project"][0] != "demo" || gotQuery["order_id"][0] != "order-2" || gotQuery["amount"][0] != "150000" {
		t.Fatalf("unexpected query: %v", gotQuery)
	}
	if detail.Status != "paid" || detail.GatewayStatus != "completed" {
		t.Fatalf("unexpected detail status: %+v", detail)
	}
	if detail.PaidAt == nil {
		t.Fatal("completed_at not parsed")
	}
}

func TestClientNotConfigured(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://localhost:1"})
	if client.Configured() {
		t.Fatal("client must not report configured without credentials")
	}
	if _, err := client.CreateTransaction(context.Background(), &CreateInput{}); err == nil {
		t.Fatal("expected error without credentials")
	}
	if _, err := client.FetchDetail(context.Background(), 1, "x"); err == nil {
		t.Fatal("expected error without credentials")
	}
}

func TestNormalizeStatus(t *testing.T) {
	cases := map[string]string{
		"completed": "paid",
		"PAID":      "paid",
		"Success":   "paid",
		"expired":   "expired",
		"failed":    "failed",
		"cancelled": "failed",
		"canceled":  "failed",
		"pending":   "pending",
		"unknown":   "pending",
		"":          "pending",
	}
	for raw, want := range cases {
		if got := NormalizeStatus(raw); got != want {
			t.Fatalf("NormalizeStatus(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestExtractInstrumentAliasOrder(t *testing.T) {
	raw := map[string]interface{}{
		"va_number":       "8808123",
		"virtual_account": "ignored",
		"qris_string":     "QR-DATA",
		"qr_image":        "https://img.example.com/qr.png",
	}

	instrument := ExtractInstrument(raw)
	if instrument.PaymentNumber == nil || *instrument.PaymentNumber != "8808123" {
		t.Fatalf("unexpected payment number: %+v", instrument)
	}
	if instrument.QRString == nil || *instrument.QRString != "QR-DATA" {
		t.Fatalf("unexpected qr string: %+v", instrument)
	}
	if instrument.QRImageURL == nil || *instrument.QRImageURL != "https://img.example.com/qr.png" {
		t.Fatalf("unexpected qr image url: %+v", instrument)
	}
}

func TestExtractInstrumentSkipsEmptyValues(t *testing.T) {
	raw := map[string]interface{}{
		"payment_number": "   ",
		"va_number":      "999",
	}
	instrument := ExtractInstrument(raw)
	if instrument.PaymentNumber == nil || *instrument.PaymentNumber != "999" {
		t.Fatalf("blank alias should be skipped: %+v", instrument)
	}
	if instrument.QRString != nil {
		t.Fatal("absent fields must be nil")
	}
}

func TestParseDetailUnparsableTimestamps(t *testing.T) {
	detail := ParseDetail(map[string]interface{}{
		"status":       "pending",
		"expired_at":   "not-a-date",
		"completed_at": 12345,
	})
	if detail.ExpiredAt != nil || detail.PaidAt != nil {
		t.Fatalf("unparsable timestamps must be nil: %+v", detail)
	}
}

func TestUnwrapPayloadAliases(t *testing.T) {
	for _, key := range []string{"data", "payment", "transaction", "result", "response"} {
		raw := map[string]interface{}{
			key: map[string]interface{}{"status": "paid"},
		}
		got := unwrapPayload(raw)
		if got["status"] != "paid" {
			t.Fatalf("unwrap %q failed: %v", key, got)
		}
	}

	flat := map[string]interface{}{"status": "paid"}
	if got := unwrapPayload(flat); got["status"] != "paid" {
		t.Fatalf("flat payload must pass through: %v", got)
	}
}
