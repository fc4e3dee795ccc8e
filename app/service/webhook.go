package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/bayarqu/ms-go-paybridge/app/entity"
	"github.com/bayarqu/ms-go-paybridge/app/factory"
	"github.com/bayarqu/ms-go-paybridge/app/metrics"
	"github.com/bayarqu/ms-go-paybridge/app/repository"
	"github.com/bayarqu/ms-go-paybridge/config"
)

type webhookLogRepository interface {
	Create(ctx context.Context, log *entity.WebhookLog) error
}

type webhookEvent struct {
	ID        string           `json:"id"`
	Type      string           `json:"type"`
	CreatedAt string           `json:"created_at"`
	Data      webhookEventData `json:"data"`
}

type webhookEventData struct {
	TransactionID uint64              `json:"transaction_id"`
	ExternalID    string              `json:"external_id"`
	Status        string              `json:"status"`
	Method        string              `json:"method"`
	Amounts       webhookEventAmounts `json:"amounts"`
	PaidAt        *string             `json:"paid_at"`
}

type webhookEventAmounts struct {
	Amount       int64 `json:"amount"`
	TotalPayment int64 `json:"total_payment"`
}

// WebhookDispatcher delivers terminal transition events to merchant webhook
// endpoints, with a bounded retry schedule and one audit row per attempt.
// Delivery is best effort: exhausting retries never fails the transition that
// triggered it.
type WebhookDispatcher struct {
	logs        webhookLogRepository
	client      *http.Client
	maxAttempts int
	backoffBase time.Duration
	logger      logrus.FieldLogger
	now         func() time.Time
}

func NewWebhookDispatcher(logs *repository.WebhookLogRepository, cfg config.WebhooksConfig) *WebhookDispatcher {
	return newWebhookDispatcher(logs, cfg)
}

func newWebhookDispatcher(logs webhookLogRepository, cfg config.WebhooksConfig) *WebhookDispatcher {
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	backoffBase := cfg.BackoffBase
	if backoffBase <= 0 {
		backoffBase = 300 * time.Millisecond
	}
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &WebhookDispatcher{
		logs:        logs,
		client:      &http.Client{Timeout: timeout},
		maxAttempts: maxAttempts,
		backoffBase: backoffBase,
		logger:      factory.NewModuleLogger("webhook-dispatcher"),
		now:         time.Now,
	}
}

// Dispatch delivers one event for a transaction that just reached a terminal
// status. It retries on any non-2xx outcome, waiting backoffBase*2^(n-1)
// between attempts, and gives up after maxAttempts.
func (d *WebhookDispatcher) Dispatch(ctx context.Context, project *entity.Project, tx *entity.Transaction) {
	targetURL := strings.TrimSpace(project.WebhookURL)
	if targetURL == "" {
		metrics.WebhookDeliveries.WithLabelValues("skipped").Inc()
		d.logger.WithFields(logrus.Fields{
			"project_id":     project.ID,
			"transaction_id": tx.ID,
		}).Info("webhook url not configured, skipping delivery")
		return
	}

	eventType := "transaction." + tx.Status
	body, err := json.Marshal(d.buildEvent(tx, eventType))
	if err != nil {
		d.logger.WithError(err).Error("failed to encode webhook event")
		return
	}

	for attempt := 1; attempt <= d.maxAttempts; attempt++ {
		if attempt > 1 {
			backoff := d.backoffBase << (attempt - 2)
			select {
			case <-ctx.Done():
				metrics.WebhookDeliveries.WithLabelValues("exhausted").Inc()
				return
			case <-time.After(backoff):
			}
		}

		code, respBody, attemptErr := d.attempt(ctx, targetURL, body)
		success := attemptErr == nil && code >= 200 && code < 300

		record := &entity.WebhookLog{
			ProjectID:     project.ID,
			TransactionID: tx.ID,
			EventType:     eventType,
			AttemptNo:     int32(attempt),
			IsSuccess:     success,
			TargetURL:     targetURL,
			RequestBody:   string(body),
			CreatedAt:     d.now().UTC(),
		}
		if attemptErr != nil {
			msg := attemptErr.Error()
			record.ResponseBody = &msg
		} else {
			record.ResponseCode = &code
			if respBody != "" {
				record.ResponseBody = &respBody
			}
		}
		if err := d.logs.Create(ctx, record); err != nil {
			d.logger.WithError(err).Error("failed to persist webhook log")
		}

		if success {
			metrics.WebhookAttempts.WithLabelValues("success").Inc()
			metrics.WebhookDeliveries.WithLabelValues("delivered").Inc()
			return
		}
		metrics.WebhookAttempts.WithLabelValues("failure").Inc()

		d.logger.WithFields(logrus.Fields{
			"transaction_id": tx.ID,
			"attempt":        attempt,
			"status_code":    code,
		}).Warn("webhook delivery attempt failed")
	}

	metrics.WebhookDeliveries.WithLabelValues("exhausted").Inc()
	d.logger.WithFields(logrus.Fields{
		"project_id":     project.ID,
		"transaction_id": tx.ID,
	}).Error("webhook delivery exhausted all attempts")
}

func (d *WebhookDispatcher) buildEvent(tx *entity.Transaction, eventType string) *webhookEvent {
	var paidAt *string
	if tx.PaidAt != nil {
		s := tx.PaidAt.UTC().Format(time.RFC3339)
		paidAt = &s
	}

	return &webhookEvent{
		ID:        fmt.Sprintf("evt_%d", tx.ID),
		Type:      eventType,
		CreatedAt: d.now().UTC().Format(time.RFC3339),
		Data: webhookEventData{
			TransactionID: tx.ID,
			ExternalID:    tx.ExternalID,
			Status:        tx.Status,
			Method:        tx.Method,
			Amounts: webhookEventAmounts{
				Amount:       tx.Amount,
				TotalPayment: tx.GrossReceived(),
			},
			PaidAt: paidAt,
		},
	}
}

func (d *WebhookDispatcher) attempt(ctx context.Context, targetURL string, body []byte) (int32, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, targetURL, bytes.NewReader(body))
	if err != nil {
		return 0, "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	// Response bodies are kept short in the audit log.
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	return int32(resp.StatusCode), string(respBody), nil
}
