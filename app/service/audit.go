package service

import (
	"context"

	"github.com/bayarqu/ms-go-paybridge/app/entity"
	"github.com/bayarqu/ms-go-paybridge/app/repository"
)

type webhookLogLister interface {
	ListForProject(ctx context.Context, projectID uint64, transactionID uint64, limit int32) ([]*entity.WebhookLog, error)
}

const webhookLogListLimit = 100

// AuditService exposes the webhook delivery log to merchants.
type AuditService struct {
	logs webhookLogLister
}

func NewAuditService(logs *repository.WebhookLogRepository) *AuditService {
	return &AuditService{logs: logs}
}

func (s *AuditService) ListWebhookLogs(ctx context.Context, projectID, transactionID uint64) ([]*entity.WebhookLog, error) {
	return s.logs.ListForProject(ctx, projectID, transactionID, webhookLogListLimit)
}
