package mapper

import (
	"time"

	"github.com/bayarqu/ms-go-paybridge/app/entity"
	"github.com/bayarqu/ms-go-paybridge/app/gateway"
	"github.com/bayarqu/ms-go-paybridge/app/types"
)

func TransactionToCreated(tx *entity.Transaction) *types.TransactionCreatedResponse {
	if tx == nil {
		return nil
	}

	return &types.TransactionCreatedResponse{
		ID:             tx.ID,
		ExternalID:     tx.ExternalID,
		GatewayOrderID: tx.GatewayOrderID,
		Method:         tx.Method,
		Status:         tx.Status,
		Amount:         tx.Amount,
		TotalPayment:   tx.GrossReceived(),
		PaymentNumber:  tx.PaymentNumber,
		QRString:       tx.QRString,
		QRImageURL:     tx.QRImageURL,
		ExpiredAt:      formatTimePtr(tx.ExpiredAt),
	}
}

// TransactionToResponse builds the detail projection. Instrument fields fall
// back to a fresh extraction from the stored raw payload for rows persisted
// before an alias was known.
func TransactionToResponse(tx *entity.Transaction) *types.TransactionResponse {
	if tx == nil {
		return nil
	}

	instrument := gateway.ExtractInstrument(tx.GatewayRaw)
	paymentNumber := tx.PaymentNumber
	if paymentNumber == nil {
		paymentNumber = instrument.PaymentNumber
	}
	qrString := tx.QRString
	if qrString == nil {
		qrString = instrument.QRString
	}
	qrImageURL := tx.QRImageURL
	if qrImageURL == nil {
		qrImageURL = instrument.QRImageURL
	}

	return &types.TransactionResponse{
		ID:             tx.ID,
		ExternalID:     tx.ExternalID,
		GatewayOrderID: tx.GatewayOrderID,
		Method:         tx.Method,
		Status:         tx.Status,
		Amount:         tx.Amount,
		TotalPayment:   tx.GrossReceived(),
		PaymentNumber:  paymentNumber,
		QRString:       qrString,
		QRImageURL:     qrImageURL,
		ExpiredAt:      formatTimePtr(tx.ExpiredAt),
		PaidAt:         formatTimePtr(tx.PaidAt),
		CreatedAt:      tx.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func TransactionToListItem(tx *entity.Transaction) *types.TransactionListItem {
	return &types.TransactionListItem{
		ID:           tx.ID,
		ExternalID:   tx.ExternalID,
		Method:       tx.Method,
		Status:       tx.Status,
		Amount:       tx.Amount,
		TotalPayment: tx.GrossReceived(),
		CreatedAt:    tx.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func TransactionsToListItems(items []*entity.Transaction) []*types.TransactionListItem {
	result := make([]*types.TransactionListItem, 0, len(items))
	for _, item := range items {
		result = append(result, TransactionToListItem(item))
	}
	return result
}

func TransactionToSync(tx *entity.Transaction) *types.SyncTransactionResponse {
	if tx == nil {
		return nil
	}

	return &types.SyncTransactionResponse{
		ID:            tx.ID,
		Status:        tx.Status,
		GatewayStatus: tx.GatewayStatus,
		TotalPayment:  tx.GrossReceived(),
		PaymentNumber: tx.PaymentNumber,
		QRString:      tx.QRString,
		PaidAt:        formatTimePtr(tx.PaidAt),
	}
}

func WithdrawalToResponse(w *entity.Withdrawal) *types.WithdrawalResponse {
	return &types.WithdrawalResponse{
		ID:          w.ID,
		Status:      w.Status,
		AmountGross: w.AmountGross,
		AmountFee:   w.AmountFee,
		AmountNet:   w.AmountNet,
		BankName:    w.PayoutBankName,
		ProcessedAt: formatTimePtr(w.ProcessedAt),
		CreatedAt:   w.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func WithdrawalsToResponses(items []*entity.Withdrawal) []*types.WithdrawalResponse {
	result := make([]*types.WithdrawalResponse, 0, len(items))
	for _, item := range items {
		result = append(result, WithdrawalToResponse(item))
	}
	return result
}

func WebhookLogToResponse(log *entity.WebhookLog) *types.WebhookLogResponse {
	return &types.WebhookLogResponse{
		ID:            log.ID,
		TransactionID: log.TransactionID,
		EventType:     log.EventType,
		AttemptNo:     log.AttemptNo,
		IsSuccess:     log.IsSuccess,
		TargetURL:     log.TargetURL,
		ResponseCode:  log.ResponseCode,
		ResponseBody:  log.ResponseBody,
		CreatedAt:     log.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func WebhookLogsToResponses(items []*entity.WebhookLog) []*types.WebhookLogResponse {
	result := make([]*types.WebhookLogResponse, 0, len(items))
	for _, item := range items {
		result = append(result, WebhookLogToResponse(item))
	}
	return result
}

func formatTimePtr(v *time.Time) *string {
	if v == nil {
		return nil
	}
	s := v.UTC().Format(time.RFC3339)
	return &s
}
