package controller

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/bayarqu/ms-go-paybridge/app/factory"
	"github.com/bayarqu/ms-go-paybridge/app/mapper"
	"github.com/bayarqu/ms-go-paybridge/app/middleware"
	"github.com/bayarqu/ms-go-paybridge/app/service"
	"github.com/bayarqu/ms-go-paybridge/app/types"
)

type TransactionController struct {
	transactions *service.TransactionService
	sync         *service.SyncService
	guard        *service.IdempotencyGuard
	limiter      *service.RateLimiter
	logger       logrus.FieldLogger
}

func NewTransactionController(
	transactions *service.TransactionService,
	sync *service.SyncService,
	guard *service.IdempotencyGuard,
	limiter *service.RateLimiter,
) *TransactionController {
	return &TransactionController{
		transactions: transactions,
		sync:         sync,
		guard:        guard,
		limiter:      limiter,
		logger:       factory.NewModuleLogger("transactions-controller"),
	}
}

// Create handles POST /transactions. The Idempotency-Key header is mandatory
// so a retried request can never open a second payment.
func (ctrl *TransactionController) Create(c echo.Context) error {
	project := middleware.ProjectFromContext(c)
	if project == nil {
		return writeUnauthorized(c)
	}

	if allowed, err := ctrl.checkRateLimit(c, project.ID, service.RouteCreate); err != nil {
		return err
	} else if !allowed {
		return writeRateLimited(c)
	}

	idempotencyKey := strings.TrimSpace(c.Request().Header.Get("Idempotency-Key"))
	if idempotencyKey == "" {
		return writeError(c, http.StatusBadRequest, "idempotency_key_required", "the Idempotency-Key header is required")
	}

	req, err := types.NewCreateTransactionRequestFromContext(c)
	if err != nil {
		return writeError(c, http.StatusBadRequest, "invalid_request", "request body could not be parsed")
	}
	if err := req.Validate(); err != nil {
		return writeValidationError(c, err)
	}

	requestHash, err := service.HashRequest(req)
	if err != nil {
		ctrl.logger.WithError(err).Error("failed to hash request")
		return writeServiceError(c, err)
	}

	begin, err := ctrl.guard.Begin(c.Request().Context(), project.ID, idempotencyKey, requestHash)
	if err != nil {
		ctrl.logger.WithError(err).Error("idempotency begin failed")
		return writeServiceError(c, err)
	}

	switch begin.Outcome {
	case service.BeginConflict:
		return writeServiceError(c, service.ErrIdempotencyConflict)
	case service.BeginInFlight:
		return writeServiceError(c, service.ErrIdempotencyInFlight)
	case service.BeginReplay:
		return c.JSON(int(begin.ResponseStatus), types.ReplayResponse{
			Success: true,
			Data:    json.RawMessage(begin.ResponseBody),
		})
	}

	tx, err := ctrl.transactions.Create(c.Request().Context(), project, req)
	if err != nil {
		// The lease stays with this failed attempt until it expires; a retry
		// before then is rejected rather than risking a duplicate payment.
		return writeServiceError(c, err)
	}

	data := mapper.TransactionToCreated(tx)
	body, err := json.Marshal(data)
	if err != nil {
		ctrl.logger.WithError(err).Error("failed to serialize create response")
		return writeServiceError(c, err)
	}
	if err := ctrl.guard.Complete(c.Request().Context(), begin.RecordID, http.StatusCreated, string(body)); err != nil {
		ctrl.logger.WithError(err).Error("failed to store idempotent response")
	}

	return jsonOk(c, http.StatusCreated, data)
}

// Get handles GET /transactions/:id.
func (ctrl *TransactionController) Get(c echo.Context) error {
	project := middleware.ProjectFromContext(c)
	if project == nil {
		return writeUnauthorized(c)
	}

	if allowed, err := ctrl.checkRateLimit(c, project.ID, service.RouteRead); err != nil {
		return err
	} else if !allowed {
		return writeRateLimited(c)
	}

	req, err := types.NewGetTransactionRequestFromContext(c)
	if err != nil {
		return writeError(c, http.StatusBadRequest, "invalid_request", "transaction id must be numeric")
	}
	if err := req.Validate(); err != nil {
		return writeValidationError(c, err)
	}

	tx, err := ctrl.transactions.Get(c.Request().Context(), project.ID, req.ID)
	if err != nil {
		return writeServiceError(c, err)
	}

	return jsonOk(c, http.StatusOK, mapper.TransactionToResponse(tx))
}

// List handles GET /transactions.
func (ctrl *TransactionController) List(c echo.Context) error {
	project := middleware.ProjectFromContext(c)
	if project == nil {
		return writeUnauthorized(c)
	}

	if allowed, err := ctrl.checkRateLimit(c, project.ID, service.RouteRead); err != nil {
		return err
	} else if !allowed {
		return writeRateLimited(c)
	}

	req, err := types.NewListTransactionsRequestFromContext(c)
	if err != nil {
		return writeError(c, http.StatusBadRequest, "invalid_request", "pagination parameters must be numeric")
	}
	if err := req.Validate(); err != nil {
		return writeValidationError(c, err)
	}

	items, total, err := ctrl.transactions.List(c.Request().Context(), project.ID, req)
	if err != nil {
		return writeServiceError(c, err)
	}

	return jsonOk(c, http.StatusOK, &types.TransactionListResponse{
		Items: mapper.TransactionsToListItems(items),
		Pagination: types.Pagination{
			Page:    req.Page,
			PerPage: req.PerPage,
			Total:   total,
		},
	})
}

// Sync handles POST /transactions/:id/sync, forcing a reconcile against the
// gateway.
func (ctrl *TransactionController) Sync(c echo.Context) error {
	project := middleware.ProjectFromContext(c)
	if project == nil {
		return writeUnauthorized(c)
	}

	if allowed, err := ctrl.checkRateLimit(c, project.ID, service.RouteSync); err != nil {
		return err
	} else if !allowed {
		return writeRateLimited(c)
	}

	req, err := types.NewGetTransactionRequestFromContext(c)
	if err != nil {
		return writeError(c, http.StatusBadRequest, "invalid_request", "transaction id must be numeric")
	}
	if err := req.Validate(); err != nil {
		return writeValidationError(c, err)
	}

	tx, err := ctrl.sync.Reconcile(c.Request().Context(), project.ID, req.ID)
	if err != nil {
		return writeServiceError(c, err)
	}

	return jsonOk(c, http.StatusOK, mapper.TransactionToSync(tx))
}

func (ctrl *TransactionController) checkRateLimit(c echo.Context, projectID uint64, routeKey string) (bool, error) {
	decision, err := ctrl.limiter.Check(c.Request().Context(), projectID, routeKey)
	if err != nil {
		ctrl.logger.WithError(err).Error("rate limit check failed")
		return false, writeServiceError(c, err)
	}
	applyRateLimitHeaders(c, decision)
	return decision.Allowed, nil
}
