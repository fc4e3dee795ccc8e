package controller

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/bayarqu/ms-go-paybridge/app/factory"
	"github.com/bayarqu/ms-go-paybridge/app/mapper"
	"github.com/bayarqu/ms-go-paybridge/app/middleware"
	"github.com/bayarqu/ms-go-paybridge/app/service"
	"github.com/bayarqu/ms-go-paybridge/app/types"
)

// AccountController serves the merchant-facing account surface: balance,
// withdrawals, and the webhook delivery log.
type AccountController struct {
	balances    *service.BalanceService
	withdrawals *service.WithdrawalService
	audit       *service.AuditService
	limiter     *service.RateLimiter
	logger      logrus.FieldLogger
}

func NewAccountController(
	balances *service.BalanceService,
	withdrawals *service.WithdrawalService,
	audit *service.AuditService,
	limiter *service.RateLimiter,
) *AccountController {
	return &AccountController{
		balances:    balances,
		withdrawals: withdrawals,
		audit:       audit,
		limiter:     limiter,
		logger:      factory.NewModuleLogger("account-controller"),
	}
}

// GetBalance handles GET /balance.
func (ctrl *AccountController) GetBalance(c echo.Context) error {
	project := middleware.ProjectFromContext(c)
	if project == nil {
		return writeUnauthorized(c)
	}

	if allowed, err := ctrl.checkRateLimit(c, project.ID); err != nil {
		return err
	} else if !allowed {
		return writeRateLimited(c)
	}

	balance, err := ctrl.balances.Summarize(c.Request().Context(), project.ID)
	if err != nil {
		ctrl.logger.WithError(err).Error("failed to summarize balance")
		return writeServiceError(c, err)
	}

	return jsonOk(c, http.StatusOK, &types.BalanceResponse{
		TotalBalance:        balance.Total,
		WithdrawableBalance: balance.Withdrawable,
	})
}

// CreateWithdrawal handles POST /withdrawals.
func (ctrl *AccountController) CreateWithdrawal(c echo.Context) error {
	project := middleware.ProjectFromContext(c)
	if project == nil {
		return writeUnauthorized(c)
	}

	if allowed, err := ctrl.checkRateLimit(c, project.ID); err != nil {
		return err
	} else if !allowed {
		return writeRateLimited(c)
	}

	req, err := types.NewCreateWithdrawalRequestFromContext(c)
	if err != nil {
		return writeError(c, http.StatusBadRequest, "invalid_request", "request body could not be parsed")
	}
	if err := req.Validate(); err != nil {
		return writeValidationError(c, err)
	}

	w, err := ctrl.withdrawals.Request(c.Request().Context(), project, req.Amount)
	if err != nil {
		return writeServiceError(c, err)
	}

	return jsonOk(c, http.StatusCreated, mapper.WithdrawalToResponse(w))
}

// ListWithdrawals handles GET /withdrawals.
func (ctrl *AccountController) ListWithdrawals(c echo.Context) error {
	project := middleware.ProjectFromContext(c)
	if project == nil {
		return writeUnauthorized(c)
	}

	if allowed, err := ctrl.checkRateLimit(c, project.ID); err != nil {
		return err
	} else if !allowed {
		return writeRateLimited(c)
	}

	items, err := ctrl.withdrawals.List(c.Request().Context(), project.ID)
	if err != nil {
		return writeServiceError(c, err)
	}

	return jsonOk(c, http.StatusOK, &types.WithdrawalListResponse{
		Items: mapper.WithdrawalsToResponses(items),
	})
}

// ListWebhookLogs handles GET /webhook-logs.
func (ctrl *AccountController) ListWebhookLogs(c echo.Context) error {
	project := middleware.ProjectFromContext(c)
	if project == nil {
		return writeUnauthorized(c)
	}

	if allowed, err := ctrl.checkRateLimit(c, project.ID); err != nil {
		return err
	} else if !allowed {
		return writeRateLimited(c)
	}

	req, err := types.NewListWebhookLogsRequestFromContext(c)
	if err != nil {
		return writeError(c, http.StatusBadRequest, "invalid_request", "transaction_id must be numeric")
	}

	items, err := ctrl.audit.ListWebhookLogs(c.Request().Context(), project.ID, req.TransactionID)
	if err != nil {
		return writeServiceError(c, err)
	}

	return jsonOk(c, http.StatusOK, &types.WebhookLogListResponse{
		Items: mapper.WebhookLogsToResponses(items),
	})
}

func (ctrl *AccountController) checkRateLimit(c echo.Context, projectID uint64) (bool, error) {
	decision, err := ctrl.limiter.Check(c.Request().Context(), projectID, service.RouteRead)
	if err != nil {
		ctrl.logger.WithError(err).Error("rate limit check failed")
		return false, writeServiceError(c, err)
	}
	applyRateLimitHeaders(c, decision)
	return decision.Allowed, nil
}
