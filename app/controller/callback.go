package controller

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/bayarqu/ms-go-paybridge/app/factory"
	"github.com/bayarqu/ms-go-paybridge/app/service"
	"github.com/bayarqu/ms-go-paybridge/app/types"
)

// CallbackController receives gateway notifications. The callback body is
// only a hint: the handler always re-fetches authoritative state before
// changing anything.
type CallbackController struct {
	sync          *service.SyncService
	callbackToken string
	logger        logrus.FieldLogger
}

func NewCallbackController(sync *service.SyncService, callbackToken string) *CallbackController {
	return &CallbackController{
		sync:          sync,
		callbackToken: callbackToken,
		logger:        factory.NewModuleLogger("callback-controller"),
	}
}

// Handle processes POST /internal/gateway/callback.
func (ctrl *CallbackController) Handle(c echo.Context) error {
	req, err := types.NewGatewayCallbackRequestFromContext(c)
	if err != nil {
		return writeError(c, http.StatusBadRequest, "invalid_request", "callback body could not be parsed")
	}

	if !ctrl.tokenMatches(req.Token) {
		ctrl.logger.Warn("callback rejected: bad token")
		return writeError(c, http.StatusUnauthorized, "unauthorized", "invalid callback token")
	}

	if err := req.Validate(); err != nil {
		return writeValidationError(c, err)
	}

	tx, err := ctrl.sync.ReconcileByOrderID(c.Request().Context(), req.OrderID)
	if err != nil {
		ctrl.logger.WithError(err).WithField("order_id", req.OrderID).Warn("callback reconcile failed")
		return writeServiceError(c, err)
	}

	return jsonOk(c, http.StatusOK, &types.GatewayCallbackResponse{
		TransactionID: tx.ID,
		Status:        tx.Status,
	})
}

func (ctrl *CallbackController) tokenMatches(token string) bool {
	expected := strings.TrimSpace(ctrl.callbackToken)
	if expected == "" {
		// Without a configured token every callback would be accepted; fail
		// closed instead.
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(token)) == 1
}
