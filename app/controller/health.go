package controller

import (
	"database/sql"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bayarqu/ms-go-paybridge/app/types"
)

type HealthController struct {
	db *sql.DB
}

func NewHealthController(db *sql.DB) *HealthController {
	return &HealthController{db: db}
}

func (ctrl *HealthController) Check(c echo.Context) error {
	if ctrl.db != nil {
		if err := ctrl.db.PingContext(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, types.HealthResponse{Status: "degraded"})
		}
	}
	return c.JSON(http.StatusOK, types.HealthResponse{Status: "ok"})
}
