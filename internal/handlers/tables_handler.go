package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/imrishuroy/go-restaurant-pos/internal/tables"
	"github.com/imrishuroy/go-restaurant-pos/internal/validation"
)

type TableService interface {
	ListTables(ctx context.Context) ([]tables.Table, error)
	CreateTable(ctx context.Context, number int, status string) (*tables.Table, error)
	UpdateTableStatus(ctx context.Context, id int64, status string) error
}

type TablesConfig struct {
	Service TableService
	Logger  *slog.Logger
}

type tablesHandler struct {
	svc TableService
	log *slog.Logger
	v   *validatorv10.Validate
}

func RegisterTablesRoutes(r gin.IRouter, cfg TablesConfig) {
	h := &tablesHandler{svc: cfg.Service, log: cfg.Logger, v: validation.New()}

	r.GET("/api/tables", h.list)
	r.POST("/api/tables", h.create)
	r.PUT("/api/tables/:id/status", h.updateStatus)
}

func (h *tablesHandler) list(c *gin.Context) {
	out, err := h.svc.ListTables(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *tablesHandler) create(c *gin.Context) {
	var req validation.CreateTableRequest
	if err := validation.BindAndValidate(c, &req, h.v); err != nil {
		return
	}
	t, err := h.svc.CreateTable(c.Request.Context(), req.Number, req.Status)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Table created successfully", "table": t})
}

func (h *tablesHandler) updateStatus(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	var req validation.UpdateTableStatusRequest
	if err := validation.BindAndValidate(c, &req, h.v); err != nil {
		return
	}
	if err := h.svc.UpdateTableStatus(c.Request.Context(), id, req.Status); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Table status updated successfully"})
}
