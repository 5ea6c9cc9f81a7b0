package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/imrishuroy/go-restaurant-pos/internal/apperr"
	"github.com/imrishuroy/go-restaurant-pos/internal/idempotency"
	"github.com/imrishuroy/go-restaurant-pos/internal/orders"
	"github.com/imrishuroy/go-restaurant-pos/internal/validation"
)

// OrderService is the order workflow used by the routes.
type OrderService interface {
	PlaceOrder(ctx context.Context, req orders.PlaceRequest) (orders.Placement, error)
	PlaceOrUpdateOrder(ctx context.Context, req orders.PlaceRequest) (orders.Placement, error)
	ListOrders(ctx context.Context) ([]orders.Order, error)
	ListOrdersDetailed(ctx context.Context) ([]orders.DetailedRow, error)
	GetOrder(ctx context.Context, orderID int64) ([]orders.DetailedRow, error)
	GetOrderItems(ctx context.Context, orderID int64) ([]orders.OrderItem, error)
	CountOrders(ctx context.Context) (int64, error)
}

// IdempotencyStore remembers placements by Idempotency-Key.
type IdempotencyStore interface {
	Begin(ctx context.Context, key, fingerprint string) (idempotency.Decision, *idempotency.Record, error)
	MarkDone(ctx context.Context, key, responseBody string, responseStatus int) error
	MarkFailed(ctx context.Context, key, note string) error
}

// OrdersConfig groups dependencies for the orders routes. Idempotency is optional.
type OrdersConfig struct {
	Service     OrderService
	Idempotency IdempotencyStore
	Logger      *slog.Logger
}

type ordersHandler struct {
	svc  OrderService
	idem IdempotencyStore
	log  *slog.Logger
	v    *validatorv10.Validate
}

// RegisterOrdersRoutes registers order placement and retrieval routes.
func RegisterOrdersRoutes(r gin.IRouter, cfg OrdersConfig) {
	h := &ordersHandler{svc: cfg.Service, idem: cfg.Idempotency, log: cfg.Logger, v: validation.New()}

	r.POST("/api/orders", h.place(cfg.Service.PlaceOrder))
	r.POST("/api/orderssingle", h.place(cfg.Service.PlaceOrUpdateOrder))
	r.GET("/orders", h.list)
	r.GET("/orders/detailed", h.listDetailed)
	r.GET("/orders/:id", h.get)
	r.GET("/orders/items/:orderId", h.items)
	r.GET("/api/admin/orders/count", h.count)
}

type placeFunc func(ctx context.Context, req orders.PlaceRequest) (orders.Placement, error)

func (h *ordersHandler) place(fn placeFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			writeError(c, h.log, apperr.Validation("could not read request body"))
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		var req validation.PlaceOrderRequest
		if err := validation.BindAndValidate(c, &req, h.v); err != nil {
			// BindAndValidate already wrote a 400
			return
		}

		key := c.GetHeader("Idempotency-Key")
		claimed := false
		if key != "" && h.idem != nil {
			decision, rec, err := h.idem.Begin(ctx, key, idempotency.Fingerprint(c.Request.Method, c.FullPath(), body))
			if err != nil {
				writeError(c, h.log, err)
				return
			}
			switch decision {
			case idempotency.Replay:
				c.Header("Idempotent-Replayed", "true")
				c.Data(rec.ResponseStatus, "application/json; charset=utf-8", []byte(rec.ResponseBody))
				return
			case idempotency.InFlight:
				writeError(c, h.log, apperr.Conflict("a request with this idempotency key is still in progress"))
				return
			}
			claimed = true
		}

		res, err := fn(ctx, toPlaceRequest(req))
		if err != nil {
			if claimed {
				if merr := h.idem.MarkFailed(ctx, key, err.Error()); merr != nil {
					h.log.Error("failed to release idempotency key", "key", key, "error", merr)
				}
			}
			writeError(c, h.log, err)
			return
		}

		resp := gin.H{"message": "Order placed successfully", "order_id": res.OrderID, "merged": res.Merged}
		if claimed {
			stored, _ := json.Marshal(resp)
			if merr := h.idem.MarkDone(ctx, key, string(stored), http.StatusCreated); merr != nil {
				h.log.Error("failed to store idempotent response", "key", key, "error", merr)
			}
		}
		c.Header("Location", fmt.Sprintf("/orders/%d", res.OrderID))
		c.JSON(http.StatusCreated, resp)
	}
}

func toPlaceRequest(req validation.PlaceOrderRequest) orders.PlaceRequest {
	items := make([]orders.LineItem, 0, len(req.OrderItems))
	for _, it := range req.OrderItems {
		items = append(items, orders.LineItem{
			MenuItemID: it.ItemID(),
			Quantity:   it.Quantity,
			UnitPrice:  *it.Price,
		})
	}
	return orders.PlaceRequest{
		TableNumber:   req.TableNumber,
		Items:         items,
		PaymentStatus: req.PaymentStatus,
		OrderStatus:   req.OrderStatus,
	}
}

func (h *ordersHandler) list(c *gin.Context) {
	out, err := h.svc.ListOrders(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *ordersHandler) listDetailed(c *gin.Context) {
	out, err := h.svc.ListOrdersDetailed(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *ordersHandler) get(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	rows, err := h.svc.GetOrder(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *ordersHandler) items(c *gin.Context) {
	id, err := paramID(c, "orderId")
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	items, err := h.svc.GetOrderItems(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *ordersHandler) count(c *gin.Context) {
	n, err := h.svc.CountOrders(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": n})
}
