package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/imrishuroy/go-restaurant-pos/internal/apperr"
	"github.com/imrishuroy/go-restaurant-pos/internal/menu"
	"github.com/imrishuroy/go-restaurant-pos/internal/storage"
	"github.com/imrishuroy/go-restaurant-pos/internal/validation"
)

type MenuService interface {
	Create(ctx context.Context, it *menu.Item) error
	List(ctx context.Context) ([]menu.Item, error)
	Get(ctx context.Context, id int64) (*menu.Item, error)
	Count(ctx context.Context) (int64, error)
}

type MenuConfig struct {
	Service MenuService
	Images  storage.ImageStore
	Logger  *slog.Logger
}

type menuHandler struct {
	svc    MenuService
	images storage.ImageStore
	log    *slog.Logger
	v      *validatorv10.Validate
}

func RegisterMenuRoutes(r gin.IRouter, cfg MenuConfig) {
	h := &menuHandler{svc: cfg.Service, images: cfg.Images, log: cfg.Logger, v: validation.New()}

	r.POST("/api/menu", h.create)
	r.GET("/api/menu", h.list)
	r.GET("/menu/:id", h.get)
	r.GET("/api/admin/menu/count", h.count)
}

func (h *menuHandler) create(c *gin.Context) {
	var form validation.MenuForm
	if err := validation.BindFormAndValidate(c, &form, h.v); err != nil {
		return
	}

	it := &menu.Item{
		Name:            form.Name,
		Description:     form.Description,
		Category:        form.Category,
		Availability:    true,
		PreparationTime: form.PreparationTime,
		Tags:            menu.ParseTags(form.Tags),
	}
	var err error
	if it.Price, err = decimal.NewFromString(form.Price); err != nil {
		writeError(c, h.log, apperr.Validation("price must be a number"))
		return
	}
	if form.Discount != "" {
		if it.Discount, err = decimal.NewFromString(form.Discount); err != nil {
			writeError(c, h.log, apperr.Validation("discount must be a number"))
			return
		}
	}
	if form.Availability != nil {
		it.Availability = *form.Availability
	}

	// reject bad items before anything is written to image storage
	if err := it.Validate(); err != nil {
		writeError(c, h.log, err)
		return
	}

	if fh, err := c.FormFile("image"); err == nil {
		url, err := saveUpload(c, h.images, fh)
		if err != nil {
			writeError(c, h.log, err)
			return
		}
		it.ImageURL = &url
	}

	if err := h.svc.Create(c.Request.Context(), it); err != nil {
		if it.ImageURL != nil {
			discardUpload(c.Request.Context(), h.images, h.log, *it.ImageURL)
		}
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Menu item saved successfully", "data": it})
}

func (h *menuHandler) list(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *menuHandler) get(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	it, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, it)
}

func (h *menuHandler) count(c *gin.Context) {
	n, err := h.svc.Count(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": n})
}
