package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/box-builder/internal/model"
)

type itemReq struct {
	Name     *string `json:"name"`
	Color    *string `json:"color"`
	Price    *int64  `json:"price"`
	ImageURL *string `json:"image_url"`
	InStock  *bool   `json:"in_stock"`
	Popular  *bool   `json:"popular"`
}

func (r itemReq) validate(full bool) string {
	if full && (r.Name == nil || r.Price == nil) {
		return "name and price are required"
	}
	if r.Name != nil && strings.TrimSpace(*r.Name) == "" {
		return "name must not be empty"
	}
	if r.Price != nil && *r.Price < 0 {
		return "price must not be negative"
	}
	return ""
}

func (r itemReq) apply(it model.Item) model.Item {
	if r.Name != nil {
		it.Name = strings.TrimSpace(*r.Name)
	}
	if r.Color != nil {
		it.Color = strings.TrimSpace(*r.Color)
	}
	if r.Price != nil {
		it.Price = *r.Price
	}
	if r.ImageURL != nil {
		it.ImageURL = strings.TrimSpace(*r.ImageURL)
	}
	if r.InStock != nil {
		it.InStock = *r.InStock
	}
	if r.Popular != nil {
		it.Popular = *r.Popular
	}
	return it
}

// ListItems accepts the same filter as the public listing.
func (h *OperatorHandler) ListItems(c echo.Context) error {
	f, ok := model.ParseItemFilter(c.QueryParam("filter"))
	if !ok {
		return badRequest(c, "filter must be all, popular or in_stock")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	items, err := h.Catalog.ListItems(ctx, f)
	if err != nil {
		return fail(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, items)
}

// CreateItem adds an item; it starts in stock and not popular.
func (h *OperatorHandler) CreateItem(c echo.Context) error {
	var req itemReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if msg := req.validate(true); msg != "" {
		return badRequest(c, msg)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	it, err := h.Catalog.CreateItem(ctx, req.apply(model.Item{InStock: true}))
	if err != nil {
		return fail(c, h.Logger, err)
	}
	h.purge(ctx)
	return c.JSON(http.StatusCreated, it)
}

func (h *OperatorHandler) UpdateItem(c echo.Context) error {
	var req itemReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if msg := req.validate(c.Request().Method == http.MethodPut); msg != "" {
		return badRequest(c, msg)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	cur, err := h.Catalog.GetItem(ctx, c.Param("id"))
	if err != nil {
		return fail(c, h.Logger, err)
	}
	saved, err := h.Catalog.UpdateItem(ctx, req.apply(cur))
	if err != nil {
		return fail(c, h.Logger, err)
	}
	if cur.ImageURL != saved.ImageURL {
		h.dropImage(ctx, cur.ImageURL)
	}
	h.purge(ctx)
	return c.JSON(http.StatusOK, saved)
}

func (h *OperatorHandler) DeleteItem(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	it, err := h.Catalog.DeleteItem(ctx, c.Param("id"))
	if err != nil {
		return fail(c, h.Logger, err)
	}
	h.dropImage(ctx, it.ImageURL)
	h.purge(ctx)
	return c.NoContent(http.StatusNoContent)
}
