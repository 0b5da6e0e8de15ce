package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/box-builder/internal/layout"
	"github.com/iliyamo/box-builder/internal/model"
	"github.com/iliyamo/box-builder/internal/service"
)

// boxReq is shared by create, PUT and PATCH. Nil fields are left as they
// are on PATCH and are required on create and PUT where noted.
type boxReq struct {
	Name        *string `json:"name"`
	Price       *int64  `json:"price"`
	ImageURL    *string `json:"image_url"`
	Active      *bool   `json:"active"`
	TemplateKey *string `json:"template_key"`
}

func (r boxReq) validate(full bool) string {
	if full && (r.Name == nil || r.TemplateKey == nil || r.Price == nil) {
		return "name, price and template_key are required"
	}
	if r.Name != nil && strings.TrimSpace(*r.Name) == "" {
		return "name must not be empty"
	}
	if r.Price != nil && *r.Price < 0 {
		return "price must not be negative"
	}
	return ""
}

// applyBox writes the request onto b. A template key replaces the geometry
// wholesale.
func (h *OperatorHandler) applyBox(b model.Box, r boxReq) (model.Box, error) {
	if r.TemplateKey != nil {
		tpl, ok := h.Registry.Lookup(*r.TemplateKey)
		if !ok {
			return b, fmt.Errorf("%w: %q", layout.ErrTemplateNotFound, *r.TemplateKey)
		}
		b = b.Rebuild(tpl)
	}
	if r.Name != nil {
		b.Name = strings.TrimSpace(*r.Name)
	}
	if r.Price != nil {
		b.Price = *r.Price
	}
	if r.ImageURL != nil {
		b.ImageURL = strings.TrimSpace(*r.ImageURL)
	}
	if r.Active != nil {
		b.Active = *r.Active
	}
	return b, nil
}

// ListBoxes returns every box, inactive ones included.
func (h *OperatorHandler) ListBoxes(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	boxes, err := h.Catalog.ListBoxes(ctx, false)
	if err != nil {
		return fail(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, boxes)
}

// CreateBox materialises a box from a registry template. New boxes are
// active unless the request says otherwise.
func (h *OperatorHandler) CreateBox(c echo.Context) error {
	var req boxReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if msg := req.validate(true); msg != "" {
		return badRequest(c, msg)
	}
	b, err := h.applyBox(model.Box{Active: true}, req)
	if err != nil {
		return fail(c, h.Logger, err)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	b, err = h.Catalog.CreateBox(ctx, b)
	if err != nil {
		return fail(c, h.Logger, err)
	}
	h.purge(ctx)
	h.Logger.Info("box created", "box", b.ID, "template", b.TemplateKey)
	return c.JSON(http.StatusCreated, b)
}

// UpdateBox handles PUT (all required fields) and PATCH (any subset). A
// replaced image is deleted after the update is stored.
func (h *OperatorHandler) UpdateBox(c echo.Context) error {
	var req boxReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if msg := req.validate(c.Request().Method == http.MethodPut); msg != "" {
		return badRequest(c, msg)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	cur, err := h.Catalog.GetBox(ctx, c.Param("id"))
	if err != nil {
		return fail(c, h.Logger, err)
	}
	next, err := h.applyBox(cur, req)
	if err != nil {
		return fail(c, h.Logger, err)
	}
	saved, err := h.Catalog.UpdateBox(ctx, next)
	if err != nil {
		return fail(c, h.Logger, err)
	}
	if cur.ImageURL != saved.ImageURL {
		h.dropImage(ctx, cur.ImageURL)
	}
	h.purge(ctx)
	return c.JSON(http.StatusOK, saved)
}

// DeleteBox removes the box and then its image.
func (h *OperatorHandler) DeleteBox(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	b, err := h.Catalog.DeleteBox(ctx, c.Param("id"))
	if err != nil {
		return fail(c, h.Logger, err)
	}
	h.dropImage(ctx, b.ImageURL)
	h.purge(ctx)
	h.Logger.Info("box deleted", "box", b.ID)
	return c.NoContent(http.StatusNoContent)
}

// RebuildAll re-materialises every box from its template.
func (h *OperatorHandler) RebuildAll(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	rep, err := service.RebuildBoxes(ctx, h.Catalog, h.Registry, "")
	if len(rep.Updated) > 0 {
		h.purge(ctx)
	}
	if err != nil {
		return fail(c, h.Logger, err)
	}
	h.Logger.Info("boxes rebuilt", "updated", len(rep.Updated), "missing", len(rep.Missing))
	return c.JSON(http.StatusOK, rep)
}

// RebuildOne re-materialises a single box; a box whose template is gone is
// reported as template_not_found.
func (h *OperatorHandler) RebuildOne(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	rep, err := service.RebuildBoxes(ctx, h.Catalog, h.Registry, c.Param("id"))
	if err != nil {
		return fail(c, h.Logger, err)
	}
	if len(rep.Updated) == 0 {
		return fail(c, h.Logger, fmt.Errorf("%w for box %s", layout.ErrTemplateNotFound, c.Param("id")))
	}
	h.purge(ctx)
	return c.JSON(http.StatusOK, rep.Updated[0])
}
