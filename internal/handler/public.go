package handler

import (
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/box-builder/internal/layout"
	"github.com/iliyamo/box-builder/internal/model"
	"github.com/iliyamo/box-builder/internal/repository"
)

// PublicHandler serves the read-only catalog: templates, active boxes and
// items.
type PublicHandler struct {
	Catalog   repository.Catalog
	Registry  *layout.Registry
	Projector *layout.Projector
	Logger    *log.Logger
}

func NewPublicHandler(cat repository.Catalog, reg *layout.Registry, logger *log.Logger) *PublicHandler {
	return &PublicHandler{Catalog: cat, Registry: reg, Projector: layout.NewProjector(reg), Logger: logger}
}

// ListTemplates returns every registry template in registration order.
func (h *PublicHandler) ListTemplates(c echo.Context) error {
	tpls := h.Registry.Templates()
	out := make([]templateView, len(tpls))
	for i, t := range tpls {
		out[i] = templateView{
			Key:      t.Key,
			Label:    t.Label,
			Shape:    t.Shape,
			Capacity: t.Capacity,
			SlotSize: h.Projector.ResolveSlotSize(t.Geometry),
			FillRule: layout.FillRule(t.Geometry),
		}
	}
	return c.JSON(http.StatusOK, out)
}

// TemplateLayout projects a template's slots and reports its fill order.
func (h *PublicHandler) TemplateLayout(c echo.Context) error {
	tpl, ok := h.Registry.Lookup(c.Param("key"))
	if !ok {
		return fail(c, h.Logger, layout.ErrTemplateNotFound)
	}
	return c.JSON(http.StatusOK, newLayoutView(h.Projector, tpl.Geometry))
}

// ListBoxes returns active boxes only.
func (h *PublicHandler) ListBoxes(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	boxes, err := h.Catalog.ListBoxes(ctx, true)
	if err != nil {
		return fail(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, boxes)
}

func (h *PublicHandler) GetBox(c echo.Context) error {
	b, err := h.activeBox(c)
	if err != nil {
		return fail(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, b)
}

// BoxLayout projects the box's own geometry, falling back to its template
// for missing inner rectangle or slot size.
func (h *PublicHandler) BoxLayout(c echo.Context) error {
	b, err := h.activeBox(c)
	if err != nil {
		return fail(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, newLayoutView(h.Projector, b.Geometry))
}

// ListItems accepts ?filter=all|popular|in_stock.
func (h *PublicHandler) ListItems(c echo.Context) error {
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

// activeBox loads the :id box; inactive boxes are hidden from the public.
func (h *PublicHandler) activeBox(c echo.Context) (model.Box, error) {
	ctx, cancel := reqCtx(c)
	defer cancel()
	b, err := h.Catalog.GetBox(ctx, c.Param("id"))
	if err != nil {
		return model.Box{}, err
	}
	if !b.Active {
		return model.Box{}, fmt.Errorf("%w: box %s is not active", repository.ErrNotFound, b.ID)
	}
	return b, nil
}
