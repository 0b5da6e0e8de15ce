package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/box-builder/internal/builder"
	"github.com/iliyamo/box-builder/internal/layout"
	"github.com/iliyamo/box-builder/internal/model"
	"github.com/iliyamo/box-builder/internal/queue"
	"github.com/iliyamo/box-builder/internal/repository"
	"github.com/iliyamo/box-builder/internal/service"
)

// SessionHandler drives composition sessions. Every action performs its
// store reads first and only then mutates the session, so a failed read
// leaves the session untouched.
type SessionHandler struct {
	Sessions  *builder.SessionStore
	Catalog   repository.Catalog
	Projector *layout.Projector
	Publisher service.Publisher
	Logger    *log.Logger
	now       func() time.Time
	pending   sync.WaitGroup
}

func NewSessionHandler(st *builder.SessionStore, cat repository.Catalog, reg *layout.Registry, pub service.Publisher, logger *log.Logger) *SessionHandler {
	if pub == nil {
		pub = service.NopPublisher{}
	}
	return &SessionHandler{
		Sessions:  st,
		Catalog:   cat,
		Projector: layout.NewProjector(reg),
		Publisher: pub,
		Logger:    logger,
		now:       time.Now,
	}
}

type selectBoxReq struct {
	BoxID string `json:"box_id"`
}

type addItemReq struct {
	ItemID string `json:"item_id"`
}

type checkoutReq struct {
	Status string `json:"status"`
}

func (h *SessionHandler) Create(c echo.Context) error {
	s := h.Sessions.Create()
	return h.respond(c, http.StatusCreated, s)
}

// Get returns the session with its projected board, counters and total.
func (h *SessionHandler) Get(c echo.Context) error {
	s, err := h.Sessions.Get(c.Param("id"))
	if err != nil {
		return fail(c, h.Logger, err)
	}
	return h.respond(c, http.StatusOK, s)
}

// SelectBox switches the session to an active box and drops every
// placement.
func (h *SessionHandler) SelectBox(c echo.Context) error {
	var req selectBoxReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.BoxID) == "" {
		return badRequest(c, "box_id is required")
	}
	id := c.Param("id")
	if _, err := h.Sessions.Get(id); err != nil {
		return fail(c, h.Logger, err)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	box, err := h.Catalog.GetBox(ctx, req.BoxID)
	if err != nil {
		return fail(c, h.Logger, err)
	}
	if !box.Active {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not_found", "message": "box is not available"})
	}

	s, err := h.Sessions.Update(id, func(s builder.Session) (builder.Session, error) {
		return s.SelectBox(box), nil
	})
	if err != nil {
		return fail(c, h.Logger, err)
	}
	return h.respond(c, http.StatusOK, s)
}

// AddItem places one item in the next free slot of the fill order.
func (h *SessionHandler) AddItem(c echo.Context) error {
	var req addItemReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.ItemID) == "" {
		return badRequest(c, "item_id is required")
	}
	id := c.Param("id")
	cur, err := h.Sessions.Get(id)
	if err != nil {
		return fail(c, h.Logger, err)
	}
	if cur.Box == nil {
		return fail(c, h.Logger, builder.ErrNoBoxSelected)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	item, err := h.Catalog.GetItem(ctx, req.ItemID)
	if err != nil {
		return fail(c, h.Logger, err)
	}

	var slot int
	s, err := h.Sessions.Update(id, func(s builder.Session) (builder.Session, error) {
		next, placed, err := s.AddItem(item)
		slot = placed
		return next, err
	})
	if err != nil {
		return h.placementFailed(c, cur, err)
	}
	view, err := h.view(ctx, s)
	if err != nil {
		return fail(c, h.Logger, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"slot": slot, "session": view})
}

// RemoveSlot empties one slot. Removing an empty slot is not an error.
func (h *SessionHandler) RemoveSlot(c echo.Context) error {
	slot, err := strconv.Atoi(c.Param("slot"))
	if err != nil || slot < 0 {
		return badRequest(c, "slot must be a non-negative integer")
	}
	s, err := h.Sessions.Update(c.Param("id"), func(s builder.Session) (builder.Session, error) {
		return s.RemoveSlot(slot), nil
	})
	if err != nil {
		return fail(c, h.Logger, err)
	}
	return h.respond(c, http.StatusOK, s)
}

// Delete abandons the session.
func (h *SessionHandler) Delete(c echo.Context) error {
	if !h.Sessions.Delete(c.Param("id")) {
		return fail(c, h.Logger, builder.ErrSessionNotFound)
	}
	return c.NoContent(http.StatusNoContent)
}

// Checkout stores the order snapshot, clears the session and announces the
// order. The event is published in the background and a failure is only
// logged.
func (h *SessionHandler) Checkout(c echo.Context) error {
	var req checkoutReq
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&req); err != nil {
			return badRequest(c, "invalid body")
		}
	}
	status := model.OrderStatus(strings.ToLower(strings.TrimSpace(req.Status)))
	if status == "" {
		status = model.OrderDraft
	}

	id := c.Param("id")
	s, err := h.Sessions.Get(id)
	if err != nil {
		return fail(c, h.Logger, err)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	items, err := h.itemIndex(ctx, s)
	if err != nil {
		return fail(c, h.Logger, err)
	}
	order, err := builder.NewOrder(s, items, status, h.now())
	if err != nil {
		return fail(c, h.Logger, err)
	}
	order, err = h.Catalog.CreateOrder(ctx, order)
	if err != nil {
		return fail(c, h.Logger, err)
	}

	// Placements added while the order was written are not in the order;
	// such a session is kept so they are not lost.
	if _, err := h.Sessions.ClearIf(id, s.Version); err != nil {
		h.Logger.Warn("session kept after checkout", "session", id, "order", order.ID, "err", err)
	}

	h.pending.Add(1)
	go func() {
		defer h.pending.Done()
		h.publish(queue.NewOrderCreatedEvent(order, items))
	}()
	return c.JSON(http.StatusCreated, order)
}

// Wait blocks until every in-flight order event has been handed to the
// publisher or ctx is done.
func (h *SessionHandler) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		h.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *SessionHandler) publish(ev queue.OrderCreatedEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	if err := h.Publisher.PublishOrderCreated(ctx, ev); err != nil {
		h.Logger.Warn("publish order event failed", "order", ev.OrderID, "err", err)
	}
}

// placementFailed reports an AddItem error. Slot resolution failures point
// at a malformed template, so the box and template go into the log line.
func (h *SessionHandler) placementFailed(c echo.Context, s builder.Session, err error) error {
	if s.Box == nil {
		return fail(c, h.Logger, err)
	}
	return fail(c, h.Logger, err, "box", s.Box.ID, "template", s.Box.TemplateKey)
}

func (h *SessionHandler) respond(c echo.Context, status int, s builder.Session) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	view, err := h.view(ctx, s)
	if err != nil {
		return fail(c, h.Logger, err)
	}
	return c.JSON(status, view)
}

// itemIndex loads catalog items for pricing; sessions without placements
// need none.
func (h *SessionHandler) itemIndex(ctx context.Context, s builder.Session) (map[string]model.Item, error) {
	if len(s.Placements) == 0 {
		return map[string]model.Item{}, nil
	}
	items, err := h.Catalog.ListItems(ctx, model.FilterAll)
	if err != nil {
		return nil, err
	}
	return repository.ItemIndex(items), nil
}

func (h *SessionHandler) view(ctx context.Context, s builder.Session) (sessionView, error) {
	items, err := h.itemIndex(ctx, s)
	if err != nil {
		return sessionView{}, err
	}
	v := sessionView{
		ID:           s.ID,
		Box:          s.Box,
		Placements:   s.Placements,
		Board:        []boardSlot{},
		FillOrder:    []int{},
		Filled:       s.Filled(),
		CapacityLeft: s.CapacityLeft(),
		Total:        s.Total(items),
	}
	if v.Placements == nil {
		v.Placements = []model.Placement{}
	}
	if s.Box == nil {
		return v, nil
	}
	byslot := make(map[int]string, len(s.Placements))
	for _, p := range s.Placements {
		byslot[p.Slot] = p.ItemID
	}
	for _, pos := range h.Projector.Board(s.Box.Geometry) {
		v.Board = append(v.Board, boardSlot{Position: pos, ItemID: byslot[pos.Slot]})
	}
	v.FillOrder = layout.FillOrder(s.Box.Geometry)
	return v, nil
}
