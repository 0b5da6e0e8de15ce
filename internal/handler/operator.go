package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/box-builder/internal/layout"
	"github.com/iliyamo/box-builder/internal/middleware"
	"github.com/iliyamo/box-builder/internal/repository"
	"github.com/iliyamo/box-builder/internal/storage"
)

// OperatorHandler serves the back-office catalog endpoints. Every write
// purges the public response cache.
type OperatorHandler struct {
	Catalog     repository.Catalog
	Registry    *layout.Registry
	Blobs       storage.BlobStore
	Redis       *redis.Client
	CachePrefix string
	Logger      *log.Logger
}

func NewOperatorHandler(cat repository.Catalog, reg *layout.Registry, blobs storage.BlobStore, rdb *redis.Client, cachePrefix string, logger *log.Logger) *OperatorHandler {
	return &OperatorHandler{
		Catalog:     cat,
		Registry:    reg,
		Blobs:       blobs,
		Redis:       rdb,
		CachePrefix: cachePrefix,
		Logger:      logger,
	}
}

// purge drops cached public responses after a catalog write.
func (h *OperatorHandler) purge(ctx context.Context) {
	n, err := middleware.PurgeCache(context.WithoutCancel(ctx), h.Redis, h.CachePrefix)
	if err != nil {
		h.Logger.Warn("purge response cache", "err", err)
		return
	}
	if n > 0 {
		h.Logger.Debug("purged response cache", "keys", n)
	}
}

// dropImage deletes a replaced or orphaned image. Failures never fail the
// request.
func (h *OperatorHandler) dropImage(ctx context.Context, address string) {
	if address == "" || h.Blobs == nil {
		return
	}
	err := h.Blobs.Delete(context.WithoutCancel(ctx), address)
	switch {
	case err == nil:
	case errors.Is(err, storage.ErrForeignAddress):
		h.Logger.Debug("image not managed locally, kept", "address", address)
	default:
		h.Logger.Warn("delete image", "address", address, "err", err)
	}
}

var allowedFolders = map[string]bool{"boxes": true, "items": true}

// Upload stores a multipart "file" under folder boxes or items and returns
// its public address.
func (h *OperatorHandler) Upload(c echo.Context) error {
	folder := c.FormValue("folder")
	if !allowedFolders[folder] {
		return badRequest(c, "folder must be boxes or items")
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "multipart field file is required")
	}
	src, err := fh.Open()
	if err != nil {
		return badRequest(c, "unreadable upload")
	}
	defer src.Close()

	ctx, cancel := reqCtx(c)
	defer cancel()
	addr, err := h.Blobs.Upload(ctx, folder, fh.Filename, src)
	if err != nil {
		return fail(c, h.Logger, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"url": addr})
}

func (h *OperatorHandler) ListOrders(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	orders, err := h.Catalog.ListOrders(ctx)
	if err != nil {
		return fail(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, orders)
}

func (h *OperatorHandler) GetOrder(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	o, err := h.Catalog.GetOrder(ctx, c.Param("id"))
	if err != nil {
		return fail(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, o)
}
