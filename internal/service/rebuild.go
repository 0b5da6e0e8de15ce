package service

import (
	"context"
	"fmt"

	"github.com/iliyamo/box-builder/internal/layout"
	"github.com/iliyamo/box-builder/internal/model"
	"github.com/iliyamo/box-builder/internal/repository"
)

// RebuildReport lists the boxes a rebuild touched. Missing holds boxes whose
// template could not be resolved; they are left unchanged.
type RebuildReport struct {
	Updated []model.Box `json:"updated"`
	Missing []string    `json:"missing"`
}

// RebuildBoxes re-materialises box geometry from the registry, resolving
// each box's template by key and then by shape and capacity. An empty boxID
// rebuilds every box.
func RebuildBoxes(ctx context.Context, cat repository.Catalog, reg *layout.Registry, boxID string) (RebuildReport, error) {
	var boxes []model.Box
	if boxID != "" {
		b, err := cat.GetBox(ctx, boxID)
		if err != nil {
			return RebuildReport{}, err
		}
		boxes = []model.Box{b}
	} else {
		all, err := cat.ListBoxes(ctx, false)
		if err != nil {
			return RebuildReport{}, err
		}
		boxes = all
	}

	rep := RebuildReport{Updated: []model.Box{}, Missing: []string{}}
	for _, b := range boxes {
		tpl, ok := reg.Resolve(b.Geometry)
		if !ok {
			rep.Missing = append(rep.Missing, b.ID)
			continue
		}
		saved, err := cat.UpdateBox(ctx, b.Rebuild(tpl))
		if err != nil {
			return rep, fmt.Errorf("rebuild box %s: %w", b.ID, err)
		}
		rep.Updated = append(rep.Updated, saved)
	}
	return rep, nil
}
