package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/box-builder/internal/layout"
	"github.com/iliyamo/box-builder/internal/model"
	"github.com/iliyamo/box-builder/internal/queue"
	"github.com/iliyamo/box-builder/internal/repository"
	"github.com/iliyamo/box-builder/internal/utils"
)

func TestRebuildBoxes(t *testing.T) {
	ctx := context.Background()
	reg := layout.Default()
	store := repository.NewMemoryStore()

	tpl, ok := reg.Lookup("round9_ring")
	require.True(t, ok)
	drifted := model.NewBoxFromTemplate(tpl, model.BoxFields{Name: "Ring", Price: 900, Active: true})
	drifted.SlotSize = 3
	drifted.SlotMap = drifted.SlotMap[:2]
	drifted, err := store.CreateBox(ctx, drifted)
	require.NoError(t, err)

	orphan := model.Box{Name: "Odd", Geometry: layout.Geometry{Shape: layout.ShapeHeart, Capacity: 99, TemplateKey: "nope"}}
	orphan, err = store.CreateBox(ctx, orphan)
	require.NoError(t, err)

	rep, err := RebuildBoxes(ctx, store, reg, "")
	require.NoError(t, err)
	require.Len(t, rep.Updated, 1)
	assert.Equal(t, []string{orphan.ID}, rep.Missing)

	got, err := store.GetBox(ctx, drifted.ID)
	require.NoError(t, err)
	assert.Equal(t, tpl.Geometry, got.Geometry)
	assert.Equal(t, "Ring", got.Name)
	assert.Equal(t, int64(900), got.Price)
}

func TestRebuildSingleBox(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()

	_, err := RebuildBoxes(ctx, store, layout.Default(), "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	// No key: resolved by shape and capacity.
	b, err := store.CreateBox(ctx, model.Box{Name: "Six", Geometry: layout.Geometry{Shape: layout.ShapeRect, Capacity: 6}})
	require.NoError(t, err)
	rep, err := RebuildBoxes(ctx, store, layout.Default(), b.ID)
	require.NoError(t, err)
	require.Len(t, rep.Updated, 1)
	assert.Equal(t, "rect6_tall", rep.Updated[0].TemplateKey)
	assert.Empty(t, rep.Missing)
}

func TestEnsureOperator(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()

	created, err := EnsureOperator(ctx, store, "moderator", "", bcrypt.MinCost)
	require.NoError(t, err)
	assert.False(t, created)

	created, err = EnsureOperator(ctx, store, "moderator", "s3cret-pass", bcrypt.MinCost)
	require.NoError(t, err)
	assert.True(t, created)

	op, err := store.GetOperatorByUsername(ctx, "moderator")
	require.NoError(t, err)
	assert.Equal(t, model.RoleOperator, op.Role)
	assert.True(t, utils.VerifyPassword(op.PasswordHash, "s3cret-pass"))

	created, err = EnsureOperator(ctx, store, "moderator", "other", bcrypt.MinCost)
	require.NoError(t, err)
	assert.False(t, created)
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	assert.NoError(t, p.PublishOrderCreated(context.Background(), queue.OrderCreatedEvent{OrderID: "o"}))
}
