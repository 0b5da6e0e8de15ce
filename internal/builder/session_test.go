package builder

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/box-builder/internal/model"
)

var (
	pistachio = model.Item{ID: "pistachio", Price: 350, InStock: true}
	raspberry = model.Item{ID: "raspberry", Price: 400, InStock: true}
	soldOut   = model.Item{ID: "lavender", Price: 300}
)

func TestSessionSelectBoxClearsPlacements(t *testing.T) {
	var s Session
	s = s.SelectBox(templateBox(t, "rect6_classic", 1500))
	s, _, err := s.AddItem(pistachio)
	require.NoError(t, err)
	require.Equal(t, 1, s.Filled())

	s = s.SelectBox(templateBox(t, "round8_ring", 1800))
	assert.Equal(t, 0, s.Filled())
	assert.Equal(t, 8, s.CapacityLeft())
	assert.Equal(t, "box-round8_ring", s.Box.ID)
}

func TestSessionAddItem(t *testing.T) {
	var s Session
	_, _, err := s.AddItem(pistachio)
	assert.ErrorIs(t, err, ErrNoBoxSelected)

	s = s.SelectBox(templateBox(t, "rect6_tall", 0))
	_, _, err = s.AddItem(soldOut)
	assert.ErrorIs(t, err, ErrItemUnavailable)

	before := s
	after, slot, err := s.AddItem(raspberry)
	require.NoError(t, err)
	assert.Equal(t, 0, slot)
	assert.Equal(t, 0, before.Filled())
	assert.Equal(t, 1, after.Filled())
	assert.Equal(t, 5, after.CapacityLeft())
}

func TestSessionFullBoxUnchanged(t *testing.T) {
	s := Session{}.SelectBox(templateBox(t, "rect6_tall", 0))
	var err error
	for i := 0; i < 6; i++ {
		s, _, err = s.AddItem(pistachio)
		require.NoError(t, err)
	}
	got, _, err := s.AddItem(pistachio)
	assert.ErrorIs(t, err, ErrCapacityExceeded)
	assert.Equal(t, s.Placements, got.Placements)
	assert.Equal(t, 0, got.CapacityLeft())
}

func TestSessionRemoveAndClear(t *testing.T) {
	s := Session{}.SelectBox(templateBox(t, "rect6_tall", 0))
	s, _, _ = s.AddItem(pistachio)
	s, _, _ = s.AddItem(raspberry)

	s = s.RemoveSlot(0)
	assert.Equal(t, []model.Placement{{Slot: 1, ItemID: "raspberry"}}, s.Placements)
	s = s.RemoveSlot(0)
	assert.Equal(t, 1, s.Filled())

	s = s.Clear()
	assert.Nil(t, s.Box)
	assert.Equal(t, 0, s.Filled())
	assert.Equal(t, 0, s.CapacityLeft())
}

func TestNewOrder(t *testing.T) {
	items := map[string]model.Item{pistachio.ID: pistachio, raspberry.ID: raspberry}
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	_, err := NewOrder(Session{}, items, model.OrderDraft, now)
	assert.ErrorIs(t, err, ErrNoBoxSelected)

	s := Session{}.SelectBox(templateBox(t, "rect6_classic", 2000))
	s, _, _ = s.AddItem(pistachio)
	s, _, _ = s.AddItem(raspberry)

	_, err = NewOrder(s, items, "shipped", now)
	assert.ErrorIs(t, err, ErrInvalidStatus)

	o, err := NewOrder(s, items, model.OrderPaid, now)
	require.NoError(t, err)
	assert.Equal(t, "box-rect6_classic", o.BoxID)
	assert.Equal(t, int64(2750), o.Total)
	assert.Equal(t, model.OrderPaid, o.Status)
	assert.Equal(t, []string{}, o.Extras)
	assert.Equal(t, now, o.CreatedAt)
	assert.Len(t, o.Placements, 2)

	// The snapshot does not alias the session.
	o.Placements[0].ItemID = "x"
	assert.Equal(t, "pistachio", s.Placements[0].ItemID)
}

func TestSessionStoreUpdate(t *testing.T) {
	st := NewSessionStore()
	s := st.Create()

	got, err := st.Update(s.ID, func(cur Session) (Session, error) {
		return cur.SelectBox(templateBox(t, "rect6_tall", 0)), nil
	})
	require.NoError(t, err)
	require.NotNil(t, got.Box)

	boom := errors.New("boom")
	_, err = st.Update(s.ID, func(cur Session) (Session, error) {
		return cur.Clear(), boom
	})
	assert.ErrorIs(t, err, boom)

	stored, err := st.Get(s.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.Box, "failed update must not be written")

	_, err = st.Update("missing", func(cur Session) (Session, error) { return cur, nil })
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionStoreClearIf(t *testing.T) {
	st := NewSessionStore()
	s := st.Create()
	assert.Equal(t, uint64(0), s.Version)

	read, err := st.Update(s.ID, func(cur Session) (Session, error) {
		next, _, err := cur.SelectBox(templateBox(t, "rect6_tall", 0)).AddItem(pistachio)
		return next, err
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), read.Version)

	// Another request adds an item after read was taken.
	_, err = st.Update(s.ID, func(cur Session) (Session, error) {
		next, _, err := cur.AddItem(raspberry)
		return next, err
	})
	require.NoError(t, err)

	_, err = st.ClearIf(s.ID, read.Version)
	assert.ErrorIs(t, err, ErrSessionChanged)
	kept, err := st.Get(s.ID)
	require.NoError(t, err)
	assert.NotNil(t, kept.Box)
	assert.Equal(t, 2, kept.Filled())

	cleared, err := st.ClearIf(s.ID, kept.Version)
	require.NoError(t, err)
	assert.Nil(t, cleared.Box)
	assert.Equal(t, 0, cleared.Filled())

	_, err = st.ClearIf("missing", 0)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionStoreConcurrentAdds(t *testing.T) {
	st := NewSessionStore()
	s := st.Create()
	_, err := st.Update(s.ID, func(cur Session) (Session, error) {
		return cur.SelectBox(templateBox(t, "rect12_square", 0)), nil
	})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = st.Update(s.ID, func(cur Session) (Session, error) {
				next, _, err := cur.AddItem(pistachio)
				return next, err
			})
		}()
	}
	wg.Wait()

	got, err := st.Get(s.ID)
	require.NoError(t, err)
	assert.Equal(t, 12, got.Filled())
	uniqueSlots(t, got.Placements)
}

func TestSessionStoreSweep(t *testing.T) {
	st := NewSessionStore()
	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	st.now = func() time.Time { return clock }

	old := st.Create()
	clock = clock.Add(time.Hour)
	fresh := st.Create()
	clock = clock.Add(30 * time.Minute)

	assert.Equal(t, 1, st.Sweep(time.Hour))
	_, err := st.Get(old.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = st.Get(fresh.ID)
	assert.NoError(t, err)

	assert.True(t, st.Delete(fresh.ID))
	assert.False(t, st.Delete(fresh.ID))
}

func TestRunSweeperStopsOnCancel(t *testing.T) {
	st := NewSessionStore()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		st.RunSweeper(ctx, time.Millisecond, time.Hour, log.New(io.Discard))
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
