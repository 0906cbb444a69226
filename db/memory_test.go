package db

import (
	"context"
	"testing"
	"time"

	"sitediary/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tickClock struct{ t time.Time }

func (c *tickClock) now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func newDiary(site string) *models.SiteDiary {
	return &models.SiteDiary{
		Date:         time.Date(2025, 3, 14, 8, 0, 0, 0, time.UTC),
		SiteLocation: site,
		Description:  "Daily report",
		CurrentPhase: "Foundation",
	}
}

func TestMemoryStorage_CreateAssignsUniqueIDs(t *testing.T) {
	store := NewMemoryStorage()
	ctx := context.Background()

	seen := map[int]bool{}
	for i := 0; i < 5; i++ {
		d := newDiary("site-1")
		require.NoError(t, store.CreateDiary(ctx, d))
		assert.False(t, seen[d.ID])
		seen[d.ID] = true
		assert.Equal(t, d.CreatedAt, d.UpdatedAt)
	}
}

func TestMemoryStorage_RoundTrip(t *testing.T) {
	store := NewMemoryStorage()
	ctx := context.Background()

	d := newDiary("site-2")
	d.Visitors = models.Visitors{{Type: models.VisitorTypeInspection, Name: "Inspector Gadget"}}
	d.Images = []string{"https://cdn.example.com/1.jpg"}
	require.NoError(t, store.CreateDiary(ctx, d))

	got, err := store.GetDiary(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, *d, *got)

	// изменение копии не влияет на хранимую запись
	got.Visitors[0].Name = "changed"
	again, err := store.GetDiary(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, "Inspector Gadget", again.Visitors[0].Name)
}

func TestMemoryStorage_UpdateKeepsCreatedAt(t *testing.T) {
	clock := &tickClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	store := NewMemoryStorage().WithClock(clock.now)
	ctx := context.Background()

	d := newDiary("site-1")
	require.NoError(t, store.CreateDiary(ctx, d))
	created := d.CreatedAt
	prevUpdated := d.UpdatedAt

	upd := newDiary("site-3")
	upd.ID = d.ID
	upd.CreatedAt = time.Time{}
	upd.Description = "Revised"
	require.NoError(t, store.UpdateDiary(ctx, upd))

	assert.Equal(t, created, upd.CreatedAt)
	assert.True(t, upd.UpdatedAt.After(prevUpdated))

	got, err := store.GetDiary(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, "Revised", got.Description)
	assert.Equal(t, "site-3", got.SiteLocation)
	assert.Equal(t, d.ID, got.ID)
}

func TestMemoryStorage_UpdateMissing(t *testing.T) {
	store := NewMemoryStorage()
	d := newDiary("site-1")
	d.ID = 123
	assert.ErrorIs(t, store.UpdateDiary(context.Background(), d), ErrNotFound)
}

func TestMemoryStorage_DeleteTwice(t *testing.T) {
	store := NewMemoryStorage()
	ctx := context.Background()

	d := newDiary("site-1")
	require.NoError(t, store.CreateDiary(ctx, d))
	require.NoError(t, store.DeleteDiary(ctx, d.ID))

	assert.ErrorIs(t, store.DeleteDiary(ctx, d.ID), ErrNotFound)
	assert.ErrorIs(t, store.DeleteDiary(ctx, d.ID), ErrNotFound)

	_, err := store.GetDiary(ctx, d.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStorage_FilterComposition(t *testing.T) {
	store := NewMemoryStorage()
	ctx := context.Background()

	first := newDiary("site-1")
	first.Labor = "6 concreters"
	second := newDiary("site-2")
	second.Visitors = models.Visitors{{Type: models.VisitorTypeVisitor, Name: "Client"}}
	third := newDiary("site-1")
	for _, d := range []*models.SiteDiary{first, second, third} {
		require.NoError(t, store.CreateDiary(ctx, d))
	}

	list, err := store.ListDiaries(ctx, models.Filters{
		Site:      "site-1",
		Resources: []models.ResourceKind{models.ResourceLabor, models.ResourceVisitors},
		OrderBy:   models.OrderByCreatedAt,
		Order:     models.OrderDesc,
	})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, first.ID, list[0].ID)
}

func TestMemoryStorage_DateWindow(t *testing.T) {
	store := NewMemoryStorage()
	ctx := context.Background()
	zone := time.FixedZone("PHT", 8*60*60)

	late := newDiary("site-2")
	late.Date = time.Date(2025, 6, 1, 23, 59, 0, 0, zone)
	early := newDiary("site-2")
	early.Date = time.Date(2025, 6, 2, 0, 1, 0, 0, zone)
	require.NoError(t, store.CreateDiary(ctx, late))
	require.NoError(t, store.CreateDiary(ctx, early))

	list, err := store.ListDiaries(ctx, models.Filters{Date: "2025-06-01", Location: zone})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, late.ID, list[0].ID)
}

func TestMemoryStorage_DateWindowEdges(t *testing.T) {
	store := NewMemoryStorage()
	ctx := context.Background()

	lastInstant := newDiary("site-1")
	lastInstant.Date = time.Date(2025, 6, 1, 23, 59, 59, 999999500, time.UTC)
	midnight := newDiary("site-1")
	midnight.Date = time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.CreateDiary(ctx, lastInstant))
	require.NoError(t, store.CreateDiary(ctx, midnight))

	list, err := store.ListDiaries(ctx, models.Filters{Date: "2025-06-01"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, lastInstant.ID, list[0].ID)

	list, err = store.ListDiaries(ctx, models.Filters{Date: "2025-06-02"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, midnight.ID, list[0].ID)
}

func TestMemoryStorage_EmptyResult(t *testing.T) {
	store := NewMemoryStorage()

	list, err := store.ListDiaries(context.Background(), models.Filters{Site: "site-3"})
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestMemoryStorage_Ordering(t *testing.T) {
	clock := &tickClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	store := NewMemoryStorage().WithClock(clock.now)
	ctx := context.Background()

	phases := []string{"Roofing", "Excavation", "Framing"}
	for _, p := range phases {
		d := newDiary("site-1")
		d.CurrentPhase = p
		require.NoError(t, store.CreateDiary(ctx, d))
	}

	list, err := store.ListDiaries(ctx, models.Filters{OrderBy: models.OrderByCurrentPhase, Order: models.OrderAsc})
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "Excavation", list[0].CurrentPhase)
	assert.Equal(t, "Roofing", list[2].CurrentPhase)

	list, err = store.ListDiaries(ctx, models.Filters{OrderBy: models.OrderByCreatedAt, Order: models.OrderDesc})
	require.NoError(t, err)
	assert.Equal(t, "Framing", list[0].CurrentPhase)
}
