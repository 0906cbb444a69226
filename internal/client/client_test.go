package client_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitediary/db"
	"sitediary/internal/client"
	"sitediary/internal/handlers"
	"sitediary/models"
)

type countingServer struct {
	*httptest.Server
	gets int32
}

func newAPI(t *testing.T) (*countingServer, *client.Client) {
	t.Helper()
	h := handlers.NewHandler(db.NewMemoryStorage(), nil)
	router := handlers.NewRouter(h, []string{"*"})

	cs := &countingServer{}
	cs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			atomic.AddInt32(&cs.gets, 1)
		}
		router.ServeHTTP(w, r)
	}))
	t.Cleanup(cs.Close)
	return cs, client.New(cs.URL, 5*time.Second)
}

func payload(desc string) models.DiaryPayload {
	return models.DiaryPayload{
		Date:         "2025-03-14",
		SiteLocation: "site-1",
		Description:  desc,
		CurrentPhase: "Foundation",
	}
}

func TestClient_ListIsCachedUntilMutation(t *testing.T) {
	srv, c := newAPI(t)
	ctx := context.Background()

	_, err := c.CreateDiary(ctx, payload("first"))
	require.NoError(t, err)

	list, err := c.ListDiaries(ctx, models.Filters{})
	require.NoError(t, err)
	require.Len(t, list, 1)

	_, err = c.ListDiaries(ctx, models.Filters{})
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&srv.gets))
	assert.Equal(t, client.StateSuccess, c.Cache().State(client.DiariesKey(models.Filters{})).State)

	_, err = c.CreateDiary(ctx, payload("second"))
	require.NoError(t, err)
	assert.Equal(t, client.StateIdle, c.Cache().State(client.DiariesKey(models.Filters{})).State)

	list, err = c.ListDiaries(ctx, models.Filters{})
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.Equal(t, int32(2), atomic.LoadInt32(&srv.gets))
}

func TestClient_FiltersAreSeparateKeys(t *testing.T) {
	_, c := newAPI(t)
	ctx := context.Background()

	_, err := c.CreateDiary(ctx, payload("slab"))
	require.NoError(t, err)
	other := payload("framing")
	other.SiteLocation = "site-2"
	_, err = c.CreateDiary(ctx, other)
	require.NoError(t, err)

	site2, err := c.ListDiaries(ctx, models.Filters{Site: "site-2"})
	require.NoError(t, err)
	require.Len(t, site2, 1)
	assert.Equal(t, "framing", site2[0].Description)

	all, err := c.ListDiaries(ctx, models.Filters{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestClient_GetMissingIsNil(t *testing.T) {
	_, c := newAPI(t)

	d, err := c.GetDiary(context.Background(), 404)
	require.NoError(t, err)
	assert.Nil(t, d)
}

func TestClient_MissingDiaryIsRefetched(t *testing.T) {
	srv, reader := newAPI(t)
	writer := client.New(srv.URL, 5*time.Second)
	ctx := context.Background()

	d, err := reader.GetDiary(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, d)

	created, err := writer.CreateDiary(ctx, payload("made elsewhere"))
	require.NoError(t, err)
	require.Equal(t, 1, created.ID)

	d, err = reader.GetDiary(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, "made elsewhere", d.Description)
}

func TestClient_UpdateAndDeleteInvalidateDetail(t *testing.T) {
	_, c := newAPI(t)
	ctx := context.Background()

	created, err := c.CreateDiary(ctx, payload("slab"))
	require.NoError(t, err)

	got, err := c.GetDiary(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got)

	up := models.PayloadFromDiary(*got)
	up.Description = "slab cured"
	updated, err := c.UpdateDiary(ctx, up)
	require.NoError(t, err)
	assert.Equal(t, "slab cured", updated.Description)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)

	got, err = c.GetDiary(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "slab cured", got.Description)

	msg, err := c.DeleteDiary(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Diary entry deleted successfully", msg)

	got, err = c.GetDiary(ctx, created.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestClient_ValidationErrorSurfaces(t *testing.T) {
	_, c := newAPI(t)

	_, err := c.CreateDiary(context.Background(), models.DiaryPayload{SiteLocation: "site-1"})
	require.Error(t, err)

	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, handlers.CodeInvalidInput, apiErr.Code)
	assert.NotEmpty(t, apiErr.Issues)
	assert.True(t, strings.HasPrefix(apiErr.Error(), "INVALID_INPUT"))
}

func TestClient_DeleteMissing(t *testing.T) {
	_, c := newAPI(t)

	_, err := c.DeleteDiary(context.Background(), 99)
	require.Error(t, err)
	assert.True(t, client.IsNotFound(err))
}

func TestClient_Sites(t *testing.T) {
	_, c := newAPI(t)

	sites, err := c.Sites(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.Sites, sites)
}
