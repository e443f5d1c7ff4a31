package history_api

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"petzi-webhook/internal/history"
	"petzi-webhook/internal/models"
	webhookdb "petzi-webhook/internal/webhook/db"
)

func setupRouter(t *testing.T) (*chi.Mux, *bun.DB) {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { bunDB.Close() })

	store := &webhookdb.DB{Bun: bunDB}
	require.NoError(t, store.CreateTables(context.Background()))

	handler := &Handler{Service: history.NewService(&history.DB{Bun: bunDB}, nil)}
	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r, bunDB
}

func seed(t *testing.T, bunDB *bun.DB, status int, ts time.Time) int64 {
	t.Helper()
	record := &models.WebhookRequest{
		Timestamp:  ts,
		RawPayload: `{"event":"ticket_created"}`,
		HTTPStatus: status,
	}
	_, err := bunDB.NewInsert().Model(record).Exec(context.Background())
	require.NoError(t, err)
	return record.ID
}

func get(r http.Handler, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestListRequests(t *testing.T) {
	r, bunDB := setupRouter(t)

	day := time.Date(2024, 9, 1, 10, 0, 0, 0, time.UTC)
	seed(t, bunDB, 200, day)
	seed(t, bunDB, 200, day.Add(time.Hour))
	seed(t, bunDB, 400, day.Add(2*time.Hour))

	rec := get(r, "/history?page=1")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Page)
	assert.Equal(t, 1, resp.TotalPages)
	assert.Len(t, resp.Records, 3)
	require.Len(t, resp.Days, 1)
	assert.Equal(t, "2024-09-01", resp.Days[0])
	assert.Equal(t, []int{2}, resp.Counts)
}

func TestListRequestsStatusFilterEchoed(t *testing.T) {
	r, bunDB := setupRouter(t)
	seed(t, bunDB, 200, time.Now().UTC())
	seed(t, bunDB, 400, time.Now().UTC())

	rec := get(r, "/history?http_status=400&start_date=2024-09-01")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "400", resp.Filters["http_status"])
	assert.Equal(t, "2024-09-01", resp.Filters["start_date"])
}

func TestGetRequestDetail(t *testing.T) {
	r, bunDB := setupRouter(t)
	id := seed(t, bunDB, 200, time.Now().UTC())

	rec := get(r, "/history/"+jsonNumber(id))
	require.Equal(t, http.StatusOK, rec.Code)

	var detail map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	assert.Equal(t, float64(id), detail["id"])
	assert.Equal(t, float64(200), detail["http_status"])
	payload := detail["payload"].(map[string]interface{})
	assert.Equal(t, "ticket_created", payload["event"])
}

func TestGetRequestNotFound(t *testing.T) {
	r, _ := setupRouter(t)

	assert.Equal(t, http.StatusNotFound, get(r, "/history/9999").Code)
	assert.Equal(t, http.StatusNotFound, get(r, "/history/not-a-number").Code)
}

func jsonNumber(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}
