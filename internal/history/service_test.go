package history_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

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

func newTestService(t *testing.T) (*history.Service, *bun.DB) {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { bunDB.Close() })

	store := &webhookdb.DB{Bun: bunDB}
	require.NoError(t, store.CreateTables(context.Background()))

	return history.NewService(&history.DB{Bun: bunDB}, nil), bunDB
}

func seedRequest(t *testing.T, bunDB *bun.DB, status int, ts time.Time, payload string) int64 {
	t.Helper()
	record := &models.WebhookRequest{
		Timestamp:  ts,
		RawPayload: payload,
		HTTPStatus: status,
	}
	if status != 200 {
		msg := "Invalid signature"
		record.ErrorMessage = &msg
	} else {
		first, last, event, amount := "Jane", "Doe", "Test To Delete", 25.00
		record.BuyerFirstName = &first
		record.BuyerLastName = &last
		record.EventName = &event
		record.PriceAmount = &amount
	}
	_, err := bunDB.NewInsert().Model(record).Exec(context.Background())
	require.NoError(t, err)
	return record.ID
}

func TestQueryPagination(t *testing.T) {
	service, bunDB := newTestService(t)
	ctx := context.Background()

	base := time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 45; i++ {
		seedRequest(t, bunDB, 200, base.Add(time.Duration(i)*time.Minute), "{}")
	}

	records, totalPages, err := service.Query(ctx, history.Filter{Page: 1})
	require.NoError(t, err)
	assert.Len(t, records, 20)
	assert.Equal(t, 3, totalPages)

	records, _, err = service.Query(ctx, history.Filter{Page: 3})
	require.NoError(t, err)
	assert.Len(t, records, 5)

	// Page zero behaves as page one.
	records, _, err = service.Query(ctx, history.Filter{Page: 0})
	require.NoError(t, err)
	assert.Len(t, records, 20)
}

func TestQueryOrdering(t *testing.T) {
	service, bunDB := newTestService(t)
	ctx := context.Background()

	base := time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		seedRequest(t, bunDB, 200, base.Add(time.Duration(i)*time.Hour), "{}")
	}

	records, _, err := service.Query(ctx, history.Filter{Page: 1})
	require.NoError(t, err)
	require.Len(t, records, 5)
	for i := 1; i < len(records); i++ {
		assert.True(t, !records[i-1].Timestamp.Before(records[i].Timestamp),
			"records must be ordered most recent first")
	}
}

func TestQueryStatusFilter(t *testing.T) {
	service, bunDB := newTestService(t)
	ctx := context.Background()

	ts := time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC)
	seedRequest(t, bunDB, 200, ts, "{}")
	seedRequest(t, bunDB, 200, ts.Add(time.Minute), "{}")
	seedRequest(t, bunDB, 400, ts.Add(2*time.Minute), "{}")

	records, totalPages, err := service.Query(ctx, history.Filter{Status: "400", Page: 1})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 400, records[0].HTTPStatus)
	assert.Equal(t, 1, totalPages)

	// A non-numeric status is silently dropped.
	records, _, err = service.Query(ctx, history.Filter{Status: "teapot", Page: 1})
	require.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestQueryDateFilter(t *testing.T) {
	service, bunDB := newTestService(t)
	ctx := context.Background()

	seedRequest(t, bunDB, 200, time.Date(2024, 8, 31, 23, 59, 0, 0, time.UTC), "{}")
	first := time.Date(2024, 9, 1, 0, 0, 1, 0, time.UTC)
	last := time.Date(2024, 9, 1, 23, 59, 59, 0, time.UTC)
	seedRequest(t, bunDB, 200, first, "{}")
	seedRequest(t, bunDB, 200, last, "{}")
	seedRequest(t, bunDB, 200, time.Date(2024, 9, 2, 0, 0, 1, 0, time.UTC), "{}")

	// Both bounds inclusive on the calendar date.
	records, _, err := service.Query(ctx, history.Filter{
		StartDate: "2024-09-01",
		EndDate:   "2024-09-01",
		Page:      1,
	})
	require.NoError(t, err)
	require.Len(t, records, 2)
	for _, r := range records {
		assert.Equal(t, "2024-09-01", r.Timestamp.UTC().Format("2006-01-02"))
	}

	// Start bound only.
	records, _, err = service.Query(ctx, history.Filter{StartDate: "2024-09-02", Page: 1})
	require.NoError(t, err)
	assert.Len(t, records, 1)

	// Unparsable dates are ignored, not rejected.
	records, _, err = service.Query(ctx, history.Filter{
		StartDate: "last tuesday",
		EndDate:   "01/09/2024",
		Page:      1,
	})
	require.NoError(t, err)
	assert.Len(t, records, 4)
}

func TestDailySuccessCounts(t *testing.T) {
	service, bunDB := newTestService(t)
	ctx := context.Background()

	day1 := time.Date(2024, 9, 1, 10, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 9, 2, 10, 0, 0, 0, time.UTC)
	seedRequest(t, bunDB, 200, day1, "{}")
	seedRequest(t, bunDB, 200, day1.Add(time.Hour), "{}")
	seedRequest(t, bunDB, 200, day2, "{}")
	// Failures never show up in the chart.
	seedRequest(t, bunDB, 400, day1, "{}")
	seedRequest(t, bunDB, 400, day2, "{}")

	counts, err := service.DailySuccessCounts(ctx)
	require.NoError(t, err)
	require.Len(t, counts, 2)
	assert.Equal(t, "2024-09-01", counts[0].Day)
	assert.Equal(t, 2, counts[0].Count)
	assert.Equal(t, "2024-09-02", counts[1].Day)
	assert.Equal(t, 1, counts[1].Count)
}

func TestDailySuccessCountsIgnoresFilters(t *testing.T) {
	service, bunDB := newTestService(t)
	ctx := context.Background()

	seedRequest(t, bunDB, 200, time.Date(2024, 9, 1, 10, 0, 0, 0, time.UTC), "{}")
	seedRequest(t, bunDB, 200, time.Date(2024, 9, 5, 10, 0, 0, 0, time.UTC), "{}")

	// The aggregate is all-time regardless of what the listing filters say.
	records, _, err := service.Query(ctx, history.Filter{StartDate: "2024-09-05", Page: 1})
	require.NoError(t, err)
	assert.Len(t, records, 1)

	counts, err := service.DailySuccessCounts(ctx)
	require.NoError(t, err)
	assert.Len(t, counts, 2)
}

func TestGetDetail(t *testing.T) {
	service, bunDB := newTestService(t)
	ctx := context.Background()

	payload := `{"event":"ticket_created","details":{"ticket":{"number":"ABC"}}}`
	id := seedRequest(t, bunDB, 200, time.Date(2024, 9, 1, 10, 0, 0, 0, time.UTC), payload)

	detail, err := service.GetDetail(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, detail.ID)
	assert.Equal(t, 200, detail.HTTPStatus)
	assert.Equal(t, "ticket_created", detail.Payload["event"])
}

func TestGetDetailCorruptPayload(t *testing.T) {
	service, bunDB := newTestService(t)
	ctx := context.Background()

	id := seedRequest(t, bunDB, 400, time.Now().UTC(), "not json at all")

	detail, err := service.GetDetail(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Stored payload is not valid JSON", detail.Payload["error"])
}

func TestGetDetailNotFound(t *testing.T) {
	service, _ := newTestService(t)

	_, err := service.GetDetail(context.Background(), 9999)
	require.Error(t, err)
	assert.True(t, errors.Is(err, history.ErrNotFound), fmt.Sprintf("unexpected error: %v", err))
}
