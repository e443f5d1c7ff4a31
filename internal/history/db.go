package history

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"

	"petzi-webhook/internal/models"
)

// ErrNotFound is returned when no audit record has the requested id.
var ErrNotFound = errors.New("webhook request not found")

// DB reads the audit trail; this side of the system never writes it.
type DB struct {
	Bun *bun.DB
}

func (d *DB) ListRequests(ctx context.Context, status *int, start, end *time.Time, limit, offset int) ([]models.WebhookRequest, int, error) {
	var records []models.WebhookRequest
	q := d.Bun.NewSelect().Model(&records)
	if status != nil {
		q = q.Where("http_status = ?", *status)
	}
	if start != nil {
		q = q.Where("timestamp >= ?", *start)
	}
	if end != nil {
		// end is already the exclusive upper bound of the inclusive end date.
		q = q.Where("timestamp < ?", *end)
	}

	total, err := q.Order("timestamp DESC").Limit(limit).Offset(offset).ScanAndCount(ctx)
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

func (d *DB) GetRequest(ctx context.Context, id int64) (*models.WebhookRequest, error) {
	var record models.WebhookRequest
	err := d.Bun.NewSelect().
		Model(&record).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// DailySuccessCounts counts status-200 audit rows per UTC calendar day,
// ascending. DATE() works on both SQLite and PostgreSQL.
func (d *DB) DailySuccessCounts(ctx context.Context) ([]DayCount, error) {
	var counts []DayCount
	err := d.Bun.NewRaw(`
		SELECT DATE(timestamp) AS day, COUNT(*) AS count
		FROM webhook_requests
		WHERE http_status = 200
		GROUP BY DATE(timestamp)
		ORDER BY day ASC`).
		Scan(ctx, &counts)
	if err != nil {
		return nil, err
	}
	return counts, nil
}
