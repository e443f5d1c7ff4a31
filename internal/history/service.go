package history

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"petzi-webhook/internal/models"
)

// PageSize is the fixed listing page size.
const PageSize = 20

// Filter carries the raw query-string values. Malformed values are treated
// as absent filters, not as errors: that is the externally observed behavior
// of the original receiver.
type Filter struct {
	Status    string
	StartDate string
	EndDate   string
	Page      int
}

// DayCount is one bar of the success chart.
type DayCount struct {
	Day   string `bun:"day" json:"day"`
	Count int    `bun:"count" json:"count"`
}

// Detail is one audit record with its stored payload re-parsed for display.
type Detail struct {
	ID           int64                  `json:"id"`
	Timestamp    time.Time              `json:"timestamp"`
	HTTPStatus   int                    `json:"http_status"`
	ErrorMessage *string                `json:"error_message,omitempty"`
	Payload      map[string]interface{} `json:"payload"`
}

type DBLayer interface {
	ListRequests(ctx context.Context, status *int, start, end *time.Time, limit, offset int) ([]models.WebhookRequest, int, error)
	GetRequest(ctx context.Context, id int64) (*models.WebhookRequest, error)
	DailySuccessCounts(ctx context.Context) ([]DayCount, error)
}

// Service serves the history listing, per-record detail and the per-day
// success aggregate. Read-only.
type Service struct {
	db    DBLayer
	cache *Cache // optional
}

func NewService(db DBLayer, cache *Cache) *Service {
	return &Service{db: db, cache: cache}
}

// Query returns one page of audit records, most recent first, plus the total
// page count for the matching set.
func (s *Service) Query(ctx context.Context, f Filter) ([]models.WebhookRequest, int, error) {
	page := f.Page
	if page < 1 {
		page = 1
	}

	var status *int
	if f.Status != "" {
		if v, err := strconv.Atoi(f.Status); err == nil {
			status = &v
		}
	}

	start := parseDate(f.StartDate)
	var end *time.Time
	if d := parseDate(f.EndDate); d != nil {
		// Inclusive calendar-date bound: anything before the next midnight.
		upper := d.Add(24 * time.Hour)
		end = &upper
	}

	records, total, err := s.db.ListRequests(ctx, status, start, end, PageSize, (page-1)*PageSize)
	if err != nil {
		return nil, 0, err
	}

	totalPages := (total + PageSize - 1) / PageSize
	return records, totalPages, nil
}

// DailySuccessCounts returns the all-time per-day success counts, ascending
// by day. It deliberately ignores the listing filters. Cache errors fall
// through to the database.
func (s *Service) DailySuccessCounts(ctx context.Context) ([]DayCount, error) {
	if s.cache != nil {
		if counts, ok := s.cache.GetDailyCounts(ctx); ok {
			return counts, nil
		}
	}
	counts, err := s.db.DailySuccessCounts(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.SetDailyCounts(ctx, counts)
	}
	return counts, nil
}

// GetDetail fetches one audit record and re-parses its stored payload. A
// corrupt stored payload yields a placeholder object rather than an error.
func (s *Service) GetDetail(ctx context.Context, id int64) (*Detail, error) {
	record, err := s.db.GetRequest(ctx, id)
	if err != nil {
		return nil, err
	}

	var payload map[string]interface{}
	if err := json.Unmarshal([]byte(record.RawPayload), &payload); err != nil {
		payload = map[string]interface{}{"error": "Stored payload is not valid JSON"}
	}

	return &Detail{
		ID:           record.ID,
		Timestamp:    record.Timestamp,
		HTTPStatus:   record.HTTPStatus,
		ErrorMessage: record.ErrorMessage,
		Payload:      payload,
	}, nil
}

// parseDate returns nil for anything that is not a YYYY-MM-DD calendar date,
// silently dropping the filter.
func parseDate(value string) *time.Time {
	if value == "" {
		return nil
	}
	d, err := time.ParseInLocation("2006-01-02", value, time.UTC)
	if err != nil {
		return nil
	}
	return &d
}
