package webhook

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"petzi-webhook/internal/models"
	"petzi-webhook/internal/signature"
)

// DBLayer is the storage surface the pipeline writes to. The pipeline is the
// sole writer of both tables.
type DBLayer interface {
	// InsertTicket persists a ticket draft. created is false when a ticket
	// with the same number is already recorded; that is not an error.
	InsertTicket(ctx context.Context, ticket *models.Ticket) (created bool, err error)
	InsertRequest(ctx context.Context, request *models.WebhookRequest) error
}

// Publisher fans a successful ingestion out to downstream consumers.
type Publisher interface {
	Publish(topic, key string, value []byte) error
}

// CountsCache is notified after each successful ingestion so cached
// aggregates don't serve stale charts.
type CountsCache interface {
	InvalidateDailyCounts(ctx context.Context)
}

// Result is the outcome of one pipeline run. Status always equals the
// http_status stored on the audit row for the request.
type Result struct {
	Status  int
	Message string
}

const successMessage = "Webhook received and processed"

// Service runs the ingestion pipeline: signature check, JSON parse, field
// extraction, persistence, audit. Every inbound request, whatever its
// outcome, ends with exactly one audit row.
type Service struct {
	db       DBLayer
	signer   *signature.Signer
	producer Publisher   // optional
	topic    string
	cache    CountsCache // optional
}

func NewService(db DBLayer, signer *signature.Signer, producer Publisher, topic string, cache CountsCache) *Service {
	return &Service{
		db:       db,
		signer:   signer,
		producer: producer,
		topic:    topic,
		cache:    cache,
	}
}

// Process walks one request through the pipeline. body must be the verbatim
// request bytes: re-serialized JSON would break the signature.
func (s *Service) Process(ctx context.Context, body []byte, signatureHeader string) Result {
	if signatureHeader == "" {
		return s.reject(ctx, body, http.StatusBadRequest, "Missing signature header")
	}
	if !s.signer.Verify(string(body), signatureHeader) {
		return s.reject(ctx, body, http.StatusBadRequest, "Invalid signature")
	}
	if !json.Valid(body) {
		return s.reject(ctx, body, http.StatusBadRequest, "Invalid JSON payload")
	}

	ticket, ferr := ExtractTicket(body)
	if ferr != nil {
		return s.reject(ctx, body, http.StatusBadRequest, ferr.Error())
	}

	created, err := s.db.InsertTicket(ctx, ticket)
	if err != nil {
		log.Printf("WEBHOOK: failed to persist ticket %s: %v", ticket.Number, err)
		return s.reject(ctx, body, http.StatusInternalServerError, "Error processing webhook")
	}
	if !created {
		log.Printf("WEBHOOK: duplicate delivery for ticket %s, treated as no-op", ticket.Number)
	}

	s.audit(ctx, &models.WebhookRequest{
		Timestamp:      time.Now().UTC(),
		RawPayload:     string(body),
		HTTPStatus:     http.StatusOK,
		BuyerFirstName: &ticket.BuyerFirstName,
		BuyerLastName:  &ticket.BuyerLastName,
		EventName:      &ticket.Event,
		PriceAmount:    &ticket.PriceAmount,
	})

	if s.cache != nil {
		s.cache.InvalidateDailyCounts(ctx)
	}

	if s.producer != nil {
		if err := s.producer.Publish(s.topic, ticket.Number, body); err != nil {
			log.Printf("WEBHOOK: failed to publish ticket %s to %s: %v", ticket.Number, s.topic, err)
		}
	}

	return Result{Status: http.StatusOK, Message: successMessage}
}

func (s *Service) reject(ctx context.Context, body []byte, status int, message string) Result {
	errMsg := message
	s.audit(ctx, &models.WebhookRequest{
		Timestamp:    time.Now().UTC(),
		RawPayload:   string(body),
		HTTPStatus:   status,
		ErrorMessage: &errMsg,
	})
	return Result{Status: status, Message: message}
}

// audit is best-effort: a failed audit write is logged but never changes the
// response already decided for the caller.
func (s *Service) audit(ctx context.Context, request *models.WebhookRequest) {
	if err := s.db.InsertRequest(ctx, request); err != nil {
		log.Printf("WEBHOOK: failed to write audit record (status %d): %v", request.HTTPStatus, err)
	}
}
