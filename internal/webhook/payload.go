package webhook

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"

	"petzi-webhook/internal/models"
)

// FieldErrorKind classifies extraction failures: a required key that is
// absent versus one that is present but not coercible to the expected type.
type FieldErrorKind int

const (
	MissingField FieldErrorKind = iota
	InvalidType
)

// FieldError carries the offending field name so the rejection message can
// point at exactly one key.
type FieldError struct {
	Kind  FieldErrorKind
	Field string
}

func (e *FieldError) Error() string {
	if e.Kind == MissingField {
		return "Missing field: " + e.Field
	}
	return "Invalid data type: " + e.Field
}

func missing(field string) *FieldError { return &FieldError{Kind: MissingField, Field: field} }
func invalid(field string) *FieldError { return &FieldError{Kind: InvalidType, Field: field} }

// ExtractTicket maps a provider payload onto a Ticket draft. Extraction is
// total: every path returns either a draft or a classified FieldError. The
// input is never mutated.
//
// Required keys are details.ticket.{number,type,title,category,eventId,event,
// generatedAt,promoter,price.amount,price.currency} and
// details.buyer.{role,firstName,lastName,postcode}; cancellationReason is
// optional. price.amount arrives as a JSON number or a numeric string
// ("25.00") and must be non-negative.
func ExtractTicket(body []byte) (*models.Ticket, *FieldError) {
	var root map[string]json.RawMessage
	if err := json.Unmarshal(body, &root); err != nil {
		return nil, invalid("payload")
	}

	details, ferr := getObject(root, "details", "details")
	if ferr != nil {
		return nil, ferr
	}
	ticketObj, ferr := getObject(details, "ticket", "ticket")
	if ferr != nil {
		return nil, ferr
	}
	buyerObj, ferr := getObject(details, "buyer", "buyer")
	if ferr != nil {
		return nil, ferr
	}

	ticket := &models.Ticket{}

	for _, f := range []struct {
		key  string
		dest *string
	}{
		{"number", &ticket.Number},
		{"type", &ticket.Type},
		{"title", &ticket.Title},
		{"category", &ticket.Category},
		{"event", &ticket.Event},
		{"promoter", &ticket.Promoter},
	} {
		v, ferr := getString(ticketObj, f.key, f.key)
		if ferr != nil {
			return nil, ferr
		}
		*f.dest = v
	}

	eventID, ferr := getInt(ticketObj, "eventId", "eventId")
	if ferr != nil {
		return nil, ferr
	}
	ticket.EventID = eventID

	generatedAt, ferr := getString(ticketObj, "generatedAt", "generatedAt")
	if ferr != nil {
		return nil, ferr
	}
	parsedAt, err := time.Parse(time.RFC3339, generatedAt)
	if err != nil {
		return nil, invalid("generatedAt")
	}
	ticket.GeneratedAt = parsedAt

	// cancellationReason is the one optional key; null and absent both map to
	// the empty string.
	if raw, ok := ticketObj["cancellationReason"]; ok && !isJSONNull(raw) {
		var reason string
		if err := json.Unmarshal(raw, &reason); err != nil {
			return nil, invalid("cancellationReason")
		}
		ticket.CancellationReason = reason
	}

	price, ferr := getObject(ticketObj, "price", "price")
	if ferr != nil {
		return nil, ferr
	}
	amount, ferr := getAmount(price, "amount", "price.amount")
	if ferr != nil {
		return nil, ferr
	}
	ticket.PriceAmount = amount
	currency, ferr := getString(price, "currency", "price.currency")
	if ferr != nil {
		return nil, ferr
	}
	ticket.PriceCurrency = currency

	for _, f := range []struct {
		key  string
		dest *string
	}{
		{"role", &ticket.BuyerRole},
		{"firstName", &ticket.BuyerFirstName},
		{"lastName", &ticket.BuyerLastName},
		{"postcode", &ticket.BuyerPostcode},
	} {
		v, ferr := getString(buyerObj, f.key, f.key)
		if ferr != nil {
			return nil, ferr
		}
		*f.dest = v
	}

	return ticket, nil
}

func getObject(m map[string]json.RawMessage, key, name string) (map[string]json.RawMessage, *FieldError) {
	raw, ok := m[key]
	if !ok || isJSONNull(raw) {
		return nil, missing(name)
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, invalid(name)
	}
	return obj, nil
}

func getString(m map[string]json.RawMessage, key, name string) (string, *FieldError) {
	raw, ok := m[key]
	if !ok {
		return "", missing(name)
	}
	var v string
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", invalid(name)
	}
	return v, nil
}

func getInt(m map[string]json.RawMessage, key, name string) (int64, *FieldError) {
	raw, ok := m[key]
	if !ok {
		return 0, missing(name)
	}
	var v int64
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, invalid(name)
	}
	return v, nil
}

// getAmount accepts either a JSON number or a numeric string; the provider
// sends prices as strings ("25.00"). Negative amounts are invalid.
func getAmount(m map[string]json.RawMessage, key, name string) (float64, *FieldError) {
	raw, ok := m[key]
	if !ok {
		return 0, missing(name)
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, invalid(name)
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, invalid(name)
		}
		v = parsed
	}
	if v < 0 {
		return 0, invalid(name)
	}
	return v, nil
}

func isJSONNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
