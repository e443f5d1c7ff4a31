package simulator

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"petzi-webhook/internal/signature"
)

// samplePayload is the provider's documented ticket_created example. The
// ticket number is replaced per invocation so repeated runs don't collide on
// the receiver's uniqueness constraint.
const samplePayload = `{
   "event":"ticket_created",
   "details":{
      "ticket":{
         "number":"XXXX2941J6SABA",
         "type":"online_presale",
         "title":"Test To Delete",
         "category":"Prélocation",
         "eventId":54694,
         "event":"Test To Delete",
         "cancellationReason":"",
         "generatedAt":"2024-09-04T10:21:21.925529+00:00",
         "sessions":[
            {
               "name":"Test To Delete",
               "date":"2024-01-27",
               "time":"21:00:00",
               "doors":"21:00:00",
               "location":{
                  "name":"Case à Chocs",
                  "street":"Quai Philipe Godet 20",
                  "city":"Neuchatel",
                  "postcode":"2000"
               }
            }
         ],
         "promoter":"Case à Chocs",
         "price":{
            "amount":"25.00",
            "currency":"CHF"
         }
      },
      "buyer":{
         "role":"customer",
         "firstName":"Jane",
         "lastName":"Doe",
         "postcode":"1234"
      }
   }
}`

// Result reports what the target answered.
type Result struct {
	StatusCode int
	Body       string
}

// Simulator builds correctly signed test notifications and fires them at a
// receiver. It persists nothing.
type Simulator struct {
	Client *http.Client
	signer *signature.Signer
}

func New(secret string) *Simulator {
	return &Simulator{
		Client: &http.Client{Timeout: 10 * time.Second},
		signer: signature.New(secret),
	}
}

// BuildPayload returns the sample payload with a freshly randomized ticket
// number.
func BuildPayload() (string, error) {
	var doc map[string]interface{}
	if err := json.Unmarshal([]byte(samplePayload), &doc); err != nil {
		return "", fmt.Errorf("failed to parse sample payload: %w", err)
	}

	details := doc["details"].(map[string]interface{})
	ticket := details["ticket"].(map[string]interface{})
	ticket["number"] = randomTicketNumber()

	body, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return "", fmt.Errorf("failed to serialize payload: %w", err)
	}
	return string(body), nil
}

func randomTicketNumber() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
}

// Send signs payload and POSTs it to url with the provider's headers.
func (s *Simulator) Send(ctx context.Context, url, payload string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Petzi-Signature", s.signer.Sign(payload))
	req.Header.Set("Petzi-Version", "2")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "PETZI webhook")

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return &Result{StatusCode: resp.StatusCode, Body: string(body)}, nil
}
