package jobs

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/geocoder89/printhub/internal/domain/job"
)

func EncodePayload(t JobType, payload any) ([]byte, error) {
	if err := ValidatePayload(t, payload); err != nil {
		return nil, err
	}

	b, err := json.Marshal(payload)

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJobPayload, err)
	}

	return b, nil
}

// DecodePayload unmarshals j.Payload into the typed payload struct for j.Type.
func DecodePayload(j job.Job) (any, error) {
	t := JobType(j.Type)
	if !t.IsValid() {
		return nil, ErrInvalidJobType
	}
	if len(j.Payload) == 0 {
		return nil, ErrInvalidJobPayload
	}

	var out any
	switch t {
	case JobOrderPlaced:
		var p OrderPlacedPayload
		if err := json.Unmarshal(j.Payload, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidJobPayload, err)
		}
		out = p

	case JobOrderStatusChanged:
		var p OrderStatusChangedPayload
		if err := json.Unmarshal(j.Payload, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidJobPayload, err)
		}
		out = p

	case JobWelcome:
		var p WelcomePayload
		if err := json.Unmarshal(j.Payload, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidJobPayload, err)
		}
		out = p
	}

	if err := ValidatePayload(t, out); err != nil {
		return nil, err
	}
	return out, nil
}

// NewRequest encodes payload and builds the enqueue request for a job of type t.
func NewRequest(t JobType, payload any, userID string, idempotencyKey string) (job.CreateRequest, error) {
	b, err := EncodePayload(t, payload)
	if err != nil {
		return job.CreateRequest{}, err
	}

	req := job.CreateRequest{
		Type:        string(t),
		Payload:     b,
		RunAt:       time.Now().UTC(),
		MaxAttempts: 8,
		Priority:    t.Priority(),
	}
	if userID != "" {
		req.UserID = &userID
	}
	if idempotencyKey != "" {
		req.IdempotencyKey = &idempotencyKey
	}
	return req, nil
}
