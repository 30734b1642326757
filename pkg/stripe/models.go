package stripe

import (
	"encoding/json"
	"fmt"
)

// Address is the postal address attached to a Terminal location.
type Address struct {
	Line1      string `json:"line1,omitempty"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	Country    string `json:"country,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
}

// Location represents a Stripe Terminal location resource.
type Location struct {
	ID          string  `json:"id"`
	Object      string  `json:"object,omitempty"`
	DisplayName string  `json:"display_name"`
	Address     Address `json:"address"`
	Livemode    bool    `json:"livemode,omitempty"`
}

// Reader represents a Stripe Terminal reader resource.
type Reader struct {
	ID         string            `json:"id"`
	Object     string            `json:"object,omitempty"`
	DeviceType string            `json:"device_type"`
	Location   string            `json:"location"`
	Status     string            `json:"status"`
	Label      string            `json:"label,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	Livemode   bool              `json:"livemode,omitempty"`
}

// ReaderList is Stripe's list envelope for reader resources. Only the first
// page is ever consumed; HasMore is carried for logging.
type ReaderList struct {
	Object  string   `json:"object"`
	Data    []Reader `json:"data"`
	HasMore bool     `json:"has_more"`
}

// CreateReaderParams holds the fields sent when registering a new reader.
type CreateReaderParams struct {
	Type       string
	LocationID string
	Label      string
	Metadata   map[string]string
}

// APIError is a non-2xx response from the Stripe API. Type, Code and Message
// come from Stripe's error envelope when the body carries one; RawBody always
// holds the response body as received.
type APIError struct {
	StatusCode int
	Type       string
	Code       string
	Message    string
	RawBody    string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("stripe: HTTP %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("stripe: HTTP %d: %s", e.StatusCode, e.RawBody)
}

// newAPIError builds an APIError from a response body. Stripe normally wraps
// errors as {"error": {"type", "code", "message"}}, but some rejections carry
// a bare string instead, so both shapes are accepted.
func newAPIError(statusCode int, body []byte) *APIError {
	apiErr := &APIError{
		StatusCode: statusCode,
		RawBody:    string(body),
	}

	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Error) == 0 {
		return apiErr
	}

	var details struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(envelope.Error, &details); err == nil {
		apiErr.Type = details.Type
		apiErr.Code = details.Code
		apiErr.Message = details.Message
		return apiErr
	}

	var message string
	if err := json.Unmarshal(envelope.Error, &message); err == nil {
		apiErr.Message = message
	}

	return apiErr
}
