package stripe_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mastermind2990/ohr-shalom-terminal-agent/pkg/stripe"
)

// newTestClient builds an APIClient pointed at a stub Stripe server.
func newTestClient(t *testing.T, handler http.HandlerFunc) *stripe.APIClient {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	return stripe.NewAPIClient(server.URL, "sk_test_abc123", 0, logger)
}

func TestAPIClient_GetLocation_Success(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/terminal/locations/tml_GKsXoQ8u9cFZJF", r.URL.Path)
		assert.Equal(t, "Bearer sk_test_abc123", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "tml_GKsXoQ8u9cFZJF",
			"object": "terminal.location",
			"display_name": "Ohr Shalom",
			"address": {"line1": "123 Main St", "city": "Springfield"}
		}`))
	})

	location, err := client.GetLocation(context.Background(), "tml_GKsXoQ8u9cFZJF")
	require.NoError(t, err)
	assert.Equal(t, "tml_GKsXoQ8u9cFZJF", location.ID)
	assert.Equal(t, "Ohr Shalom", location.DisplayName)
	assert.Equal(t, "123 Main St", location.Address.Line1)
	assert.Equal(t, "Springfield", location.Address.City)
}

func TestAPIClient_GetLocation_NotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error": {"type": "invalid_request_error", "code": "resource_missing", "message": "No such terminal location"}}`))
	})

	location, err := client.GetLocation(context.Background(), "tml_missing")
	require.Error(t, err)
	assert.Nil(t, location)

	var apiErr *stripe.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "invalid_request_error", apiErr.Type)
	assert.Equal(t, "resource_missing", apiErr.Code)
	assert.Equal(t, "No such terminal location", apiErr.Message)
}

func TestAPIClient_GetLocation_EmptyID(t *testing.T) {
	called := false
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	_, err := client.GetLocation(context.Background(), "")
	assert.Error(t, err)
	assert.False(t, called)
}

func TestAPIClient_ListReaders(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/terminal/readers", r.URL.Path)
		assert.Equal(t, "Bearer sk_test_abc123", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"object": "list",
			"data": [
				{"id": "tmr_001", "label": "Front Desk", "device_type": "bbpos_wisepos_e", "location": "tml_GKsXoQ8u9cFZJF", "status": "online"},
				{"id": "tmr_002", "label": "Lobby", "device_type": "tap_to_pay_android", "location": "tml_GKsXoQ8u9cFZJF", "status": "offline"}
			],
			"has_more": false
		}`))
	})

	readers, err := client.ListReaders(context.Background())
	require.NoError(t, err)
	require.Len(t, readers, 2)
	assert.Equal(t, "tmr_001", readers[0].ID)
	assert.Equal(t, "Front Desk", readers[0].Label)
	assert.Equal(t, "offline", readers[1].Status)
}

func TestAPIClient_CreateReader_FormEncoding(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/terminal/readers", r.URL.Path)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "tap_to_pay_android", r.FormValue("type"))
		assert.Equal(t, "tml_GKsXoQ8u9cFZJF", r.FormValue("location"))
		assert.Equal(t, "Ohr Shalom Donation Kiosk", r.FormValue("label"))
		assert.Equal(t, "ohr-shalom-tablet-001", r.FormValue("metadata[tablet_id]"))
		assert.Equal(t, "donation_kiosk", r.FormValue("metadata[purpose]"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "tmr_123",
			"object": "terminal.reader",
			"device_type": "tap_to_pay_android",
			"location": "tml_GKsXoQ8u9cFZJF",
			"status": "online",
			"label": "Ohr Shalom Donation Kiosk"
		}`))
	})

	reader, err := client.CreateReader(context.Background(), stripe.CreateReaderParams{
		Type:       "tap_to_pay_android",
		LocationID: "tml_GKsXoQ8u9cFZJF",
		Label:      "Ohr Shalom Donation Kiosk",
		Metadata: map[string]string{
			"tablet_id": "ohr-shalom-tablet-001",
			"purpose":   "donation_kiosk",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "tmr_123", reader.ID)
	assert.Equal(t, "tap_to_pay_android", reader.DeviceType)
	assert.Equal(t, "tml_GKsXoQ8u9cFZJF", reader.Location)
	assert.Equal(t, "online", reader.Status)
}

func TestAPIClient_CreateReader_StringErrorBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": "invalid_metadata"}`))
	})

	reader, err := client.CreateReader(context.Background(), stripe.CreateReaderParams{
		Type:       "tap_to_pay_android",
		LocationID: "tml_GKsXoQ8u9cFZJF",
		Label:      "Ohr Shalom Donation Kiosk",
	})
	require.Error(t, err)
	assert.Nil(t, reader)

	var apiErr *stripe.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "invalid_metadata", apiErr.Message)
	assert.Contains(t, apiErr.RawBody, "invalid_metadata")
}

func TestAPIClient_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // client now dials a dead address

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	client := stripe.NewAPIClient(server.URL, "sk_test_abc123", 0, logger)

	_, err := client.ListReaders(context.Background())
	require.Error(t, err)

	var apiErr *stripe.APIError
	assert.False(t, errors.As(err, &apiErr))
}
