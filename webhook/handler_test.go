package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gadget-bot/venueshare/chat"
	"github.com/gadget-bot/venueshare/models"
	"github.com/gadget-bot/venueshare/search"
)

var fixedNow = time.Date(2024, 5, 1, 20, 30, 0, 0, time.UTC)

type staticVenues []models.Venue

func (s staticVenues) Venues() []models.Venue { return s }
func (s staticVenues) Len() int               { return len(s) }

type panickingVenues struct{}

func (panickingVenues) Venues() []models.Venue { panic("cache exploded") }
func (panickingVenues) Len() int               { return 0 }

type recordingChannel struct {
	sent []search.Summary
	err  error
}

func (c *recordingChannel) Send(ctx context.Context, s search.Summary) error {
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, s)
	return nil
}

type fakeRegistry struct {
	channels map[int64]*recordingChannel
	err      error
}

func (f *fakeRegistry) Channel(ctx context.Context, id int64) (chat.Channel, error) {
	if f.err != nil {
		return nil, f.err
	}
	c, ok := f.channels[id]
	if !ok {
		return nil, chat.ErrChannelNotFound
	}
	return c, nil
}

func gaiaVenue() models.Venue {
	return models.Venue{
		ID:   "v1",
		Name: "The Drowned Lantern",
		SFW:  true,
		Location: models.VenueLocation{
			World:    "Gaia",
			District: "Mist",
			Ward:     models.NewNumber(5),
			Plot:     models.NewNumber(12),
		},
	}
}

func newTestRouter(venues VenueSource, registry chat.Registry) *mux.Router {
	h := NewHandler(venues, registry)
	h.now = func() time.Time { return fixedNow }
	r := mux.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func post(t *testing.T, handler http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/venue-search", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	return out
}

func TestVenueSearch_MatchPostsSummary(t *testing.T) {
	channel := &recordingChannel{}
	registry := &fakeRegistry{channels: map[int64]*recordingChannel{123: channel}}
	router := newTestRouter(staticVenues{gaiaVenue()}, registry)

	rr := post(t, router, `{"location":{"server":"Gaia","district":"Mist","ward":5,"plot":12},"discordChannelId":"123"}`)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"success":true,"venuesFound":1,"message":"Venue information posted to Discord"}`, rr.Body.String())

	require.Len(t, channel.sent, 1)
	summary := channel.sent[0]
	require.Len(t, summary.Fields, 2)
	assert.Contains(t, summary.Fields[1].Value, "The Drowned Lantern")
	assert.Equal(t, "Requested by Unknown Player via VenueShare plugin", summary.Footer)
	assert.Equal(t, fixedNow, summary.Timestamp)
}

func TestVenueSearch_NumericChannelIDAndRequester(t *testing.T) {
	channel := &recordingChannel{}
	registry := &fakeRegistry{channels: map[int64]*recordingChannel{1234567890123456789: channel}}
	router := newTestRouter(staticVenues{gaiaVenue()}, registry)

	rr := post(t, router, `{"location":{"server":"Gaia"},"discordChannelId":1234567890123456789,"requestedBy":"Thancred"}`)

	assert.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, channel.sent, 1)
	assert.Equal(t, "Requested by Thancred via VenueShare plugin", channel.sent[0].Footer)
}

func TestVenueSearch_NoMatches(t *testing.T) {
	channel := &recordingChannel{}
	registry := &fakeRegistry{channels: map[int64]*recordingChannel{123: channel}}
	router := newTestRouter(staticVenues{gaiaVenue()}, registry)

	rr := post(t, router, `{"location":{"server":"Balmung","district":"Goblet"},"discordChannelId":"123"}`)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, float64(0), decode(t, rr)["venuesFound"])
	require.Len(t, channel.sent, 1)
	require.Len(t, channel.sent[0].Fields, 1)
	assert.Equal(t, "❌ No Venues Found", channel.sent[0].Fields[0].Name)
}

func TestVenueSearch_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		status  int
		message string
	}{
		{
			name:    "invalid_json",
			body:    `{"location":`,
			status:  http.StatusBadRequest,
			message: "Invalid JSON in request body",
		},
		{
			name:    "missing_channel",
			body:    `{"location":{"server":"Gaia"}}`,
			status:  http.StatusBadRequest,
			message: "Missing required fields: location and discordChannelId",
		},
		{
			name:    "missing_location",
			body:    `{"discordChannelId":"123"}`,
			status:  http.StatusBadRequest,
			message: "Missing required fields: location and discordChannelId",
		},
		{
			name:    "empty_location",
			body:    `{"location":{},"discordChannelId":"123"}`,
			status:  http.StatusBadRequest,
			message: "Missing required fields: location and discordChannelId",
		},
		{
			name:    "empty_channel",
			body:    `{"location":{"server":"Gaia"},"discordChannelId":""}`,
			status:  http.StatusBadRequest,
			message: "Missing required fields: location and discordChannelId",
		},
		{
			name:    "non_numeric_channel",
			body:    `{"location":{"server":"Gaia"},"discordChannelId":"general"}`,
			status:  http.StatusBadRequest,
			message: "Invalid Discord channel ID",
		},
		{
			name:    "unknown_channel",
			body:    `{"location":{"server":"Gaia"},"discordChannelId":"999"}`,
			status:  http.StatusNotFound,
			message: "Discord channel not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := &fakeRegistry{channels: map[int64]*recordingChannel{123: {}}}
			router := newTestRouter(staticVenues{gaiaVenue()}, registry)

			rr := post(t, router, tt.body)

			assert.Equal(t, tt.status, rr.Code)
			assert.Equal(t, tt.message, decode(t, rr)["error"])
		})
	}
}

func TestVenueSearch_SendFailureIsInternalError(t *testing.T) {
	channel := &recordingChannel{err: errors.New("HTTP 403 Forbidden, secret detail")}
	registry := &fakeRegistry{channels: map[int64]*recordingChannel{123: channel}}
	router := newTestRouter(staticVenues{gaiaVenue()}, registry)

	var buf bytes.Buffer
	origLogger := log.Logger
	log.Logger = zerolog.New(&buf)
	defer func() { log.Logger = origLogger }()

	rr := post(t, router, `{"location":{"server":"Gaia"},"discordChannelId":"123"}`)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, rr.Body.String())
	assert.NotContains(t, rr.Body.String(), "secret detail")
	assert.Contains(t, buf.String(), "secret detail")
	assert.Contains(t, buf.String(), "downstream_send")
}

func TestVenueSearch_RegistryFailureIsInternalError(t *testing.T) {
	registry := &fakeRegistry{err: errors.New("gateway down")}
	router := newTestRouter(staticVenues{gaiaVenue()}, registry)

	rr := post(t, router, `{"location":{"server":"Gaia"},"discordChannelId":"123"}`)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "Internal server error", decode(t, rr)["error"])
}

func TestVenueSearch_PanicIsContained(t *testing.T) {
	registry := &fakeRegistry{channels: map[int64]*recordingChannel{123: {}}}
	router := newTestRouter(panickingVenues{}, registry)

	rr := post(t, router, `{"location":{"server":"Gaia"},"discordChannelId":"123"}`)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "Internal server error", decode(t, rr)["error"])
}

func TestVenueSearch_WrongMethod(t *testing.T) {
	router := newTestRouter(staticVenues{}, &fakeRegistry{})

	req := httptest.NewRequest(http.MethodGet, "/venue-search", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name   string
		venues staticVenues
		want   float64
	}{
		{name: "empty_cache", venues: staticVenues{}, want: 0},
		{name: "one_venue", venues: staticVenues{gaiaVenue()}, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(tt.venues, &fakeRegistry{})

			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			assert.Equal(t, http.StatusOK, rr.Code)
			body := decode(t, rr)
			assert.Equal(t, "OK", body["status"])
			assert.Equal(t, tt.want, body["venues_cached"])
			assert.Equal(t, "2024-05-01T20:30:00Z", body["timestamp"])
		})
	}
}

func TestParseChannelID(t *testing.T) {
	tests := []struct {
		raw     string
		want    int64
		wantErr bool
	}{
		{raw: `"123"`, want: 123},
		{raw: `" 456 "`, want: 456},
		{raw: `789`, want: 789},
		{raw: `"abc"`, wantErr: true},
		{raw: `1.5`, wantErr: true},
		{raw: `{}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := parseChannelID(json.RawMessage(tt.raw))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassify(t *testing.T) {
	kind, status, msg := classify(errors.New("anything"))
	assert.Equal(t, KindInternal, kind)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, internalErrorMessage, msg)

	kind, status, msg = classify(validationError("Bad input", nil))
	assert.Equal(t, KindValidation, kind)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Bad input", msg)

	_, status, msg = classify(&Error{Kind: KindDownstream, Message: "leaky", Err: errors.New("x")})
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, internalErrorMessage, msg)
}
