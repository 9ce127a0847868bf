// Package webhook serves the HTTP endpoints the VenueShare game plugin calls.
package webhook

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/gadget-bot/venueshare/chat"
	"github.com/gadget-bot/venueshare/models"
	"github.com/gadget-bot/venueshare/search"
)

const maxBodyBytes = 1 << 20

// VenueSource is the read side of the venue cache.
type VenueSource interface {
	Venues() []models.Venue
	Len() int
}

// Handler answers the plugin's health checks and venue searches.
type Handler struct {
	venues   VenueSource
	channels chat.Registry
	now      func() time.Time
}

func NewHandler(venues VenueSource, channels chat.Registry) *Handler {
	return &Handler{venues: venues, channels: channels, now: time.Now}
}

// RegisterRoutes mounts the endpoints on r.
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	r.HandleFunc("/venue-search", h.VenueSearch).Methods(http.MethodPost)
}

type healthResponse struct {
	Status       string `json:"status"`
	Timestamp    string `json:"timestamp"`
	VenuesCached int    `json:"venues_cached"`
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:       "OK",
		Timestamp:    h.now().UTC().Format(time.RFC3339Nano),
		VenuesCached: h.venues.Len(),
	})
}

// venueSearchRequest is the body the plugin posts. The channel id arrives as
// a string or a number depending on the client.
type venueSearchRequest struct {
	Location         *models.LocationQuery `json:"location"`
	DiscordChannelID json.RawMessage       `json:"discordChannelId"`
	RequestedBy      string                `json:"requestedBy"`
}

type venueSearchResponse struct {
	Success     bool   `json:"success"`
	VenuesFound int    `json:"venuesFound"`
	Message     string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// VenueSearch handles POST /venue-search.
func (h *Handler) VenueSearch(w http.ResponseWriter, r *http.Request) {
	found, err := h.search(w, r)
	if err != nil {
		kind, status, msg := classify(err)
		event := log.Warn()
		if status >= http.StatusInternalServerError {
			event = log.Error()
		}
		event.Err(err).Str("kind", kind.String()).Int("code", status).Msg("Venue search failed")
		writeJSON(w, status, errorResponse{Error: msg})
		return
	}

	writeJSON(w, http.StatusOK, venueSearchResponse{
		Success:     true,
		VenuesFound: found,
		Message:     "Venue information posted to Discord",
	})
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) (found int, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &Error{Kind: KindInternal, Err: fmt.Errorf("panic: %v", p)}
		}
	}()

	req, err := decodeRequest(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return 0, err
	}
	if req.Location == nil || req.Location.IsEmpty() || isBlank(req.DiscordChannelID) {
		return 0, validationError("Missing required fields: location and discordChannelId", nil)
	}

	channelID, err := parseChannelID(req.DiscordChannelID)
	if err != nil {
		return 0, validationError("Invalid Discord channel ID", err)
	}

	ctx := r.Context()
	channel, err := h.channels.Channel(ctx, channelID)
	if errors.Is(err, chat.ErrChannelNotFound) {
		return 0, &Error{Kind: KindNotFound, Message: "Discord channel not found", Err: err}
	}
	if err != nil {
		return 0, &Error{Kind: KindInternal, Err: err}
	}

	matches := search.Match(*req.Location, h.venues.Venues())
	summary := search.Render(*req.Location, matches, req.RequestedBy, h.now())

	log.Debug().
		Int64("channel", channelID).
		Str("requested_by", req.RequestedBy).
		Int("matches", len(matches)).
		Msg("Posting venue search results")

	if err := channel.Send(ctx, summary); err != nil {
		return 0, &Error{Kind: KindDownstream, Err: err}
	}
	return len(matches), nil
}

func decodeRequest(body io.Reader) (venueSearchRequest, error) {
	var req venueSearchRequest
	data, err := io.ReadAll(body)
	if err != nil {
		return req, validationError("Invalid request body", err)
	}
	if err := json.Unmarshal(data, &req); err != nil {
		return req, validationError("Invalid JSON in request body", err)
	}
	return req, nil
}

func isBlank(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null")) || bytes.Equal(raw, []byte(`""`))
}

// parseChannelID accepts `"123"` or `123`.
func parseChannelID(raw json.RawMessage) (int64, error) {
	raw = bytes.TrimSpace(raw)
	s := string(raw)
	if len(raw) > 0 && raw[0] == '"' {
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, err
		}
	}
	return strconv.ParseInt(strings.TrimSpace(s), 10, 64)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}
