package venuecache

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gadget-bot/venueshare/conf"
	"github.com/gadget-bot/venueshare/models"
)

// DefaultAPIURL lists every venue on FFXIV Venues.
const DefaultAPIURL = "https://api.ffxivvenues.com/v1.0/venue"

const fetchTimeout = 30 * time.Second

// APISource fetches venues from the FFXIV Venues API.
type APISource struct {
	URL    string
	Client *http.Client
}

func NewAPISource(url string) *APISource {
	if url == "" {
		url = DefaultAPIURL
	}
	return &APISource{
		URL:    url,
		Client: &http.Client{Timeout: fetchTimeout},
	}
}

// Fetch implements Source. The API answers with a bare JSON array; a
// {"venues": [...]} envelope is accepted as well.
func (s *APISource) Fetch(ctx context.Context) ([]models.Venue, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", conf.Executable+"/"+conf.GitVersion)

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status code from venues API: %s", resp.Status)
	}

	return decodeVenues(body)
}

func decodeVenues(body []byte) ([]models.Venue, error) {
	body = bytes.TrimSpace(body)
	if len(body) > 0 && body[0] == '{' {
		var envelope struct {
			Venues []models.Venue `json:"venues"`
		}
		if err := json.Unmarshal(body, &envelope); err != nil {
			return nil, fmt.Errorf("failed to decode venues: %w", err)
		}
		return envelope.Venues, nil
	}

	var venues []models.Venue
	if err := json.Unmarshal(body, &venues); err != nil {
		return nil, fmt.Errorf("failed to decode venues: %w", err)
	}
	return venues, nil
}
