// Package search filters cached venues by location and renders the matches
// into a bounded chat summary. Both operations are pure: they never modify
// their inputs and return the same output for the same input.
package search

import (
	"strings"

	"github.com/gadget-bot/venueshare/models"
)

// placeholder is the ward/plot value the game plugin sends when it could not
// read the real one.
const placeholder = 1

// Match returns the venues at the queried location, in the order given.
// Fields missing on either side impose no constraint.
func Match(q models.LocationQuery, venues []models.Venue) []models.Venue {
	server := strings.ToLower(strings.TrimSpace(q.Server))
	district := strings.ToLower(strings.TrimSpace(q.District))

	matches := make([]models.Venue, 0)
	for _, v := range venues {
		loc := v.Location
		if !fuzzyMatch(server, loc.World) {
			continue
		}
		if !fuzzyMatch(district, loc.District) {
			continue
		}
		if !numberMatch(q.Ward, loc.Ward) {
			continue
		}
		if !numberMatch(q.Plot, loc.Plot) {
			continue
		}
		matches = append(matches, v)
	}
	return matches
}

// fuzzyMatch accepts either string containing the other. want must already
// be lowercased.
func fuzzyMatch(want, have string) bool {
	have = strings.ToLower(strings.TrimSpace(have))
	if want == "" || have == "" {
		return true
	}
	return strings.Contains(have, want) || strings.Contains(want, have)
}

// numberMatch compares a ward or plot. The placeholder and anything that
// does not parse let the venue through.
func numberMatch(want, have models.Number) bool {
	if !want.IsSet() || !have.IsSet() {
		return true
	}
	w, ok := want.Int()
	if !ok || w == placeholder {
		return true
	}
	h, ok := have.Int()
	if !ok {
		return true
	}
	return w == h
}
