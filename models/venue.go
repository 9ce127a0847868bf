package models

import (
	"bytes"
	"encoding/json"
	"strings"
)

// VenueLocation is where a venue sits in the game world.
type VenueLocation struct {
	DataCenter    string `json:"dataCenter,omitempty"`
	World         string `json:"world,omitempty"`
	District      string `json:"district,omitempty"`
	Ward          Number `json:"ward"`
	Plot          Number `json:"plot"`
	Apartment     Number `json:"apartment"`
	Room          Number `json:"room"`
	Subdivision   bool   `json:"subdivision,omitempty"`
	TerritoryName string `json:"territoryName,omitempty"`
}

// Description is a venue description. The venues API sends a list of
// paragraphs; older payloads send a single string.
type Description []string

// First returns the first paragraph, or "" if there is none.
func (d Description) First() string {
	if len(d) == 0 {
		return ""
	}
	return d[0]
}

func (d *Description) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*d = nil
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*d = Description{s}
		return nil
	}
	var list []string
	if err := json.Unmarshal(b, &list); err != nil {
		return err
	}
	*d = list
	return nil
}

// Venue is a registered venue as listed by the venues API.
type Venue struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Description  Description   `json:"description,omitempty"`
	Tags         []string      `json:"tags,omitempty"`
	Website      string        `json:"website,omitempty"`
	Discord      string        `json:"discord,omitempty"`
	SFW          bool          `json:"sfw"`
	MareCode     string        `json:"mareCode,omitempty"`
	MarePassword string        `json:"marePassword,omitempty"`
	Location     VenueLocation `json:"location"`
}

// UnmarshalJSON decodes a venue, defaulting sfw to true when absent.
func (v *Venue) UnmarshalJSON(b []byte) error {
	type plain Venue
	p := plain{SFW: true}
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*v = Venue(p)
	return nil
}

// HasSyncShell reports whether both Mare Synchronos credentials are present.
func (v Venue) HasSyncShell() bool {
	return v.MareCode != "" && v.MarePassword != ""
}

// LocationQuery is the location a caller wants venues for. Every field is
// optional; an entirely empty query is rejected by the webhook.
type LocationQuery struct {
	Server        string `json:"server,omitempty"`
	District      string `json:"district,omitempty"`
	Ward          Number `json:"ward"`
	Plot          Number `json:"plot"`
	TerritoryName string `json:"territoryName,omitempty"`
	DataCenter    string `json:"dataCenter,omitempty"`
}

// IsEmpty reports whether no field of the query is set.
func (q LocationQuery) IsEmpty() bool {
	return strings.TrimSpace(q.Server) == "" &&
		strings.TrimSpace(q.District) == "" &&
		!q.Ward.IsSet() &&
		!q.Plot.IsSet() &&
		strings.TrimSpace(q.TerritoryName) == "" &&
		strings.TrimSpace(q.DataCenter) == ""
}
