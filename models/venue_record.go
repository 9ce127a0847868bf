package models

import (
	"encoding/json"
	"time"
)

// VenueRecord is one row of the persisted venue snapshot. The venue itself
// is kept as JSON so new API fields survive a round trip without a migration.
type VenueRecord struct {
	VenueID   string `gorm:"primaryKey;size:64"`
	Position  int    `gorm:"index"`
	Payload   string `gorm:"type:text"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewVenueRecord encodes v as the record at position pos.
func NewVenueRecord(v Venue, pos int) (VenueRecord, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return VenueRecord{}, err
	}
	return VenueRecord{VenueID: v.ID, Position: pos, Payload: string(payload)}, nil
}

// Venue decodes the stored payload.
func (r VenueRecord) Venue() (Venue, error) {
	var v Venue
	err := json.Unmarshal([]byte(r.Payload), &v)
	return v, err
}
