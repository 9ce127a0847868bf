// Package store persists the venue snapshot between restarts.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/gadget-bot/venueshare/models"
)

const saveBatchSize = 200

// OpenDB connects to the bot's SQL database.
func OpenDB(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "mysql":
		dialector = mysql.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported db driver %q", driver)
	}

	log.Debug().Str("driver", driver).Msg("Connecting to DB...")
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetConnMaxLifetime(5 * time.Minute)
	sqlDB.SetConnMaxIdleTime(3 * time.Minute)
	if driver == "sqlite" {
		// SQLite allows a single writer.
		sqlDB.SetMaxOpenConns(1)
	}

	log.Debug().Str("driver", driver).Msg("Connected to DB")
	return db, nil
}

// GormStore keeps the venue snapshot in the venue_records table.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore migrates the schema and returns a store on db.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&models.VenueRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate venue records: %w", err)
	}
	return &GormStore{db: db}, nil
}

// Load returns the stored venues in their saved order.
func (s *GormStore) Load(ctx context.Context) ([]models.Venue, error) {
	var records []models.VenueRecord
	if err := s.db.WithContext(ctx).Order("position").Find(&records).Error; err != nil {
		return nil, err
	}

	venues := make([]models.Venue, 0, len(records))
	for _, r := range records {
		v, err := r.Venue()
		if err != nil {
			log.Warn().Err(err).Str("venue", r.VenueID).Msg("Skipping undecodable venue record")
			continue
		}
		venues = append(venues, v)
	}
	return venues, nil
}

// Save replaces the stored snapshot with venues.
func (s *GormStore) Save(ctx context.Context, venues []models.Venue) error {
	records := make([]models.VenueRecord, 0, len(venues))
	for i, v := range venues {
		r, err := models.NewVenueRecord(v, i)
		if err != nil {
			return fmt.Errorf("failed to encode venue %q: %w", v.Name, err)
		}
		if r.VenueID == "" {
			r.VenueID = fmt.Sprintf("#%d", i)
		}
		records = append(records, r)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.VenueRecord{}).Error
		if err != nil {
			return err
		}
		if len(records) == 0 {
			return nil
		}
		return tx.CreateInBatches(records, saveBatchSize).Error
	})
}
