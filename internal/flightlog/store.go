// Package flightlog records finished and running flights to SQLite. It is an
// after-the-fact telemetry record; flights are never resumed from it.
package flightlog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var ErrUnknownSession = errors.New("unknown session")

// Session is one flight from reset to crash, capture or shutdown.
type Session struct {
	ID        string `gorm:"primaryKey;size:36"`
	World     string `gorm:"size:127"`
	StartedAt time.Time
	EndedAt   *time.Time
	Outcome   string `gorm:"size:32"`
	Steps     uint64
}

func (Session) TableName() string { return "sessions" }

// Event is a discrete flight signal: crash, objective or repair.
type Event struct {
	ID        uint    `gorm:"primaryKey"`
	SessionID string  `gorm:"size:36;index:idx_event_session"`
	Kind      string  `gorm:"size:16"`
	Cause     string  `gorm:"size:32"`
	SimTime   float64 // snapshot clock, seconds
	X         float64
	Y         float64
	Z         float64
	Speed     float64
	Distance  float64
	Obstacle  int
}

func (Event) TableName() string { return "flight_events" }

// Sample is a decimated snapshot.
type Sample struct {
	ID           uint    `gorm:"primaryKey"`
	SessionID    string  `gorm:"size:36;index:idx_sample_session"`
	SimTime      float64 `gorm:"index:idx_sample_time"`
	X            float64
	Y            float64
	Z            float64
	VX           float64
	VY           float64
	VZ           float64
	Pitch        float64
	Yaw          float64
	Roll         float64
	Throttle     float64
	Battery      float64
	Status       string `gorm:"size:16"`
	Distance     float64
	HasObjective bool
}

func (Sample) TableName() string { return "flight_samples" }

const (
	OutcomeCrashed   = "crashed"
	OutcomeObjective = "objective"
	OutcomeAborted   = "aborted"
)

type Store struct {
	db *gorm.DB
}

// Open opens the flight log at path, or a private in-memory database when path
// is empty, and migrates the schema.
func Open(path string) (*Store, error) {
	dsn := path
	if dsn == "" {
		// Named so that every pooled connection sees the same database.
		dsn = "file:flightlog-" + uuid.NewString() + "?mode=memory&cache=shared"
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
		CreateBatchSize:        500,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open flight log: %w", err)
	}

	pragmas := []string{
		"PRAGMA user_version = 1;",
		"PRAGMA journal_mode = WAL;",
		"PRAGMA synchronous = NORMAL;",
		"PRAGMA temp_store = MEMORY;",
	}
	if path == "" {
		pragmas[1] = "PRAGMA journal_mode = MEMORY;"
	}
	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			return nil, fmt.Errorf("error setting PRAGMA: %w", err)
		}
	}

	if err := db.AutoMigrate(&Session{}, &Event{}, &Sample{}); err != nil {
		return nil, fmt.Errorf("migrate flight log: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// StartSession creates a session row and returns its id.
func (s *Store) StartSession(ctx context.Context, world string, at time.Time) (string, error) {
	sess := Session{ID: uuid.NewString(), World: world, StartedAt: at}
	if err := s.db.WithContext(ctx).Create(&sess).Error; err != nil {
		return "", fmt.Errorf("start session: %w", err)
	}
	return sess.ID, nil
}

// EndSession stamps the outcome and step count.
func (s *Store) EndSession(ctx context.Context, id, outcome string, steps uint64, at time.Time) error {
	res := s.db.WithContext(ctx).Model(&Session{}).Where("id = ?", id).Updates(map[string]any{
		"ended_at": at,
		"outcome":  outcome,
		"steps":    steps,
	})
	if res.Error != nil {
		return fmt.Errorf("end session: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("end session %s: %w", id, ErrUnknownSession)
	}
	return nil
}

// Sessions lists sessions, newest first.
func (s *Store) Sessions(ctx context.Context) ([]Session, error) {
	var out []Session
	if err := s.db.WithContext(ctx).Order("started_at desc").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return out, nil
}

func (s *Store) Events(ctx context.Context, sessionID string) ([]Event, error) {
	var out []Event
	if err := s.db.WithContext(ctx).Where("session_id = ?", sessionID).Order("id").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return out, nil
}

func (s *Store) Samples(ctx context.Context, sessionID string) ([]Sample, error) {
	var out []Sample
	if err := s.db.WithContext(ctx).Where("session_id = ?", sessionID).Order("id").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list samples: %w", err)
	}
	return out, nil
}

// write stores a batch in one transaction.
func (s *Store) write(ctx context.Context, events []Event, samples []Sample) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(events) > 0 {
			if err := tx.Create(&events).Error; err != nil {
				return fmt.Errorf("insert events: %w", err)
			}
		}
		if len(samples) > 0 {
			if err := tx.Create(&samples).Error; err != nil {
				return fmt.Errorf("insert samples: %w", err)
			}
		}
		return nil
	})
}
