package services

import (
	"time"

	"gorm.io/gorm"

	"github.com/orderq/backend/events"
	"github.com/orderq/backend/models"
	"github.com/orderq/backend/utils"
)

// SessionCleanup runs periodically and:
//  1. Marks sessions past expires_at as inactive.
//  2. Frees tables that no longer have an active session.
//
// Running it twice in a row with no new expirations is a no-op.
type SessionCleanup struct {
	DB        *gorm.DB
	Publisher events.Publisher
	Tracker   *TableTracker
	Interval  time.Duration
	StopChan  chan struct{}
}

func NewSessionCleanup(db *gorm.DB, pub events.Publisher, tracker *TableTracker) *SessionCleanup {
	return &SessionCleanup{
		DB:        db,
		Publisher: pub,
		Tracker:   tracker,
		Interval:  5 * time.Minute,
		StopChan:  make(chan struct{}),
	}
}

func (sc *SessionCleanup) Start() {
	go func() {
		ticker := time.NewTicker(sc.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := sc.Sweep(); err != nil {
					utils.ErrorLogger.Printf("Session cleanup failed: %v", err)
				}
			case <-sc.StopChan:
				return
			}
		}
	}()
}

func (sc *SessionCleanup) Stop() {
	close(sc.StopChan)
}

// Sweep performs one cleanup pass. Exported so tests and an eventual admin
// endpoint can trigger it without waiting for the ticker.
func (sc *SessionCleanup) Sweep() error {
	now := time.Now()

	var freed []models.Table

	err := sc.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Session{}).
			Where("is_active = ? AND expires_at < ?", true, now).
			Update("is_active", false)
		if res.Error != nil {
			return res.Error
		}

		// Tables left without an active session go back to available.
		var stale []models.Table
		if err := tx.
			Where("status <> ?", models.TableAvailable).
			Where("NOT EXISTS (SELECT 1 FROM sessions s WHERE s.table_id = tables.id AND s.is_active = ? AND s.expires_at > ?)", true, now).
			Find(&stale).Error; err != nil {
			return err
		}

		for i := range stale {
			changed, err := sc.Tracker.Apply(tx, &stale[i], EventSessionExpired)
			if err != nil {
				return err
			}
			if changed {
				freed = append(freed, stale[i])
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, table := range freed {
		utils.InfoLogger.Printf("Session cleanup freed table %s", table.TableNumber)
		sc.Publisher.Publish(events.EventTableStatusUpdate, table)
	}
	return nil
}
