package services

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/orderq/backend/models"
)

// TableEvent is something that happened to a table's dining flow.
type TableEvent string

const (
	EventSessionStarted TableEvent = "session_started"
	EventOrderPlaced    TableEvent = "order_placed"
	EventOrderConfirmed TableEvent = "order_confirmed"
	EventAllServed      TableEvent = "all_served"
	EventSessionEnded   TableEvent = "session_ended"
	EventSessionExpired TableEvent = "session_expired"
)

// tableTransitions is the transition table keyed by current status x event.
// An event with no entry for the current status is a no-op, so idempotent
// flows (re-scan, double confirm, repeated sweep runs) stay idempotent.
var tableTransitions = map[string]map[TableEvent]string{
	models.TableAvailable: {
		EventSessionStarted: models.TableOccupied,
	},
	models.TableOccupied: {
		EventOrderPlaced:    models.TableInProgress,
		EventOrderConfirmed: models.TableInProgress,
		EventSessionEnded:   models.TableAvailable,
		EventSessionExpired: models.TableAvailable,
	},
	models.TableInProgress: {
		EventAllServed:      models.TableServed,
		EventSessionEnded:   models.TableAvailable,
		EventSessionExpired: models.TableAvailable,
	},
	models.TableServed: {
		EventOrderPlaced:    models.TableInProgress,
		EventOrderConfirmed: models.TableInProgress,
		EventSessionEnded:   models.TableAvailable,
		EventSessionExpired: models.TableAvailable,
	},
}

// TableTracker is the single owner of the tables.status column. Session
// creation/end, order confirmation and the cleanup sweep all report events
// here instead of writing the column themselves.
type TableTracker struct{}

func NewTableTracker() *TableTracker {
	return &TableTracker{}
}

// Apply consults the transition table and, when the event applies to the
// table's current status, persists the new status using tx. It returns
// whether the status changed. The write uses a guarded UPDATE so two
// concurrent actors cannot both claim the same transition.
func (t *TableTracker) Apply(tx *gorm.DB, table *models.Table, event TableEvent) (bool, error) {
	next, ok := tableTransitions[table.Status][event]
	if !ok || next == table.Status {
		return false, nil
	}

	res := tx.Model(&models.Table{}).
		Where("id = ? AND status = ?", table.ID, table.Status).
		Update("status", next)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		// Lost the race: someone moved the table first.
		return false, nil
	}

	table.Status = next
	return true, nil
}

// Override sets the status directly (staff action). The value must still be
// one of the four legal statuses.
func (t *TableTracker) Override(tx *gorm.DB, table *models.Table, status string) error {
	if !models.ValidTableStatus(status) {
		return fmt.Errorf("invalid table status: %s", status)
	}

	if err := tx.Model(&models.Table{}).
		Where("id = ?", table.ID).
		Update("status", status).Error; err != nil {
		return err
	}

	table.Status = status
	return nil
}
