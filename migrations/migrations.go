// Package migrations applies the relational schema in strictly ordered,
// forward-only steps. Each step names the steps it depends on and is applied
// at most once per database; applied step IDs are recorded in the
// schema_migrations table. A step whose dependency has not been applied aborts
// the whole run before touching the schema.
package migrations

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Step is a single forward-only schema change.
type Step struct {
	// ID is the stable step name recorded in schema_migrations, e.g. "0003_posts".
	ID string
	// Requires lists step IDs that must already be applied.
	Requires []string
	// Migrate performs the schema change. It runs inside a transaction together
	// with the bookkeeping insert.
	Migrate func(tx *gorm.DB) error
}

// Record is a row of the schema_migrations bookkeeping table.
type Record struct {
	ID        string    `gorm:"primaryKey;size:255"`
	AppliedAt time.Time `gorm:"not null"`
}

// TableName pins the bookkeeping table name.
func (Record) TableName() string { return "schema_migrations" }

// Run applies the given steps in order, skipping steps already recorded.
// It returns on the first failure without applying any further step.
func Run(db *gorm.DB, steps []Step) error {
	if err := db.AutoMigrate(&Record{}); err != nil {
		return fmt.Errorf("migrations: preparing schema_migrations table: %w", err)
	}

	applied, err := appliedSet(db)
	if err != nil {
		return err
	}

	for _, step := range steps {
		if step.ID == "" || step.Migrate == nil {
			return fmt.Errorf("migrations: step %q is incomplete", step.ID)
		}
		if applied[step.ID] {
			continue
		}
		for _, dep := range step.Requires {
			if !applied[dep] {
				return fmt.Errorf("migrations: step %s requires %s which has not been applied", step.ID, dep)
			}
		}

		err := db.Transaction(func(tx *gorm.DB) error {
			if err := step.Migrate(tx); err != nil {
				return err
			}
			return tx.Create(&Record{ID: step.ID, AppliedAt: time.Now()}).Error
		})
		if err != nil {
			return fmt.Errorf("migrations: applying %s: %w", step.ID, err)
		}
		applied[step.ID] = true
	}

	return nil
}

// Applied returns the IDs recorded as applied, in application order.
func Applied(db *gorm.DB) ([]string, error) {
	var records []Record
	if err := db.Order("applied_at, id").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("migrations: listing applied steps: %w", err)
	}
	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.ID)
	}
	return ids, nil
}

func appliedSet(db *gorm.DB) (map[string]bool, error) {
	ids, err := Applied(db)
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}
