package migration

import (
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/pablodma/homeAssistant-backend/pkg/logger"
)

// Migration is one versioned schema change. Version tokens are strictly
// increasing and never reused. Run receives a transaction: a migration
// either applies completely or not at all.
type Migration struct {
	Version int
	Name    string
	Run     func(tx *gorm.DB) error
}

// SchemaMigration is the persisted ledger of applied versions.
type SchemaMigration struct {
	Version   int       `gorm:"primaryKey"`
	Name      string    `gorm:"type:varchar(200);not null"`
	AppliedAt time.Time `gorm:"not null"`
}

// TableName sets the ledger table name.
func (SchemaMigration) TableName() string { return "schema_migrations" }

// Run applies the package registry against db. Safe to invoke repeatedly:
// already-applied versions are skipped.
func Run(db *gorm.DB) error {
	return Apply(db, Registry())
}

// Apply applies the given migrations in order, exactly once each.
//
// It fails loudly, before touching the schema, when the ledger and the
// registry disagree: an applied version missing from the registry, or a
// pending version older than one already applied (a skipped migration),
// both indicate a broken deployment rather than a state to paper over.
func Apply(db *gorm.DB, migrations []Migration) error {
	log := logger.GetLogger()

	if err := validateRegistry(migrations); err != nil {
		return err
	}

	if !db.Migrator().HasTable(&SchemaMigration{}) {
		if err := db.Migrator().CreateTable(&SchemaMigration{}); err != nil {
			return fmt.Errorf("create schema_migrations: %w", err)
		}
	}

	var applied []SchemaMigration
	if err := db.Order("version").Find(&applied).Error; err != nil {
		return fmt.Errorf("load applied migrations: %w", err)
	}

	appliedSet := make(map[int]bool, len(applied))
	maxApplied := 0
	for _, m := range applied {
		appliedSet[m.Version] = true
		if m.Version > maxApplied {
			maxApplied = m.Version
		}
	}

	registered := make(map[int]bool, len(migrations))
	for _, m := range migrations {
		registered[m.Version] = true
	}
	for _, m := range applied {
		if !registered[m.Version] {
			return fmt.Errorf("applied migration %03d (%s) is not in the registry", m.Version, m.Name)
		}
	}

	for _, m := range migrations {
		if appliedSet[m.Version] {
			continue
		}
		if m.Version < maxApplied {
			return fmt.Errorf("migration %03d (%s) was skipped: version %03d is already applied", m.Version, m.Name, maxApplied)
		}

		start := time.Now()
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := m.Run(tx); err != nil {
				return err
			}
			return tx.Create(&SchemaMigration{
				Version:   m.Version,
				Name:      m.Name,
				AppliedAt: time.Now(),
			}).Error
		})
		if err != nil {
			return fmt.Errorf("migration %03d (%s) failed: %w", m.Version, m.Name, err)
		}

		maxApplied = m.Version
		log.Info("Migration applied",
			zap.Int("version", m.Version),
			zap.String("name", m.Name),
			zap.Duration("took", time.Since(start)),
		)
	}

	return nil
}

func validateRegistry(migrations []Migration) error {
	if !sort.SliceIsSorted(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	}) {
		return fmt.Errorf("migration registry is not ordered by version")
	}
	seen := make(map[int]bool, len(migrations))
	for _, m := range migrations {
		if m.Version <= 0 {
			return fmt.Errorf("migration %q has invalid version %d", m.Name, m.Version)
		}
		if seen[m.Version] {
			return fmt.Errorf("duplicate migration version %03d", m.Version)
		}
		seen[m.Version] = true
		if m.Run == nil {
			return fmt.Errorf("migration %03d (%s) has no run function", m.Version, m.Name)
		}
	}
	return nil
}
