package database

import (
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const migrationImportLegacyUsersTable = "2026-08-20_import_legacy_users_table"

type migrationRecord struct {
	Name             string `gorm:"column:name;primaryKey;size:190;not null"`
	AppliedAtSeconds int64  `gorm:"column:applied_at_s;not null"`
}

func (migrationRecord) TableName() string {
	return "db_migrations"
}

type migrationDefinition struct {
	name  string
	apply func(*gorm.DB) error
}

func applyMigrations(db *gorm.DB, logger *zap.Logger) error {
	migrations := []migrationDefinition{
		{name: migrationImportLegacyUsersTable, apply: importLegacyUsersTable},
	}

	for _, migration := range migrations {
		var record migrationRecord
		err := db.Where("name = ?", migration.name).Take(&record).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := migration.apply(db); err != nil {
			return err
		}
		appliedAt := time.Now().UTC().Unix()
		if err := db.Create(&migrationRecord{Name: migration.name, AppliedAtSeconds: appliedAt}).Error; err != nil {
			return err
		}
		if logger != nil {
			logger.Info("database migration applied", zap.String("migration", migration.name))
		}
	}
	return nil
}

// importLegacyUsersTable carries rows over from the pre-rewrite "users" table.
// Newer rows in authorized_users win on conflict.
func importLegacyUsersTable(db *gorm.DB) error {
	if !db.Migrator().HasTable("users") {
		return nil
	}
	const importRows = `
		INSERT INTO authorized_users (instagram_id, username, account_type, access_token, created_at)
		SELECT instagram_id, COALESCE(username, ''), COALESCE(account_type, ''), access_token, created_at
		FROM users
		WHERE instagram_id IS NOT NULL AND access_token IS NOT NULL
		ON CONFLICT(instagram_id) DO NOTHING;`
	return db.Exec(importRows).Error
}
