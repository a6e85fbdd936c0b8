package migrations

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"snapshotengine/src/model"
)

// legacyTables were created by the original snapshot engine without a
// surrogate key column.
var legacyTables = []string{model.TableAccount, model.TablePosition, model.TableTrade}

// PrepareLegacySnapshotTables adds the surrogate id column to tables created
// by the original engine so that AutoMigrate can manage them afterwards.
// Only PostgreSQL databases can carry legacy tables.
func PrepareLegacySnapshotTables(db *gorm.DB) error {
	if db.Dialector.Name() != "postgres" {
		return nil
	}

	for _, table := range legacyTables {
		exists, err := tableExists(db, table)
		if err != nil {
			return fmt.Errorf("inspect table %s: %w", table, err)
		}
		if !exists {
			continue
		}

		_, hasID, err := lookupColumnType(db, table, "id")
		if err != nil {
			return fmt.Errorf("inspect %s.id: %w", table, err)
		}
		if hasID {
			continue
		}

		if err := db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN id bigserial PRIMARY KEY", table)).Error; err != nil {
			return fmt.Errorf("add id to %s: %w", table, err)
		}

		logrus.WithField("table", table).Info("[migrations] legacy table prepared")
	}

	return nil
}

func tableExists(db *gorm.DB, table string) (bool, error) {
	var name string
	row := db.Raw(
		`SELECT table_name FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = ?`,
		table,
	).Row()

	if err := row.Scan(&name); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func lookupColumnType(db *gorm.DB, table, column string) (dataType string, exists bool, err error) {
	row := db.Raw(
		`SELECT data_type FROM information_schema.columns WHERE table_name = ? AND column_name = ?`,
		table,
		column,
	).Row()

	if scanErr := row.Scan(&dataType); scanErr != nil {
		if scanErr == sql.ErrNoRows {
			return "", false, nil
		}
		return "", false, scanErr
	}

	return strings.ToLower(dataType), true, nil
}
