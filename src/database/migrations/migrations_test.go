package migrations

import (
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"snapshotengine/src/database/dbtest"
	"snapshotengine/src/model"
)

func TestProvisionCreatesSnapshotTables(t *testing.T) {
	db := dbtest.SQLite(t)

	require.NoError(t, Provision(db))
	// second start is a no-op
	require.NoError(t, Provision(db))

	for _, m := range Models() {
		require.True(t, db.Migrator().HasTable(m), "%T", m)
	}
	require.True(t, db.Migrator().HasIndex(&model.Account{}, "gw_account_unique"))
	require.True(t, db.Migrator().HasIndex(&model.Position{}, "position_gw_symbol_unique"))
	require.True(t, db.Migrator().HasIndex(&model.Greeks{}, "greeks_gw_symbol_unique"))
	require.True(t, db.Migrator().HasIndex(&model.Trade{}, "orderid_unique"))

	var applied []DataMigration
	require.NoError(t, db.Find(&applied).Error)
	require.Len(t, applied, 1)
	require.Equal(t, "00001_normalize_direction_values", applied[0].ID)
}

func TestNormalizeDirectionValues(t *testing.T) {
	db := dbtest.SQLite(t)
	require.NoError(t, db.AutoMigrate(Models()...))

	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, db.Create(&model.Position{GatewayName: "CTP", Symbol: "rb2505", Direction: "多", LastUpdateTime: now}).Error)
	require.NoError(t, db.Create(&model.Position{GatewayName: "CTP", Symbol: "IF2503", Direction: "空", LastUpdateTime: now}).Error)
	require.NoError(t, db.Create(&model.Trade{GatewayName: "CTP", Symbol: "rb2505", OrderID: "O1", Direction: "多", Offset: "平今", Datetime: now}).Error)

	require.NoError(t, Run(db))

	var positions []model.Position
	require.NoError(t, db.Order("symbol").Find(&positions).Error)
	require.Equal(t, model.DirectionShort, positions[0].Direction)
	require.Equal(t, model.DirectionLong, positions[1].Direction)

	var trade model.Trade
	require.NoError(t, db.First(&trade).Error)
	require.Equal(t, model.DirectionLong, trade.Direction)
	require.Equal(t, model.OffsetCloseToday, trade.Offset)

	// recorded migrations are not applied twice
	require.NoError(t, db.Model(&model.Position{}).Where("symbol = ?", "rb2505").Update("direction", "多").Error)
	require.NoError(t, Run(db))
	var again model.Position
	require.NoError(t, db.Where("symbol = ?", "rb2505").First(&again).Error)
	require.Equal(t, "多", again.Direction)
}

func TestRunOnceValidation(t *testing.T) {
	db := dbtest.SQLite(t)

	require.NoError(t, RunOnce(nil, "x", func(*gorm.DB) error { return nil }))
	require.ErrorContains(t, RunOnce(db, "", func(*gorm.DB) error { return nil }), "migration id is empty")
	require.ErrorContains(t, RunOnce(db, "x", nil), "nil fn")

	err := RunOnce(db, "00099_failing", func(*gorm.DB) error { return fmt.Errorf("boom") })
	require.ErrorContains(t, err, "boom")

	var count int64
	require.NoError(t, db.Model(&DataMigration{}).Where("id = ?", "00099_failing").Count(&count).Error)
	require.Zero(t, count)
}

func TestPrepareLegacySnapshotTables(t *testing.T) {
	db, mock := dbtest.Mock(t)

	tableQuery := regexp.QuoteMeta(`SELECT table_name FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = $1`)
	columnQuery := regexp.QuoteMeta(`SELECT data_type FROM information_schema.columns WHERE table_name = $1 AND column_name = $2`)

	// vnpy_account: legacy table without id
	mock.ExpectQuery(tableQuery).WithArgs(model.TableAccount).
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow(model.TableAccount))
	mock.ExpectQuery(columnQuery).WithArgs(model.TableAccount, "id").
		WillReturnRows(sqlmock.NewRows([]string{"data_type"}))
	mock.ExpectExec(regexp.QuoteMeta(`ALTER TABLE vnpy_account ADD COLUMN id bigserial PRIMARY KEY`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	// vnpy_position: already migrated
	mock.ExpectQuery(tableQuery).WithArgs(model.TablePosition).
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow(model.TablePosition))
	mock.ExpectQuery(columnQuery).WithArgs(model.TablePosition, "id").
		WillReturnRows(sqlmock.NewRows([]string{"data_type"}).AddRow("bigint"))

	// vnpy_tradedata: fresh database
	mock.ExpectQuery(tableQuery).WithArgs(model.TableTrade).
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}))

	require.NoError(t, PrepareLegacySnapshotTables(db))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPrepareLegacySnapshotTablesSkipsSQLite(t *testing.T) {
	require.NoError(t, PrepareLegacySnapshotTables(dbtest.SQLite(t)))
}
