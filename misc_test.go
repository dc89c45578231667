package gocrud

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/samber/lo"
	"github.com/spf13/cast"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newGORMMySQLMock() (string, *gorm.DB, sqlmock.Sqlmock, error) {
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		return "", nil, nil, err
	}

	dialector := mysql.New(mysql.Config{
		Conn:                      mockDB,
		SkipInitializeWithVersion: true,
	})

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return "", nil, nil, err
	}

	return "mysql", db.Debug(), mock, nil
}

func newGORMPostgresMock() (string, *gorm.DB, sqlmock.Sqlmock, error) {
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		return "", nil, nil, err
	}

	dialector := postgres.New(postgres.Config{
		Conn: mockDB,
	})

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return "", nil, nil, err
	}

	return "postgres", db.Debug(), mock, nil
}

var _sqlMockFnList = []func() (string, *gorm.DB, sqlmock.Sqlmock, error){
	newGORMMySQLMock,
	newGORMPostgresMock,
}

const _testTable = "test"

// _testRows mirrors the fixture every sqlite test starts from.
var _testRows = []struct {
	ID    int
	Name  string
	Order *int
}{
	{1, "Hello", lo.ToPtr(1)},
	{2, "World", lo.ToPtr(2)},
	{3, "Carlos", lo.ToPtr(3)},
	{4, "Mickey", nil},
	{5, "Mary", nil},
}

// newSQLiteDB opens an in-memory sqlite database with the test table.
// The test is skipped when the sqlite driver is unavailable (CGO disabled).
func newSQLiteDB(t *testing.T, seed bool) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Skipf("sqlite is unavailable: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// Every connection to ":memory:" is a separate database.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	err = db.Exec(`CREATE TABLE test (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		description TEXT DEFAULT '',
		"order" INTEGER DEFAULT 0
	)`).Error
	if err != nil {
		t.Fatalf("create table: %v", err)
	}

	if !seed {
		return db
	}

	for _, row := range _testRows {
		if row.Order != nil {
			err = db.Exec(`INSERT INTO test (id, name, "order") VALUES (?, ?, ?)`, row.ID, row.Name, *row.Order).Error
		} else {
			err = db.Exec(`INSERT INTO test (id, name) VALUES (?, ?)`, row.ID, row.Name).Error
		}
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	return db
}

func recordIDs(rows []Record) []int64 {
	ret := make([]int64, 0, len(rows))
	for _, row := range rows {
		ret = append(ret, cast.ToInt64(row["id"]))
	}

	return ret
}
