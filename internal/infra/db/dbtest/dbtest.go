// Package dbtest はテスト用のインメモリSQLiteを用意する。
package dbtest

import (
	"fmt"
	"sync/atomic"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"storefront/internal/infra/db"
)

var seq atomic.Int64

// Newはテストごとに独立したDBを作ってマイグレーションまで済ませる。
// 接続は1本に絞る（同時txは直列になる）。
func New(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:storefront_test_%d?mode=memory&cache=shared&_foreign_keys=on", seq.Add(1))
	gdb, err := db.Open(sqlite.Open(dsn))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gdb
}
