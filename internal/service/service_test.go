package service

import (
	"context"
	"testing"

	"shoptrack/internal/queue"
	"shoptrack/internal/store"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	// :memory: 下每个新连接都是一个空库，钉死单连接避免 "no such table"
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, store.AutoMigrate(db))
	return db
}

// captureSink 收集发出的台账事件，供断言。
type captureSink struct {
	events []queue.StockEvent
}

func (s *captureSink) Emit(_ context.Context, ev queue.StockEvent) error {
	s.events = append(s.events, ev)
	return nil
}
