package store

import (
	"testing"
	"time"

	"shoptrack/internal/model"

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
	require.NoError(t, AutoMigrate(db))
	return db
}

func seedStoreUser(t *testing.T, db *gorm.DB, name string) *model.User {
	t.Helper()
	u := &model.User{Username: name, PasswordHash: "x"}
	require.NoError(t, db.Create(u).Error)
	return u
}

func TestSessionLifecycle(t *testing.T) {
	db := newTestDB(t)
	user := seedStoreUser(t, db, "alice")
	sessions := NewSessionStore(db)

	sess, err := sessions.Create(user.ID, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, sess.ID)
	require.True(t, sess.Expires.After(time.Now().UTC()))

	valid, err := sessions.IsValid(sess.ID)
	require.NoError(t, err)
	require.True(t, valid)

	valid, err = sessions.IsValid("no-such-token")
	require.NoError(t, err)
	require.False(t, valid)

	// 失效不删行：行仍在，只是过期了
	existed, err := sessions.Invalidate(sess.ID)
	require.NoError(t, err)
	require.True(t, existed)

	valid, err = sessions.IsValid(sess.ID)
	require.NoError(t, err)
	require.False(t, valid)

	_, found, err := sessions.Get(sess.ID)
	require.NoError(t, err)
	require.True(t, found)

	// 重复失效幂等
	existed, err = sessions.Invalidate(sess.ID)
	require.NoError(t, err)
	require.True(t, existed)

	existed, err = sessions.Invalidate("no-such-token")
	require.NoError(t, err)
	require.False(t, existed)
}

func TestSessionExtend(t *testing.T) {
	db := newTestDB(t)
	user := seedStoreUser(t, db, "alice")
	sessions := NewSessionStore(db)

	sess, err := sessions.Create(user.ID, time.Minute)
	require.NoError(t, err)

	extended, found, err := sessions.Extend(sess.ID, 24*time.Hour)
	require.NoError(t, err)
	require.True(t, found)
	require.True(t, extended.Expires.After(sess.Expires))

	_, found, err = sessions.Extend("no-such-token", time.Hour)
	require.NoError(t, err)
	require.False(t, found)
}

func TestInvalidateUserOnlyHitsActive(t *testing.T) {
	db := newTestDB(t)
	alice := seedStoreUser(t, db, "alice")
	bob := seedStoreUser(t, db, "bob")
	sessions := NewSessionStore(db)

	s1, err := sessions.Create(alice.ID, time.Hour)
	require.NoError(t, err)
	s2, err := sessions.Create(alice.ID, time.Hour)
	require.NoError(t, err)
	other, err := sessions.Create(bob.ID, time.Hour)
	require.NoError(t, err)

	_, err = sessions.Invalidate(s1.ID)
	require.NoError(t, err)

	n, err := sessions.InvalidateUser(alice.ID)
	require.NoError(t, err)
	require.EqualValues(t, 1, n) // 只剩 s2 是活跃的

	for _, id := range []string{s1.ID, s2.ID} {
		valid, err := sessions.IsValid(id)
		require.NoError(t, err)
		require.False(t, valid)
	}
	valid, err := sessions.IsValid(other.ID)
	require.NoError(t, err)
	require.True(t, valid)
}

func TestCleanupExpired(t *testing.T) {
	db := newTestDB(t)
	user := seedStoreUser(t, db, "alice")
	sessions := NewSessionStore(db)

	live, err := sessions.Create(user.ID, time.Hour)
	require.NoError(t, err)
	dead, err := sessions.Create(user.ID, -time.Hour)
	require.NoError(t, err)

	st, err := sessions.StatsByUser(user.ID)
	require.NoError(t, err)
	require.EqualValues(t, 1, st.Active)
	require.EqualValues(t, 1, st.Expired)
	require.EqualValues(t, 2, st.Total)

	n, err := sessions.CleanupExpired()
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	_, found, err := sessions.Get(dead.ID)
	require.NoError(t, err)
	require.False(t, found)
	_, found, err = sessions.Get(live.ID)
	require.NoError(t, err)
	require.True(t, found)

	active, err := sessions.FindActiveByUser(user.ID)
	require.NoError(t, err)
	require.Len(t, active, 1)
	require.Equal(t, live.ID, active[0].ID)
}
