package service

import (
	"context"
	"testing"
	"time"

	"shoptrack/internal/model"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newAuth(t *testing.T) *AuthService {
	t.Helper()
	return NewAuthService(newTestDB(t), nil, 30*24*time.Hour, bcrypt.MinCost)
}

func TestRegisterIssuesSession(t *testing.T) {
	auth := newAuth(t)
	ctx := context.Background()

	user, sess, err := auth.Register(ctx, "Alice", "secret1", nil)
	require.NoError(t, err)
	require.Equal(t, "alice", user.Username)
	require.NotEmpty(t, sess.ID)
	require.Equal(t, user.ID, sess.UserID)

	ok, err := auth.IsSessionValid(ctx, sess.ID)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	auth := newAuth(t)
	ctx := context.Background()

	email := "a@example.com"
	_, _, err := auth.Register(ctx, "alice", "secret1", &email)
	require.NoError(t, err)

	// 用户名重复（大小写不同也算重复）
	_, _, err = auth.Register(ctx, "ALICE", "other", nil)
	require.ErrorIs(t, err, ErrDuplicate)

	// 邮箱重复
	_, _, err = auth.Register(ctx, "bob", "other", &email)
	require.ErrorIs(t, err, ErrDuplicate)

	// 失败的注册不应留下半个用户
	_, _, err = auth.Login(ctx, "bob", "other")
	require.ErrorIs(t, err, ErrBadCredentials)
}

func TestLoginCaseInsensitive(t *testing.T) {
	auth := newAuth(t)
	ctx := context.Background()

	_, _, err := auth.Register(ctx, "alice", "secret1", nil)
	require.NoError(t, err)

	user, sess, err := auth.Login(ctx, "ALICE", "secret1")
	require.NoError(t, err)
	require.Equal(t, "alice", user.Username)
	require.NotEmpty(t, sess.ID)

	_, _, err = auth.Login(ctx, "alice", "wrong")
	require.ErrorIs(t, err, ErrBadCredentials)

	_, _, err = auth.Login(ctx, "nobody", "secret1")
	require.ErrorIs(t, err, ErrBadCredentials)
}

func TestLogoutInvalidatesSession(t *testing.T) {
	auth := newAuth(t)
	ctx := context.Background()

	_, sess, err := auth.Register(ctx, "alice", "secret1", nil)
	require.NoError(t, err)

	existed, err := auth.Logout(ctx, sess.ID)
	require.NoError(t, err)
	require.True(t, existed)

	ok, err := auth.IsSessionValid(ctx, sess.ID)
	require.NoError(t, err)
	require.False(t, ok)

	// 幂等：再次登出不报错，行还在（只是过期）
	_, err = auth.GetSession(ctx, sess.ID)
	require.NoError(t, err)
}

func TestLogoutAllEverywhere(t *testing.T) {
	auth := newAuth(t)
	ctx := context.Background()

	user, first, err := auth.Register(ctx, "alice", "secret1", nil)
	require.NoError(t, err)
	_, second, err := auth.Login(ctx, "alice", "secret1")
	require.NoError(t, err)

	count, err := auth.LogoutAll(ctx, user.ID)
	require.NoError(t, err)
	require.EqualValues(t, 2, count)

	for _, id := range []string{first.ID, second.ID} {
		ok, err := auth.IsSessionValid(ctx, id)
		require.NoError(t, err)
		require.False(t, ok)
	}

	// 再次调用没有可失效的会话
	count, err = auth.LogoutAll(ctx, user.ID)
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestExtendSession(t *testing.T) {
	auth := newAuth(t)
	ctx := context.Background()

	_, sess, err := auth.Register(ctx, "alice", "secret1", nil)
	require.NoError(t, err)

	before := sess.Expires
	extended, err := auth.ExtendSession(ctx, sess.ID)
	require.NoError(t, err)
	require.False(t, extended.Expires.Before(before))

	_, err = auth.ExtendSession(ctx, "no-such-session")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCleanupDeletesOnlyExpired(t *testing.T) {
	db := newTestDB(t)
	auth := NewAuthService(db, nil, 30*24*time.Hour, bcrypt.MinCost)
	ctx := context.Background()

	_, live, err := auth.Register(ctx, "alice", "secret1", nil)
	require.NoError(t, err)
	_, dead, err := auth.Login(ctx, "alice", "secret1")
	require.NoError(t, err)

	// 把第二个会话拨到过去
	require.NoError(t, db.Model(&model.Session{}).Where("id = ?", dead.ID).
		Update("expires", time.Now().UTC().Add(-time.Hour)).Error)

	n, err := auth.CleanupExpiredSessions(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	// 有效会话不受影响，过期会话的行已删除
	ok, err := auth.IsSessionValid(ctx, live.ID)
	require.NoError(t, err)
	require.True(t, ok)
	_, err = auth.GetSession(ctx, dead.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteAccountCascades(t *testing.T) {
	db := newTestDB(t)
	auth := NewAuthService(db, nil, 30*24*time.Hour, bcrypt.MinCost)
	products := NewProductService(db, nil, nil, 0)
	ctx := context.Background()

	user, _, err := auth.Register(ctx, "alice", "secret1", nil)
	require.NoError(t, err)
	_, err = products.Create(ctx, user.ID, CreateProductInput{Name: "w", PriceCents: 100, Stock: 3})
	require.NoError(t, err)

	require.NoError(t, auth.DeleteAccount(ctx, user.ID))

	var nProducts, nSessions, nHistory int64
	require.NoError(t, db.Model(&model.Product{}).Where("owner_id = ?", user.ID).Count(&nProducts).Error)
	require.NoError(t, db.Model(&model.Session{}).Where("user_id = ?", user.ID).Count(&nSessions).Error)
	require.NoError(t, db.Model(&model.History{}).Where("user_id = ?", user.ID).Count(&nHistory).Error)
	require.Zero(t, nProducts)
	require.Zero(t, nSessions)
	require.Zero(t, nHistory)
}
