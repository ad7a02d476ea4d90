package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"shoptrack/internal/model"
	"shoptrack/internal/store"
	cache "shoptrack/pkg/redis"

	rd "github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthService 负责注册、登录与会话生命周期。
// rdb 可为 nil（测试、无 Redis 部署），此时跳过会话缓存，直接查 DB。
type AuthService struct {
	db         *gorm.DB
	rdb        *rd.Client
	sessionTTL time.Duration
	bcryptCost int
}

func NewAuthService(db *gorm.DB, rdb *rd.Client, sessionTTL time.Duration, bcryptCost int) *AuthService {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{db: db, rdb: rdb, sessionTTL: sessionTTL, bcryptCost: bcryptCost}
}

// Register 注册用户并发放首个会话，两次写在同一事务里。
func (s *AuthService) Register(ctx context.Context, username, password string, email *string) (*model.User, *model.Session, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, nil, fmt.Errorf("%w: username is required", ErrValidation)
	}
	if password == "" {
		return nil, nil, fmt.Errorf("%w: password is required", ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, nil, err
	}

	var (
		user *model.User
		sess *model.Session
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := store.NewUserStore(tx)
		if _, taken, err := users.FindByUsername(username); err != nil {
			return err
		} else if taken {
			return fmt.Errorf("%w: username already exists", ErrDuplicate)
		}
		if email != nil {
			if _, taken, err := users.FindByEmail(*email); err != nil {
				return err
			} else if taken {
				return fmt.Errorf("%w: email already exists", ErrDuplicate)
			}
		}

		user = &model.User{Username: username, PasswordHash: string(hash), Email: email}
		if err := users.Create(user); err != nil {
			return err
		}

		sess, err = store.NewSessionStore(tx).Create(user.ID, s.sessionTTL)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	s.cacheSession(ctx, sess)
	return user, sess, nil
}

// Login 大小写不敏感匹配用户名，bcrypt 比对口令，成功则发放新会话。
func (s *AuthService) Login(ctx context.Context, username, password string) (*model.User, *model.Session, error) {
	user, found, err := store.NewUserStore(s.db.WithContext(ctx)).FindByUsername(username)
	if err != nil {
		return nil, nil, err
	}
	if !found {
		return nil, nil, ErrBadCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, nil, ErrBadCredentials
	}

	sess, err := store.NewSessionStore(s.db.WithContext(ctx)).Create(user.ID, s.sessionTTL)
	if err != nil {
		return nil, nil, err
	}
	s.cacheSession(ctx, sess)
	return user, sess, nil
}

// Authenticate 解析 bearer token：缓存命中直接放行，miss 回落 DB。
// 返回会话归属的 user_id。
func (s *AuthService) Authenticate(ctx context.Context, sessionID string) (uint, bool, error) {
	if sessionID == "" {
		return 0, false, nil
	}
	if s.rdb != nil {
		if userID, hit, err := cache.LookupSession(ctx, s.rdb, sessionID); err == nil && hit {
			return userID, true, nil
		}
		// 缓存出错按 miss 处理，继续查 DB。
	}

	sess, found, err := store.NewSessionStore(s.db.WithContext(ctx)).Get(sessionID)
	if err != nil {
		return 0, false, err
	}
	if !found || !sess.Valid(time.Now()) {
		return 0, false, nil
	}
	s.cacheSession(ctx, sess)
	return sess.UserID, true, nil
}

// IsSessionValid 会话有效 iff 存在且未过期。
func (s *AuthService) IsSessionValid(ctx context.Context, sessionID string) (bool, error) {
	_, ok, err := s.Authenticate(ctx, sessionID)
	return ok, err
}

// GetSession 读会话原始记录。
func (s *AuthService) GetSession(ctx context.Context, sessionID string) (*model.Session, error) {
	sess, found, err := store.NewSessionStore(s.db.WithContext(ctx)).Get(sessionID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: session", ErrNotFound)
	}
	return sess, nil
}

// ExtendSession 续期到 now+TTL。
func (s *AuthService) ExtendSession(ctx context.Context, sessionID string) (*model.Session, error) {
	sess, found, err := store.NewSessionStore(s.db.WithContext(ctx)).Extend(sessionID, s.sessionTTL)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: session", ErrNotFound)
	}
	s.dropSessionCache(ctx, sessionID)
	s.cacheSession(ctx, sess)
	return sess, nil
}

// Logout 失效单个会话（幂等）。返回是否确实存在过。
func (s *AuthService) Logout(ctx context.Context, sessionID string) (bool, error) {
	ok, err := store.NewSessionStore(s.db.WithContext(ctx)).Invalidate(sessionID)
	if err != nil {
		return false, err
	}
	s.dropSessionCache(ctx, sessionID)
	return ok, nil
}

// LogoutAll 「所有设备登出」：失效该用户全部活跃会话，返回条数。
func (s *AuthService) LogoutAll(ctx context.Context, userID uint) (int64, error) {
	sessions := store.NewSessionStore(s.db.WithContext(ctx))
	active, err := sessions.FindActiveByUser(userID)
	if err != nil {
		return 0, err
	}
	count, err := sessions.InvalidateUser(userID)
	if err != nil {
		return 0, err
	}
	ids := make([]string, 0, len(active))
	for _, sess := range active {
		ids = append(ids, sess.ID)
	}
	s.dropSessionCache(ctx, ids...)
	return count, nil
}

// CleanupExpiredSessions 硬删除全部过期会话，返回删除条数。
// 由 cmd/server 里的定时任务周期性触发。
func (s *AuthService) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	return store.NewSessionStore(s.db.WithContext(ctx)).CleanupExpired()
}

// SessionStats 按用户统计会话。
func (s *AuthService) SessionStats(ctx context.Context, userID uint) (store.SessionStats, error) {
	return store.NewSessionStore(s.db.WithContext(ctx)).StatsByUser(userID)
}

// Profile 返回脱敏后的用户信息（PasswordHash 不序列化）。
func (s *AuthService) Profile(ctx context.Context, userID uint) (*model.User, error) {
	user, err := store.NewUserStore(s.db.WithContext(ctx)).Get(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user", ErrNotFound)
		}
		return nil, err
	}
	return user, nil
}

// DeleteAccount 删除用户并级联商品/会话/台账，单事务。
func (s *AuthService) DeleteAccount(ctx context.Context, userID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return store.NewUserStore(tx).Delete(userID)
	})
}

func (s *AuthService) cacheSession(ctx context.Context, sess *model.Session) {
	if s.rdb == nil || sess == nil {
		return
	}
	remaining := time.Until(sess.Expires)
	if err := cache.MarkSessionValid(ctx, s.rdb, sess.ID, sess.UserID, remaining); err != nil {
		log.Printf("session cache put: %v", err)
	}
}

func (s *AuthService) dropSessionCache(ctx context.Context, ids ...string) {
	if s.rdb == nil || len(ids) == 0 {
		return
	}
	if err := cache.DropSession(ctx, s.rdb, ids...); err != nil {
		log.Printf("session cache drop: %v", err)
	}
}
