package store

import (
	"errors"
	"time"

	"shoptrack/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SessionStore 会话表访问层。
// 约定：所有过期判断统一用 time.Now().UTC()，避免混用本地时钟。
type SessionStore struct {
	db *gorm.DB
}

func NewSessionStore(db *gorm.DB) *SessionStore { return &SessionStore{db: db} }

// Create 发放新会话，token 即主键 uuid。
func (s *SessionStore) Create(userID uint, ttl time.Duration) (*model.Session, error) {
	sess := &model.Session{
		ID:      uuid.New().String(),
		UserID:  userID,
		Expires: time.Now().UTC().Add(ttl),
	}
	if err := s.db.Create(sess).Error; err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *SessionStore) Get(id string) (*model.Session, bool, error) {
	var sess model.Session
	err := s.db.Where("id = ?", id).First(&sess).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return &sess, true, nil
}

// IsValid 会话有效 iff 存在且未过期。
func (s *SessionStore) IsValid(id string) (bool, error) {
	sess, found, err := s.Get(id)
	if err != nil || !found {
		return false, err
	}
	return sess.Valid(time.Now()), nil
}

// Extend 续期到 now+ttl，会话不存在返回 found=false。
func (s *SessionStore) Extend(id string, ttl time.Duration) (*model.Session, bool, error) {
	sess, found, err := s.Get(id)
	if err != nil || !found {
		return nil, false, err
	}
	sess.Expires = time.Now().UTC().Add(ttl)
	if err := s.db.Model(&model.Session{}).Where("id = ?", id).
		Update("expires", sess.Expires).Error; err != nil {
		return nil, false, err
	}
	return sess, true, nil
}

// Invalidate 把过期时间拨到当前时刻（幂等，不删行）。
func (s *SessionStore) Invalidate(id string) (bool, error) {
	res := s.db.Model(&model.Session{}).Where("id = ?", id).
		Update("expires", time.Now().UTC())
	return res.RowsAffected > 0, res.Error
}

// InvalidateUser 失效某用户全部仍有效的会话，返回失效条数。
// 用于「所有设备登出」。
func (s *SessionStore) InvalidateUser(userID uint) (int64, error) {
	now := time.Now().UTC()
	res := s.db.Model(&model.Session{}).
		Where("user_id = ? AND expires > ?", userID, now).
		Update("expires", now)
	return res.RowsAffected, res.Error
}

// FindActiveByUser 返回某用户当前仍有效的会话。
func (s *SessionStore) FindActiveByUser(userID uint) ([]model.Session, error) {
	var out []model.Session
	err := s.db.Where("user_id = ? AND expires > ?", userID, time.Now().UTC()).Find(&out).Error
	return out, err
}

// CleanupExpired 硬删除所有已过期会话，返回删除条数。
// 这是唯一的删行路径，由定时任务触发。
func (s *SessionStore) CleanupExpired() (int64, error) {
	res := s.db.Where("expires <= ?", time.Now().UTC()).Delete(&model.Session{})
	return res.RowsAffected, res.Error
}

// SessionStats 按用户统计活跃/过期会话数。
type SessionStats struct {
	Active  int64 `json:"active_sessions"`
	Expired int64 `json:"expired_sessions"`
	Total   int64 `json:"total_sessions"`
}

func (s *SessionStore) StatsByUser(userID uint) (SessionStats, error) {
	var st SessionStats
	now := time.Now().UTC()
	if err := s.db.Model(&model.Session{}).
		Where("user_id = ? AND expires > ?", userID, now).Count(&st.Active).Error; err != nil {
		return st, err
	}
	if err := s.db.Model(&model.Session{}).
		Where("user_id = ? AND expires <= ?", userID, now).Count(&st.Expired).Error; err != nil {
		return st, err
	}
	st.Total = st.Active + st.Expired
	return st, nil
}
