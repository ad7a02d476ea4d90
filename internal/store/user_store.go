package store

import (
	"errors"
	"strings"

	"shoptrack/internal/model"

	"gorm.io/gorm"
)

// UserStore 用户表访问层。用户名写入前统一转小写，
// 依赖唯一索引兜底重复注册。
type UserStore struct {
	db *gorm.DB
}

func NewUserStore(db *gorm.DB) *UserStore { return &UserStore{db: db} }

// Create 插入新用户，用户名落库前归一化为小写。
func (s *UserStore) Create(u *model.User) error {
	u.Username = strings.ToLower(strings.TrimSpace(u.Username))
	return s.db.Create(u).Error
}

func (s *UserStore) Get(id uint) (*model.User, error) {
	var u model.User
	if err := s.db.First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// FindByUsername 大小写不敏感查找，found=false 表示不存在。
func (s *UserStore) FindByUsername(username string) (*model.User, bool, error) {
	var u model.User
	err := s.db.Where("username = ?", strings.ToLower(strings.TrimSpace(username))).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return &u, true, nil
}

func (s *UserStore) FindByEmail(email string) (*model.User, bool, error) {
	var u model.User
	err := s.db.Where("email = ?", email).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return &u, true, nil
}

// Delete 删除用户并级联清理其商品、会话与台账（单事务内调用）。
func (s *UserStore) Delete(id uint) error {
	if err := s.db.Where("owner_id = ?", id).Delete(&model.Product{}).Error; err != nil {
		return err
	}
	if err := s.db.Where("user_id = ?", id).Delete(&model.Session{}).Error; err != nil {
		return err
	}
	if err := s.db.Where("user_id = ?", id).Delete(&model.History{}).Error; err != nil {
		return err
	}
	return s.db.Delete(&model.User{}, id).Error
}
