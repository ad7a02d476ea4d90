package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"shoptrack/internal/model"
	"shoptrack/internal/store"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// HistoryService 台账读写：写路径做前置校验，读路径全部下推 SQL。
type HistoryService struct {
	db *gorm.DB
}

func NewHistoryService(db *gorm.DB) *HistoryService {
	return &HistoryService{db: db}
}

// CreateTransactionInput 手工记账入参。ProductID 可空（临时条目）。
type CreateTransactionInput struct {
	ProductID   *uint        `json:"product_id"`
	ProductName string       `json:"product_name"`
	PriceCents  int64        `json:"price_cents"`
	Quantity    int64        `json:"quantity"`
	Action      model.Action `json:"action"`
}

// Create 手工追加一条台账。引用了商品时要求商品存在。
func (s *HistoryService) Create(ctx context.Context, userID uint, in CreateTransactionInput) (*model.History, error) {
	in.ProductName = strings.TrimSpace(in.ProductName)
	h := &model.History{
		EventID:     uuid.New().String(),
		ProductID:   in.ProductID,
		ProductName: in.ProductName,
		UserID:      userID,
		PriceCents:  in.PriceCents,
		Quantity:    in.Quantity,
		Action:      in.Action,
	}
	if err := h.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if in.ProductID != nil {
			_, found, err := store.NewProductStore(tx).Get(*in.ProductID)
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("%w: product", ErrNotFound)
			}
		}
		return store.NewHistoryStore(tx).Create(h)
	})
	if err != nil {
		return nil, err
	}
	return h, nil
}

func (s *HistoryService) Get(ctx context.Context, userID, id uint) (*model.History, error) {
	h, found, err := store.NewHistoryStore(s.db.WithContext(ctx)).GetOwned(id, userID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: transaction", ErrNotFound)
	}
	return h, nil
}

// UpdateTransactionInput 部分更新入参，nil 字段保持原值。
type UpdateTransactionInput struct {
	ProductName *string       `json:"product_name"`
	PriceCents  *int64        `json:"price_cents"`
	Quantity    *int64        `json:"quantity"`
	Action      *model.Action `json:"action"`
}

// Update 显式修订一条台账（常规库存流转不会走到这里）。
func (s *HistoryService) Update(ctx context.Context, userID, id uint, in UpdateTransactionInput) (*model.History, error) {
	if in.Action != nil && !model.ValidAction(*in.Action) {
		return nil, fmt.Errorf("%w: action must be 'buy' or 'sell'", ErrValidation)
	}
	if in.PriceCents != nil && *in.PriceCents <= 0 {
		return nil, fmt.Errorf("%w: price must be greater than 0", ErrValidation)
	}
	if in.Quantity != nil && *in.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be greater than 0", ErrValidation)
	}
	if in.ProductName != nil && strings.TrimSpace(*in.ProductName) == "" {
		return nil, fmt.Errorf("%w: product_name cannot be empty", ErrValidation)
	}

	var h *model.History
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		histories := store.NewHistoryStore(tx)
		var found bool
		var err error
		h, found, err = histories.GetOwned(id, userID)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("%w: transaction", ErrNotFound)
		}
		if in.ProductName != nil {
			h.ProductName = strings.TrimSpace(*in.ProductName)
		}
		if in.PriceCents != nil {
			h.PriceCents = *in.PriceCents
		}
		if in.Quantity != nil {
			h.Quantity = *in.Quantity
		}
		if in.Action != nil {
			h.Action = *in.Action
		}
		return histories.Update(h)
	})
	if err != nil {
		return nil, err
	}
	return h, nil
}

func (s *HistoryService) Delete(ctx context.Context, userID, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		histories := store.NewHistoryStore(tx)
		_, found, err := histories.GetOwned(id, userID)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("%w: transaction", ErrNotFound)
		}
		return histories.Delete(id)
	})
}

func (s *HistoryService) ListByUser(ctx context.Context, userID uint) ([]model.History, error) {
	return store.NewHistoryStore(s.db.WithContext(ctx)).ListByUser(userID)
}

// ListByProduct 只返回该用户名下与此商品相关的台账。
func (s *HistoryService) ListByProduct(ctx context.Context, userID, productID uint) ([]model.History, error) {
	return store.NewHistoryStore(s.db.WithContext(ctx)).ListByProduct(userID, productID)
}

func (s *HistoryService) ListByAction(ctx context.Context, userID uint, action model.Action) ([]model.History, error) {
	if !model.ValidAction(action) {
		return nil, fmt.Errorf("%w: action must be 'buy' or 'sell'", ErrValidation)
	}
	return store.NewHistoryStore(s.db.WithContext(ctx)).ListByAction(userID, action)
}

// Recent 最近 limit 条，limit 缺省 10。
func (s *HistoryService) Recent(ctx context.Context, userID uint, limit int) ([]model.History, error) {
	if limit <= 0 {
		limit = 10
	}
	return store.NewHistoryStore(s.db.WithContext(ctx)).Recent(userID, limit)
}

func (s *HistoryService) DateRange(ctx context.Context, userID uint, start, end time.Time) ([]model.History, error) {
	if start.After(end) {
		return nil, fmt.Errorf("%w: start date cannot be after end date", ErrValidation)
	}
	return store.NewHistoryStore(s.db.WithContext(ctx)).DateRange(userID, start, end)
}

func (s *HistoryService) Search(ctx context.Context, userID uint, query string) ([]model.History, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query is required", ErrValidation)
	}
	return store.NewHistoryStore(s.db.WithContext(ctx)).SearchName(userID, query)
}

func (s *HistoryService) PriceRange(ctx context.Context, userID uint, minCents, maxCents int64) ([]model.History, error) {
	if minCents < 0 || maxCents < 0 {
		return nil, fmt.Errorf("%w: prices cannot be negative", ErrValidation)
	}
	if minCents > maxCents {
		return nil, fmt.Errorf("%w: minimum price cannot be greater than maximum price", ErrValidation)
	}
	return store.NewHistoryStore(s.db.WithContext(ctx)).PriceRange(userID, minCents, maxCents)
}

func (s *HistoryService) UserSummary(ctx context.Context, userID uint) (store.UserSummary, error) {
	return store.NewHistoryStore(s.db.WithContext(ctx)).SummaryByUser(userID)
}

func (s *HistoryService) ProductSummary(ctx context.Context, userID, productID uint) (store.ProductSummary, error) {
	return store.NewHistoryStore(s.db.WithContext(ctx)).SummaryByProduct(userID, productID)
}

func (s *HistoryService) Stats(ctx context.Context, userID, productID *uint) (store.Statistics, error) {
	return store.NewHistoryStore(s.db.WithContext(ctx)).Stats(userID, productID)
}
