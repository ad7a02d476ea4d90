package store

import (
	"errors"
	"time"

	"shoptrack/internal/model"

	"gorm.io/gorm"
)

// HistoryStore 台账表访问层。过滤与聚合全部下推到 SQL，
// 汇总金额用整数分运算，没有浮点误差。
type HistoryStore struct {
	db *gorm.DB
}

func NewHistoryStore(db *gorm.DB) *HistoryStore { return &HistoryStore{db: db} }

func (s *HistoryStore) Create(h *model.History) error {
	return s.db.Create(h).Error
}

func (s *HistoryStore) Get(id uint) (*model.History, bool, error) {
	var h model.History
	err := s.db.First(&h, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return &h, true, nil
}

func (s *HistoryStore) GetOwned(id, userID uint) (*model.History, bool, error) {
	var h model.History
	err := s.db.Where("id = ? AND user_id = ?", id, userID).First(&h).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return &h, true, nil
}

func (s *HistoryStore) Update(h *model.History) error {
	return s.db.Save(h).Error
}

func (s *HistoryStore) Delete(id uint) error {
	res := s.db.Delete(&model.History{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (s *HistoryStore) ListByUser(userID uint) ([]model.History, error) {
	var out []model.History
	err := s.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&out).Error
	return out, err
}

// ListByProduct 带属主过滤：只返回调用者自己的台账行。
func (s *HistoryStore) ListByProduct(userID, productID uint) ([]model.History, error) {
	var out []model.History
	err := s.db.Where("user_id = ? AND product_id = ?", userID, productID).
		Order("created_at DESC").Find(&out).Error
	return out, err
}

func (s *HistoryStore) ListByAction(userID uint, action model.Action) ([]model.History, error) {
	var out []model.History
	err := s.db.Where("user_id = ? AND action = ?", userID, action).
		Order("created_at DESC").Find(&out).Error
	return out, err
}

func (s *HistoryStore) Recent(userID uint, limit int) ([]model.History, error) {
	var out []model.History
	err := s.db.Where("user_id = ?", userID).
		Order("created_at DESC").Limit(limit).Find(&out).Error
	return out, err
}

// DateRange 按创建时刻过滤（含边界）。
func (s *HistoryStore) DateRange(userID uint, start, end time.Time) ([]model.History, error) {
	var out []model.History
	err := s.db.Where("user_id = ? AND created_at >= ? AND created_at <= ?", userID, start, end).
		Order("created_at DESC").Find(&out).Error
	return out, err
}

// SearchName 商品名子串匹配。
func (s *HistoryStore) SearchName(userID uint, query string) ([]model.History, error) {
	var out []model.History
	err := s.db.Where(`user_id = ? AND LOWER(product_name) LIKE ? ESCAPE '\'`,
		userID, "%"+likeLower(query)+"%").
		Order("created_at DESC").Find(&out).Error
	return out, err
}

// PriceRange 单价区间过滤（含边界）。
func (s *HistoryStore) PriceRange(userID uint, minCents, maxCents int64) ([]model.History, error) {
	var out []model.History
	err := s.db.Where("user_id = ? AND price_cents >= ? AND price_cents <= ?",
		userID, minCents, maxCents).
		Order("created_at DESC").Find(&out).Error
	return out, err
}

// UserSummary 用户维度台账汇总，全部整数分。
type UserSummary struct {
	TotalBought      int64 `json:"total_bought"`
	TotalSold        int64 `json:"total_sold"`
	TotalSpentCents  int64 `json:"total_spent_cents"`
	TotalEarnedCents int64 `json:"total_earned_cents"`
	NetQuantity      int64 `json:"net_quantity"`
	NetAmountCents   int64 `json:"net_amount_cents"`
}

// SummaryByUser 一条聚合 SQL 出全量汇总。
func (s *HistoryStore) SummaryByUser(userID uint) (UserSummary, error) {
	var sum UserSummary
	err := s.db.Model(&model.History{}).
		Select(`
			COALESCE(SUM(CASE WHEN action = 'buy'  THEN quantity END), 0)              AS total_bought,
			COALESCE(SUM(CASE WHEN action = 'sell' THEN quantity END), 0)              AS total_sold,
			COALESCE(SUM(CASE WHEN action = 'buy'  THEN quantity * price_cents END), 0) AS total_spent_cents,
			COALESCE(SUM(CASE WHEN action = 'sell' THEN quantity * price_cents END), 0) AS total_earned_cents`).
		Where("user_id = ?", userID).
		Scan(&sum).Error
	if err != nil {
		return sum, err
	}
	sum.NetQuantity = sum.TotalBought - sum.TotalSold
	sum.NetAmountCents = sum.TotalEarnedCents - sum.TotalSpentCents
	return sum, nil
}

// ProductSummary 商品维度台账汇总。
type ProductSummary struct {
	TotalTransactions int64 `json:"total_transactions"`
	TotalBought       int64 `json:"total_bought"`
	TotalSold         int64 `json:"total_sold"`
	RevenueCents      int64 `json:"revenue_cents"`
	AveragePriceCents int64 `json:"average_price_cents"`
	NetQuantity       int64 `json:"net_quantity"`
}

func (s *HistoryStore) SummaryByProduct(userID, productID uint) (ProductSummary, error) {
	var sum ProductSummary
	err := s.db.Model(&model.History{}).
		Select(`
			COUNT(*)                                                                    AS total_transactions,
			COALESCE(SUM(CASE WHEN action = 'buy'  THEN quantity END), 0)               AS total_bought,
			COALESCE(SUM(CASE WHEN action = 'sell' THEN quantity END), 0)               AS total_sold,
			COALESCE(SUM(CASE WHEN action = 'sell' THEN quantity * price_cents END), 0) AS revenue_cents,
			COALESCE(CAST(AVG(price_cents) AS INTEGER), 0)                              AS average_price_cents`).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Scan(&sum).Error
	if err != nil {
		return sum, err
	}
	sum.NetQuantity = sum.TotalBought - sum.TotalSold
	return sum, nil
}

// Statistics 通用交易统计，user/product 维度可选叠加。
type Statistics struct {
	TotalTransactions int64 `json:"total_transactions"`
	BuyTransactions   int64 `json:"buy_transactions"`
	SellTransactions  int64 `json:"sell_transactions"`
	TotalVolume       int64 `json:"total_volume"`
	TotalValueCents   int64 `json:"total_value_cents"`
	AverageValueCents int64 `json:"average_value_cents"`
}

func (s *HistoryStore) Stats(userID, productID *uint) (Statistics, error) {
	q := s.db.Model(&model.History{})
	if userID != nil {
		q = q.Where("user_id = ?", *userID)
	}
	if productID != nil {
		q = q.Where("product_id = ?", *productID)
	}

	var st Statistics
	err := q.Select(`
			COUNT(*)                                                      AS total_transactions,
			COALESCE(SUM(CASE WHEN action = 'buy'  THEN 1 END), 0)        AS buy_transactions,
			COALESCE(SUM(CASE WHEN action = 'sell' THEN 1 END), 0)        AS sell_transactions,
			COALESCE(SUM(quantity), 0)                                    AS total_volume,
			COALESCE(SUM(quantity * price_cents), 0)                      AS total_value_cents`).
		Scan(&st).Error
	if err != nil {
		return st, err
	}
	if st.TotalTransactions > 0 {
		st.AverageValueCents = st.TotalValueCents / st.TotalTransactions
	}
	return st, nil
}
