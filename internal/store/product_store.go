package store

import (
	"errors"

	"shoptrack/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProductStore 商品表访问层。所有按主键的读都提供带属主过滤的变体，
// 保证一个用户永远看不到别人的商品。
type ProductStore struct {
	db *gorm.DB
}

func NewProductStore(db *gorm.DB) *ProductStore { return &ProductStore{db: db} }

func (s *ProductStore) Create(p *model.Product) error {
	return s.db.Create(p).Error
}

func (s *ProductStore) Get(id uint) (*model.Product, bool, error) {
	var p model.Product
	err := s.db.First(&p, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return &p, true, nil
}

func (s *ProductStore) GetOwned(id, ownerID uint) (*model.Product, bool, error) {
	var p model.Product
	err := s.db.Where("id = ? AND owner_id = ?", id, ownerID).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return &p, true, nil
}

// GetOwnedForUpdate 行锁读，库存变更在事务内必须走这条路径，
// 防止并发 remove 绕过余量检查。
func (s *ProductStore) GetOwnedForUpdate(id, ownerID uint) (*model.Product, bool, error) {
	var p model.Product
	err := s.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND owner_id = ?", id, ownerID).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return &p, true, nil
}

func (s *ProductStore) ListByOwner(ownerID uint) ([]model.Product, error) {
	var out []model.Product
	err := s.db.Where("owner_id = ?", ownerID).Order("created_at DESC").Find(&out).Error
	return out, err
}

func (s *ProductStore) Update(p *model.Product) error {
	return s.db.Save(p).Error
}

// UpdateStock 只改库存列。
func (s *ProductStore) UpdateStock(id uint, stock int64) error {
	return s.db.Model(&model.Product{}).Where("id = ?", id).Update("stock", stock).Error
}

// Delete 删除商品：台账行保留，外键置空，冗余商品名不动。
func (s *ProductStore) Delete(id uint) error {
	if err := s.db.Model(&model.History{}).Where("product_id = ?", id).
		Update("product_id", nil).Error; err != nil {
		return err
	}
	return s.db.Delete(&model.Product{}, id).Error
}

// SearchByName 名称子串匹配（大小写不敏感），限定属主。
func (s *ProductStore) SearchByName(ownerID uint, query string) ([]model.Product, error) {
	var out []model.Product
	err := s.db.Where(`owner_id = ? AND LOWER(name) LIKE ? ESCAPE '\'`, ownerID, "%"+likeLower(query)+"%").
		Order("created_at DESC").Find(&out).Error
	return out, err
}

// LowStock 库存低于阈值的商品。
func (s *ProductStore) LowStock(ownerID uint, threshold int64) ([]model.Product, error) {
	var out []model.Product
	err := s.db.Where("owner_id = ? AND stock < ?", ownerID, threshold).
		Order("stock ASC").Find(&out).Error
	return out, err
}

// PriceRange 价格区间过滤（含边界）。
func (s *ProductStore) PriceRange(ownerID uint, minCents, maxCents int64) ([]model.Product, error) {
	var out []model.Product
	err := s.db.Where("owner_id = ? AND price_cents >= ? AND price_cents <= ?",
		ownerID, minCents, maxCents).
		Order("price_cents ASC").Find(&out).Error
	return out, err
}

// ProductStats 属主维度的商品聚合。
type ProductStats struct {
	TotalProducts   int64 `json:"total_products"`
	TotalStock      int64 `json:"total_stock"`
	TotalValueCents int64 `json:"total_value_cents"`
}

// StatsByOwner 一条聚合 SQL 算完，不在内存里扫。
func (s *ProductStore) StatsByOwner(ownerID uint) (ProductStats, error) {
	var st ProductStats
	err := s.db.Model(&model.Product{}).
		Select("COUNT(*) AS total_products, COALESCE(SUM(stock),0) AS total_stock, COALESCE(SUM(stock*price_cents),0) AS total_value_cents").
		Where("owner_id = ?", ownerID).
		Scan(&st).Error
	return st, err
}

// TransferOwner 转移商品属主。
func (s *ProductStore) TransferOwner(id, newOwnerID uint) error {
	res := s.db.Model(&model.Product{}).Where("id = ?", id).Update("owner_id", newOwnerID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
