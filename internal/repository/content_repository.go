package repository

import (
	"lms_backend/internal/model"

	"gorm.io/gorm"
)

type ContentRepository struct {
	DB *gorm.DB
}

func NewContentRepository(db *gorm.DB) *ContentRepository {
	return &ContentRepository{DB: db}
}

func (r *ContentRepository) Create(item *model.ContentItem) error {
	return r.DB.Create(item).Error
}

func (r *ContentRepository) FindByID(id uint) (*model.ContentItem, error) {
	var item model.ContentItem
	err := r.DB.First(&item, id).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *ContentRepository) Update(item *model.ContentItem) error {
	return r.DB.Save(item).Error
}

func (r *ContentRepository) Delete(id uint) error {
	return r.DB.Delete(&model.ContentItem{}, id).Error
}

func (r *ContentRepository) FindByModule(moduleID uint, publishedOnly bool) ([]model.ContentItem, error) {
	var items []model.ContentItem
	query := r.DB.Where("module_id = ?", moduleID)
	if publishedOnly {
		query = query.Where("is_published = ?", true)
	}
	err := query.Order("order_index ASC").Find(&items).Error
	return items, err
}

// FindPublishedIDsByModules 批量返回各模块已发布内容的ID集合
// 解锁计算的进度分母与已查看集合的交集都以此为准
func (r *ContentRepository) FindPublishedIDsByModules(moduleIDs []uint) (map[uint][]uint, error) {
	result := make(map[uint][]uint, len(moduleIDs))
	if len(moduleIDs) == 0 {
		return result, nil
	}

	var rows []struct {
		ID       uint
		ModuleID uint
	}
	err := r.DB.Model(&model.ContentItem{}).
		Select("id, module_id").
		Where("module_id IN ? AND is_published = ?", moduleIDs, true).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		result[row.ModuleID] = append(result[row.ModuleID], row.ID)
	}
	return result, nil
}
