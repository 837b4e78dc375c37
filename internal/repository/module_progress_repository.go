package repository

import (
	"errors"
	"lms_backend/internal/model"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ModuleProgressRepository struct {
	DB *gorm.DB
}

func NewModuleProgressRepository(db *gorm.DB) *ModuleProgressRepository {
	return &ModuleProgressRepository{DB: db}
}

func (r *ModuleProgressRepository) FindByUserAndModule(userID, moduleID uint) (*model.ModuleProgress, error) {
	var progress model.ModuleProgress
	err := r.DB.Where("user_id = ? AND module_id = ?", userID, moduleID).
		First(&progress).Error
	if err != nil {
		return nil, err
	}
	return &progress, nil
}

// FindByUserAndModules 批量取学生在一组模块上的进度记录
func (r *ModuleProgressRepository) FindByUserAndModules(userID uint, moduleIDs []uint) (map[uint]model.ModuleProgress, error) {
	result := make(map[uint]model.ModuleProgress, len(moduleIDs))
	if len(moduleIDs) == 0 {
		return result, nil
	}

	var rows []model.ModuleProgress
	err := r.DB.Where("user_id = ? AND module_id IN ?", userID, moduleIDs).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		result[row.ModuleID] = row
	}
	return result, nil
}

// LockForUpdate 在事务内按 (user, module) 加行锁取进度记录，不存在则创建
// 同一键上的并发读-改-写由此串行化；并发创建冲突时重新加锁读取
func (r *ModuleProgressRepository) LockForUpdate(tx *gorm.DB, userID, moduleID uint) (*model.ModuleProgress, error) {
	var progress model.ModuleProgress
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND module_id = ?", userID, moduleID).
		First(&progress).Error
	if err == nil {
		return &progress, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	progress = model.ModuleProgress{
		UserID:        userID,
		ModuleID:      moduleID,
		ContentViewed: []uint{},
	}
	if err := tx.Create(&progress).Error; err != nil {
		// 唯一索引冲突说明另一请求刚创建了该行，重新加锁读取
		var retry model.ModuleProgress
		retryErr := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND module_id = ?", userID, moduleID).
			First(&retry).Error
		if retryErr != nil {
			return nil, err
		}
		return &retry, nil
	}
	return &progress, nil
}

func (r *ModuleProgressRepository) Save(tx *gorm.DB, progress *model.ModuleProgress) error {
	return tx.Save(progress).Error
}

// CountCompleted 平台统计用：已完成的模块进度记录总数
func (r *ModuleProgressRepository) CountCompleted() (int64, error) {
	var count int64
	err := r.DB.Model(&model.ModuleProgress{}).
		Where("completed_at IS NOT NULL").Count(&count).Error
	return count, err
}

// MarkCompleted 条件写入 completed_at，仅在仍为 NULL 时生效
// 返回本次调用是否真正完成了首次完成转换
func (r *ModuleProgressRepository) MarkCompleted(tx *gorm.DB, progressID uint, completedAt time.Time) (bool, error) {
	res := tx.Model(&model.ModuleProgress{}).
		Where("id = ? AND completed_at IS NULL", progressID).
		Update("completed_at", completedAt)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
