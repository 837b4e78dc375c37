package repository

import (
	"lms_backend/internal/model"

	"gorm.io/gorm"
)

type AssignmentRepository struct {
	DB *gorm.DB
}

func NewAssignmentRepository(db *gorm.DB) *AssignmentRepository {
	return &AssignmentRepository{DB: db}
}

func (r *AssignmentRepository) Create(assignment *model.Assignment) error {
	return r.DB.Create(assignment).Error
}

func (r *AssignmentRepository) FindByID(id uint) (*model.Assignment, error) {
	var assignment model.Assignment
	err := r.DB.First(&assignment, id).Error
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *AssignmentRepository) Update(assignment *model.Assignment) error {
	return r.DB.Save(assignment).Error
}

func (r *AssignmentRepository) Delete(id uint) error {
	return r.DB.Delete(&model.Assignment{}, id).Error
}

func (r *AssignmentRepository) FindByModule(moduleID uint, publishedOnly bool) ([]model.Assignment, error) {
	var assignments []model.Assignment
	query := r.DB.Where("module_id = ?", moduleID)
	if publishedOnly {
		query = query.Where("is_published = ?", true)
	}
	err := query.Order("created_at ASC").Find(&assignments).Error
	return assignments, err
}

// FindByCourse 返回课程全部模块下的作业（教师成绩册用）
func (r *AssignmentRepository) FindByCourse(courseID uint, publishedOnly bool) ([]model.Assignment, error) {
	var assignments []model.Assignment
	query := r.DB.Model(&model.Assignment{}).
		Joins("JOIN course_modules ON course_modules.id = assignments.module_id").
		Where("course_modules.course_id = ? AND course_modules.deleted_at IS NULL", courseID)
	if publishedOnly {
		query = query.Where("assignments.is_published = ?", true)
	}
	err := query.Order("course_modules.order_index ASC, assignments.created_at ASC").
		Find(&assignments).Error
	return assignments, err
}

// CountPublishedByModules 批量统计各模块已发布作业数
func (r *AssignmentRepository) CountPublishedByModules(moduleIDs []uint) (map[uint]int, error) {
	result := make(map[uint]int, len(moduleIDs))
	if len(moduleIDs) == 0 {
		return result, nil
	}

	var rows []struct {
		ModuleID uint
		Count    int
	}
	err := r.DB.Model(&model.Assignment{}).
		Select("module_id, COUNT(*) as count").
		Where("module_id IN ? AND is_published = ?", moduleIDs, true).
		Group("module_id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		result[row.ModuleID] = row.Count
	}
	return result, nil
}
