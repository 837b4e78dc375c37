package repository

import (
	"lms_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type SubmissionRepository struct {
	DB *gorm.DB
}

func NewSubmissionRepository(db *gorm.DB) *SubmissionRepository {
	return &SubmissionRepository{DB: db}
}

// Upsert 保存提交，同一 (user, assignment) 重复提交覆盖旧内容并清空评分
func (r *SubmissionRepository) Upsert(submission *model.AssignmentSubmission) error {
	var existing model.AssignmentSubmission
	err := r.DB.Where("user_id = ? AND assignment_id = ?", submission.UserID, submission.AssignmentID).
		First(&existing).Error

	if err != nil {
		if err != gorm.ErrRecordNotFound {
			return err
		}
		submission.SubmittedAt = time.Now()
		return r.DB.Create(submission).Error
	}

	existing.Body = submission.Body
	existing.FileURL = submission.FileURL
	existing.SubmittedAt = time.Now()
	existing.Score = nil
	existing.Feedback = ""
	existing.GradedAt = nil
	existing.GradedBy = 0

	if err := r.DB.Save(&existing).Error; err != nil {
		return err
	}
	*submission = existing
	return nil
}

func (r *SubmissionRepository) FindByID(id uint) (*model.AssignmentSubmission, error) {
	var submission model.AssignmentSubmission
	err := r.DB.First(&submission, id).Error
	if err != nil {
		return nil, err
	}
	return &submission, nil
}

func (r *SubmissionRepository) FindByUserAndAssignment(userID, assignmentID uint) (*model.AssignmentSubmission, error) {
	var submission model.AssignmentSubmission
	err := r.DB.Where("user_id = ? AND assignment_id = ?", userID, assignmentID).
		First(&submission).Error
	if err != nil {
		return nil, err
	}
	return &submission, nil
}

func (r *SubmissionRepository) FindByAssignment(assignmentID uint) ([]model.AssignmentSubmission, error) {
	var submissions []model.AssignmentSubmission
	err := r.DB.Where("assignment_id = ?", assignmentID).
		Order("submitted_at ASC").Find(&submissions).Error
	return submissions, err
}

func (r *SubmissionRepository) FindByUserAndAssignments(userID uint, assignmentIDs []uint) ([]model.AssignmentSubmission, error) {
	var submissions []model.AssignmentSubmission
	if len(assignmentIDs) == 0 {
		return submissions, nil
	}
	err := r.DB.Where("user_id = ? AND assignment_id IN ?", userID, assignmentIDs).
		Find(&submissions).Error
	return submissions, err
}

// CountByUserAndModules 批量统计学生在各模块已发布作业上的提交数
// (user, assignment) 唯一，所以行数即已提交作业数
func (r *SubmissionRepository) CountByUserAndModules(userID uint, moduleIDs []uint) (map[uint]int, error) {
	result := make(map[uint]int, len(moduleIDs))
	if len(moduleIDs) == 0 {
		return result, nil
	}

	var rows []struct {
		ModuleID uint
		Count    int
	}
	err := r.DB.Model(&model.AssignmentSubmission{}).
		Select("assignments.module_id, COUNT(*) as count").
		Joins("JOIN assignments ON assignments.id = assignment_submissions.assignment_id").
		Where("assignment_submissions.user_id = ? AND assignments.module_id IN ? AND assignments.is_published = ? AND assignments.deleted_at IS NULL",
			userID, moduleIDs, true).
		Group("assignments.module_id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		result[row.ModuleID] = row.Count
	}
	return result, nil
}

func (r *SubmissionRepository) Grade(submissionID uint, score float64, feedback string, graderID uint) error {
	now := time.Now()
	return r.DB.Model(&model.AssignmentSubmission{}).
		Where("id = ?", submissionID).
		Updates(map[string]interface{}{
			"score":     score,
			"feedback":  feedback,
			"graded_at": now,
			"graded_by": graderID,
		}).Error
}

func (r *SubmissionRepository) Count() (int64, error) {
	var count int64
	err := r.DB.Model(&model.AssignmentSubmission{}).Count(&count).Error
	return count, err
}
