package service

import (
	"errors"
	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/internal/util"
	"lms_backend/pkg/logger"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type AssignmentService struct {
	AssignmentRepo  *repository.AssignmentRepository
	SubmissionRepo  *repository.SubmissionRepository
	ModuleRepo      *repository.ModuleRepository
	ProgressService *ProgressService
}

func NewAssignmentService(
	assignmentRepo *repository.AssignmentRepository,
	submissionRepo *repository.SubmissionRepository,
	moduleRepo *repository.ModuleRepository,
	progressService *ProgressService,
) *AssignmentService {
	return &AssignmentService{
		AssignmentRepo:  assignmentRepo,
		SubmissionRepo:  submissionRepo,
		ModuleRepo:      moduleRepo,
		ProgressService: progressService,
	}
}

type CreateAssignmentRequest struct {
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	MaxPoints   float64    `json:"maxPoints"`
	DueAt       *time.Time `json:"dueAt"`
}

type UpdateAssignmentRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	MaxPoints   *float64   `json:"maxPoints"`
	DueAt       *time.Time `json:"dueAt"`
	IsPublished *bool      `json:"isPublished"`
}

type SubmitRequest struct {
	Body    string `json:"body"`
	FileURL string `json:"fileUrl"`
}

// SubmitResult 提交回执，带上提交后重算的模块进度
type SubmitResult struct {
	Submission *model.AssignmentSubmission `json:"submission"`
	Progress   *CompletionResult           `json:"progress,omitempty"`
}

func (s *AssignmentService) Create(moduleID uint, req CreateAssignmentRequest) (*model.Assignment, error) {
	assignment := &model.Assignment{
		ModuleID:    moduleID,
		Title:       req.Title,
		Description: req.Description,
		MaxPoints:   100,
		DueAt:       req.DueAt,
	}
	if req.MaxPoints > 0 {
		assignment.MaxPoints = req.MaxPoints
	}

	if err := s.AssignmentRepo.Create(assignment); err != nil {
		return nil, err
	}
	return assignment, nil
}

func (s *AssignmentService) GetByID(id uint) (*model.Assignment, error) {
	assignment, err := s.AssignmentRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrAssignmentNotFound
		}
		return nil, err
	}
	return assignment, nil
}

func (s *AssignmentService) Update(assignment *model.Assignment, req UpdateAssignmentRequest) (*model.Assignment, error) {
	if req.Title != "" {
		assignment.Title = req.Title
	}
	if req.Description != "" {
		assignment.Description = req.Description
	}
	if req.MaxPoints != nil {
		assignment.MaxPoints = *req.MaxPoints
	}
	if req.DueAt != nil {
		assignment.DueAt = req.DueAt
	}
	if req.IsPublished != nil {
		assignment.IsPublished = *req.IsPublished
	}

	if err := s.AssignmentRepo.Update(assignment); err != nil {
		return nil, err
	}
	return assignment, nil
}

func (s *AssignmentService) Delete(id uint) error {
	return s.AssignmentRepo.Delete(id)
}

// ListForStudent 学生视角的模块作业列表，受解锁门控
func (s *AssignmentService) ListForStudent(moduleID, userID uint) ([]model.Assignment, error) {
	info, err := s.ProgressService.GetModuleUnlockInfo(moduleID, userID)
	if err != nil {
		return nil, err
	}
	if !info.IsUnlocked {
		return nil, util.ErrModuleLocked
	}
	return s.AssignmentRepo.FindByModule(moduleID, true)
}

func (s *AssignmentService) ListForInstructor(moduleID uint) ([]model.Assignment, error) {
	return s.AssignmentRepo.FindByModule(moduleID, false)
}

// Submit 学生提交作业，同一作业重复提交覆盖旧内容
// 提交计入模块进度，可能触发完成转换
func (s *AssignmentService) Submit(userID, assignmentID uint, req SubmitRequest) (*SubmitResult, error) {
	assignment, err := s.GetByID(assignmentID)
	if err != nil {
		return nil, err
	}
	if !assignment.IsPublished {
		return nil, util.ErrAssignmentNotFound
	}
	if assignment.DueAt != nil && time.Now().After(*assignment.DueAt) {
		return nil, util.ErrAssignmentClosed
	}

	module, err := s.ModuleRepo.FindByID(assignment.ModuleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrModuleNotFound
		}
		return nil, err
	}

	info, err := s.ProgressService.GetModuleUnlockInfo(module.ID, userID)
	if err != nil {
		return nil, err
	}
	if !info.IsUnlocked {
		return nil, util.ErrModuleLocked
	}

	submission := &model.AssignmentSubmission{
		UserID:       userID,
		AssignmentID: assignmentID,
		Body:         req.Body,
		FileURL:      req.FileURL,
	}
	if err := s.SubmissionRepo.Upsert(submission); err != nil {
		return nil, err
	}

	result := &SubmitResult{Submission: submission}

	// 进度重算失败不回滚已落库的提交
	progress, err := s.ProgressService.RecheckCompletion(userID, module)
	if err != nil {
		logger.Log.Warn("progress recheck after submission failed",
			zap.Uint("userId", userID),
			zap.Uint("assignmentId", assignmentID),
			zap.Error(err))
	} else {
		result.Progress = progress
	}

	return result, nil
}

func (s *AssignmentService) MySubmission(userID, assignmentID uint) (*model.AssignmentSubmission, error) {
	submission, err := s.SubmissionRepo.FindByUserAndAssignment(userID, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrSubmissionMissing
		}
		return nil, err
	}
	return submission, nil
}

func (s *AssignmentService) ListSubmissions(assignmentID uint) ([]model.AssignmentSubmission, error) {
	return s.SubmissionRepo.FindByAssignment(assignmentID)
}
