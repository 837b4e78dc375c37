package service

import (
	"errors"
	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/internal/util"

	"gorm.io/gorm"
)

type ModuleService struct {
	ModuleRepo *repository.ModuleRepository
	CourseRepo *repository.CourseRepository
}

func NewModuleService(moduleRepo *repository.ModuleRepository, courseRepo *repository.CourseRepository) *ModuleService {
	return &ModuleService{
		ModuleRepo: moduleRepo,
		CourseRepo: courseRepo,
	}
}

type CreateModuleRequest struct {
	Title            string `json:"title" binding:"required"`
	Description      string `json:"description"`
	RequiresPrevious *bool  `json:"requiresPrevious"`
}

type UpdateModuleRequest struct {
	Title            string `json:"title"`
	Description      string `json:"description"`
	RequiresPrevious *bool  `json:"requiresPrevious"`
	IsPublished      *bool  `json:"isPublished"`
}

// Create 新模块追加到课程序列末尾
func (s *ModuleService) Create(courseID uint, req CreateModuleRequest) (*model.CourseModule, error) {
	existing, err := s.ModuleRepo.FindAllByCourse(courseID)
	if err != nil {
		return nil, err
	}

	nextIndex := 0
	for _, m := range existing {
		if m.OrderIndex >= nextIndex {
			nextIndex = m.OrderIndex + 1
		}
	}

	module := &model.CourseModule{
		CourseID:         courseID,
		Title:            req.Title,
		Description:      req.Description,
		OrderIndex:       nextIndex,
		RequiresPrevious: true,
	}
	if req.RequiresPrevious != nil {
		module.RequiresPrevious = *req.RequiresPrevious
	}

	if err := s.ModuleRepo.Create(module); err != nil {
		return nil, err
	}
	return module, nil
}

func (s *ModuleService) GetByID(id uint) (*model.CourseModule, error) {
	module, err := s.ModuleRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrModuleNotFound
		}
		return nil, err
	}
	return module, nil
}

func (s *ModuleService) Update(module *model.CourseModule, req UpdateModuleRequest) (*model.CourseModule, error) {
	if req.Title != "" {
		module.Title = req.Title
	}
	if req.Description != "" {
		module.Description = req.Description
	}
	if req.RequiresPrevious != nil {
		module.RequiresPrevious = *req.RequiresPrevious
	}
	if req.IsPublished != nil {
		module.IsPublished = *req.IsPublished
	}

	if err := s.ModuleRepo.Update(module); err != nil {
		return nil, err
	}
	return module, nil
}

func (s *ModuleService) Delete(id uint) error {
	return s.ModuleRepo.Delete(id)
}

func (s *ModuleService) ListByCourse(courseID uint, publishedOnly bool) ([]model.CourseModule, error) {
	if publishedOnly {
		return s.ModuleRepo.FindPublishedByCourse(courseID)
	}
	return s.ModuleRepo.FindAllByCourse(courseID)
}

// Reorder 按给定完整ID序列重排课程模块
// ID集合必须与课程现有模块完全一致，缺失或多余都拒绝
func (s *ModuleService) Reorder(courseID uint, orderedIDs []uint) error {
	existing, err := s.ModuleRepo.FindAllByCourse(courseID)
	if err != nil {
		return err
	}
	if len(orderedIDs) != len(existing) {
		return util.ErrInvalidModuleSeq
	}

	known := make(map[uint]struct{}, len(existing))
	for _, m := range existing {
		known[m.ID] = struct{}{}
	}
	seen := make(map[uint]struct{}, len(orderedIDs))
	for _, id := range orderedIDs {
		if _, ok := known[id]; !ok {
			return util.ErrInvalidModuleSeq
		}
		if _, dup := seen[id]; dup {
			return util.ErrInvalidModuleSeq
		}
		seen[id] = struct{}{}
	}

	return s.ModuleRepo.Reorder(courseID, orderedIDs)
}
