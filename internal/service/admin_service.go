package service

import (
	"lms_backend/internal/model"
	"lms_backend/internal/repository"
)

type AdminService struct {
	UserRepo       *repository.UserRepository
	CourseRepo     *repository.CourseRepository
	EnrollmentRepo *repository.EnrollmentRepository
	SubmissionRepo *repository.SubmissionRepository
	ProgressRepo   *repository.ModuleProgressRepository
}

func NewAdminService(
	userRepo *repository.UserRepository,
	courseRepo *repository.CourseRepository,
	enrollmentRepo *repository.EnrollmentRepository,
	submissionRepo *repository.SubmissionRepository,
	progressRepo *repository.ModuleProgressRepository,
) *AdminService {
	return &AdminService{
		UserRepo:       userRepo,
		CourseRepo:     courseRepo,
		EnrollmentRepo: enrollmentRepo,
		SubmissionRepo: submissionRepo,
		ProgressRepo:   progressRepo,
	}
}

// PlatformStats 平台概览统计
type PlatformStats struct {
	Students         int64 `json:"students"`
	Instructors      int64 `json:"instructors"`
	Courses          int64 `json:"courses"`
	Enrollments      int64 `json:"enrollments"`
	Submissions      int64 `json:"submissions"`
	CompletedModules int64 `json:"completedModules"`
}

func (s *AdminService) Stats() (*PlatformStats, error) {
	stats := &PlatformStats{}

	var err error
	if stats.Students, err = s.UserRepo.CountByRole(model.Student); err != nil {
		return nil, err
	}
	if stats.Instructors, err = s.UserRepo.CountByRole(model.Instructor); err != nil {
		return nil, err
	}
	if stats.Courses, err = s.CourseRepo.Count(); err != nil {
		return nil, err
	}
	if stats.Enrollments, err = s.EnrollmentRepo.Count(); err != nil {
		return nil, err
	}
	if stats.Submissions, err = s.SubmissionRepo.Count(); err != nil {
		return nil, err
	}
	if stats.CompletedModules, err = s.ProgressRepo.CountCompleted(); err != nil {
		return nil, err
	}

	return stats, nil
}
