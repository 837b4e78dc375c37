package service

import (
	"errors"
	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/internal/util"

	"gorm.io/gorm"
)

type CourseService struct {
	CourseRepo       *repository.CourseRepository
	ModuleRepo       *repository.ModuleRepository
	EnrollmentRepo   *repository.EnrollmentRepository
	AnnouncementRepo *repository.AnnouncementRepository
}

func NewCourseService(
	courseRepo *repository.CourseRepository,
	moduleRepo *repository.ModuleRepository,
	enrollmentRepo *repository.EnrollmentRepository,
	announcementRepo *repository.AnnouncementRepository,
) *CourseService {
	return &CourseService{
		CourseRepo:       courseRepo,
		ModuleRepo:       moduleRepo,
		EnrollmentRepo:   enrollmentRepo,
		AnnouncementRepo: announcementRepo,
	}
}

type CreateCourseRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	CoverImage  string `json:"coverImage"`
}

type UpdateCourseRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	CoverImage  string `json:"coverImage"`
	IsPublished *bool  `json:"isPublished"`
}

func (s *CourseService) Create(instructorID uint, req CreateCourseRequest) (*model.Course, error) {
	course := &model.Course{
		Title:        req.Title,
		Description:  req.Description,
		CoverImage:   req.CoverImage,
		InstructorID: instructorID,
	}
	if err := s.CourseRepo.Create(course); err != nil {
		return nil, err
	}
	return course, nil
}

// CanManage 课程归属校验，管理员不受限制
func (s *CourseService) CanManage(course *model.Course, user *model.User) bool {
	if user == nil {
		return false
	}
	return user.Role == model.Admin || course.InstructorID == user.ID
}

func (s *CourseService) GetByID(id uint) (*model.Course, error) {
	course, err := s.CourseRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCourseNotFound
		}
		return nil, err
	}
	return course, nil
}

func (s *CourseService) GetWithModules(id uint) (*model.Course, error) {
	course, err := s.CourseRepo.FindByIDWithModules(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCourseNotFound
		}
		return nil, err
	}
	return course, nil
}

func (s *CourseService) Update(course *model.Course, req UpdateCourseRequest) (*model.Course, error) {
	if req.Title != "" {
		course.Title = req.Title
	}
	if req.Description != "" {
		course.Description = req.Description
	}
	if req.CoverImage != "" {
		course.CoverImage = req.CoverImage
	}
	if req.IsPublished != nil {
		course.IsPublished = *req.IsPublished
	}

	if err := s.CourseRepo.Update(course); err != nil {
		return nil, err
	}
	return course, nil
}

func (s *CourseService) Delete(id uint) error {
	return s.CourseRepo.Delete(id)
}

func (s *CourseService) List(page, limit int, search string, publishedOnly bool) ([]model.Course, int64, error) {
	return s.CourseRepo.List(page, limit, search, publishedOnly)
}

func (s *CourseService) ListByInstructor(instructorID uint) ([]model.Course, error) {
	return s.CourseRepo.FindByInstructor(instructorID)
}

type CreateAnnouncementRequest struct {
	Title string `json:"title" binding:"required"`
	Body  string `json:"body" binding:"required"`
}

func (s *CourseService) CreateAnnouncement(courseID, authorID uint, req CreateAnnouncementRequest) (*model.Announcement, error) {
	announcement := &model.Announcement{
		CourseID: courseID,
		AuthorID: authorID,
		Title:    req.Title,
		Body:     req.Body,
	}
	if err := s.AnnouncementRepo.Create(announcement); err != nil {
		return nil, err
	}
	return announcement, nil
}

func (s *CourseService) ListAnnouncements(courseID uint) ([]model.Announcement, error) {
	return s.AnnouncementRepo.ListByCourse(courseID)
}

func (s *CourseService) GetAnnouncement(id uint) (*model.Announcement, error) {
	return s.AnnouncementRepo.FindByID(id)
}

func (s *CourseService) DeleteAnnouncement(id uint) error {
	return s.AnnouncementRepo.Delete(id)
}
