package repository

import (
	"lms_backend/internal/model"

	"gorm.io/gorm"
)

type AnnouncementRepository struct {
	DB *gorm.DB
}

func NewAnnouncementRepository(db *gorm.DB) *AnnouncementRepository {
	return &AnnouncementRepository{DB: db}
}

func (r *AnnouncementRepository) Create(announcement *model.Announcement) error {
	return r.DB.Create(announcement).Error
}

func (r *AnnouncementRepository) FindByID(id uint) (*model.Announcement, error) {
	var announcement model.Announcement
	err := r.DB.First(&announcement, id).Error
	if err != nil {
		return nil, err
	}
	return &announcement, nil
}

func (r *AnnouncementRepository) Update(announcement *model.Announcement) error {
	return r.DB.Save(announcement).Error
}

func (r *AnnouncementRepository) Delete(id uint) error {
	return r.DB.Delete(&model.Announcement{}, id).Error
}

func (r *AnnouncementRepository) ListByCourse(courseID uint) ([]model.Announcement, error) {
	var announcements []model.Announcement
	err := r.DB.Where("course_id = ?", courseID).
		Order("created_at DESC").Find(&announcements).Error
	return announcements, err
}
