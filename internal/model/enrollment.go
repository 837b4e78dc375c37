package model

import "time"

// Enrollment 选课记录，(user, course) 唯一
// swagger:model Enrollment
type Enrollment struct {
	BaseModel
	UserID     uint      `gorm:"index:idx_user_course,unique;type:bigint unsigned" json:"userId"`
	CourseID   uint      `gorm:"index:idx_user_course,unique;type:bigint unsigned" json:"courseId"`
	EnrolledAt time.Time `json:"enrolledAt"`
}

func (Enrollment) TableName() string {
	return "enrollments"
}
