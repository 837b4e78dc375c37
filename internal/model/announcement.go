package model

// Announcement 课程公告
// swagger:model Announcement
type Announcement struct {
	BaseModel
	CourseID uint   `gorm:"index;type:bigint unsigned" json:"courseId"`
	AuthorID uint   `gorm:"type:bigint unsigned" json:"authorId"`
	Title    string `gorm:"size:255;not null" json:"title"`
	Body     string `gorm:"type:text" json:"body"`
}

func (Announcement) TableName() string {
	return "announcements"
}
