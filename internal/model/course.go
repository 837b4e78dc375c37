package model

// Course 课程，由教师创建，学生通过选课记录访问
// swagger:model Course
type Course struct {
	BaseModel
	Title        string `gorm:"size:255;not null" json:"title"`
	Description  string `gorm:"type:text" json:"description"`
	InstructorID uint   `gorm:"index;type:bigint unsigned" json:"instructorId"`
	IsPublished  bool   `gorm:"default:false" json:"isPublished"`
	CoverImage   string `gorm:"size:255" json:"coverImage"`

	Modules []CourseModule `gorm:"foreignKey:CourseID" json:"modules,omitempty"`
}

func (Course) TableName() string {
	return "courses"
}
