package model

// CourseModule 课程内的有序章节模块
// OrderIndex 从0开始定义顺序；RequiresPrevious 控制顺序解锁
// RequiresPrevious 不能带 default 标签：GORM 在 INSERT 时省略带默认值的
// 零值字段，false 会丢失；默认值由 service 层设置
// swagger:model CourseModule
type CourseModule struct {
	BaseModel
	CourseID         uint   `gorm:"index:idx_course_order;type:bigint unsigned" json:"courseId"`
	Title            string `gorm:"size:255;not null" json:"title"`
	Description      string `gorm:"type:text" json:"description"`
	OrderIndex       int    `gorm:"index:idx_course_order;default:0" json:"orderIndex"`
	RequiresPrevious bool   `gorm:"not null" json:"requiresPrevious"`
	IsPublished      bool   `gorm:"default:false" json:"isPublished"`

	ContentItems []ContentItem `gorm:"foreignKey:ModuleID" json:"contentItems,omitempty"`
	Assignments  []Assignment  `gorm:"foreignKey:ModuleID" json:"assignments,omitempty"`
}

func (CourseModule) TableName() string {
	return "course_modules"
}
