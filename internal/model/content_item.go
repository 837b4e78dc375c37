package model

type ContentType string

const (
	ContentText     ContentType = "text"
	ContentVideo    ContentType = "video"
	ContentDocument ContentType = "document"
	ContentLink     ContentType = "link"
)

// ContentItem 模块内的单个可查看内容单元
// swagger:model ContentItem
type ContentItem struct {
	BaseModel
	ModuleID    uint        `gorm:"index;type:bigint unsigned" json:"moduleId"`
	Title       string      `gorm:"size:255;not null" json:"title"`
	Type        ContentType `gorm:"size:20;not null" json:"type"`
	Body        string      `gorm:"type:text" json:"body"`
	URL         string      `gorm:"size:255" json:"url"`
	OrderIndex  int         `gorm:"default:0" json:"orderIndex"`
	IsPublished bool        `gorm:"default:false" json:"isPublished"`
	Duration    float64     `gorm:"column:duration;default:0" json:"duration"` // 视频时长（秒）
	Size        int64       `gorm:"column:size;default:0" json:"size"`         // 文件大小（字节）
	Thumbnail   string      `gorm:"size:255" json:"thumbnail"`                 // 缩略图URL
}

func (ContentItem) TableName() string {
	return "content_items"
}
