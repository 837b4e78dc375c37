package model

import "time"

// ModuleProgress 记录学生在单个模块内的进度
// (user, module) 唯一；ContentViewed 为已查看内容ID集合；
// CompletedAt 只在首次达到100%时写入一次，正常流程不会清空
// swagger:model ModuleProgress
type ModuleProgress struct {
	BaseModel
	UserID        uint       `gorm:"index:idx_user_module,unique;type:bigint unsigned" json:"userId"`
	ModuleID      uint       `gorm:"index:idx_user_module,unique;type:bigint unsigned" json:"moduleId"`
	ContentViewed []uint     `gorm:"serializer:json;type:json" json:"contentViewed"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`
}

func (ModuleProgress) TableName() string {
	return "module_progress"
}

// HasViewed 判断内容是否已在集合中
func (p *ModuleProgress) HasViewed(contentID uint) bool {
	for _, id := range p.ContentViewed {
		if id == contentID {
			return true
		}
	}
	return false
}
