package model

import "time"

// Assignment 模块内的作业
// swagger:model Assignment
type Assignment struct {
	BaseModel
	ModuleID    uint       `gorm:"index;type:bigint unsigned" json:"moduleId"`
	Title       string     `gorm:"size:255;not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	MaxPoints   float64    `gorm:"default:100" json:"maxPoints"`
	DueAt       *time.Time `json:"dueAt,omitempty"`
	IsPublished bool       `gorm:"default:false" json:"isPublished"`
}

func (Assignment) TableName() string {
	return "assignments"
}
