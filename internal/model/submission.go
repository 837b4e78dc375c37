package model

import "time"

// AssignmentSubmission 学生对作业的提交，(user, assignment) 唯一，重复提交覆盖
// 评分字段由教师批改时填写
// swagger:model AssignmentSubmission
type AssignmentSubmission struct {
	BaseModel
	UserID       uint       `gorm:"index:idx_user_assignment,unique;type:bigint unsigned" json:"userId"`
	AssignmentID uint       `gorm:"index:idx_user_assignment,unique;type:bigint unsigned" json:"assignmentId"`
	Body         string     `gorm:"type:text" json:"body"`
	FileURL      string     `gorm:"size:255" json:"fileUrl"`
	SubmittedAt  time.Time  `json:"submittedAt"`
	Score        *float64   `json:"score,omitempty"`
	Feedback     string     `gorm:"type:text" json:"feedback"`
	GradedAt     *time.Time `json:"gradedAt,omitempty"`
	GradedBy     uint       `gorm:"type:bigint unsigned" json:"gradedBy"`
}

func (AssignmentSubmission) TableName() string {
	return "assignment_submissions"
}
