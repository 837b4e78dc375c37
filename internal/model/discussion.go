package model

// DiscussionThread 课程内讨论主题
// swagger:model DiscussionThread
type DiscussionThread struct {
	BaseModel
	CourseID uint   `gorm:"index;type:bigint unsigned" json:"courseId"`
	AuthorID uint   `gorm:"index;type:bigint unsigned" json:"authorId"`
	Title    string `gorm:"size:255;not null" json:"title"`
	Body     string `gorm:"type:text" json:"body"`
	IsPinned bool   `gorm:"default:false" json:"isPinned"`

	Replies []DiscussionReply `gorm:"foreignKey:ThreadID" json:"replies,omitempty"`
}

func (DiscussionThread) TableName() string {
	return "discussion_threads"
}

// swagger:model DiscussionReply
type DiscussionReply struct {
	BaseModel
	ThreadID uint   `gorm:"index;type:bigint unsigned" json:"threadId"`
	AuthorID uint   `gorm:"index;type:bigint unsigned" json:"authorId"`
	Body     string `gorm:"type:text" json:"body"`
}

func (DiscussionReply) TableName() string {
	return "discussion_replies"
}
