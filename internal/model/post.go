package model

import "time"

// Post 单条 emoji 帖子，创建后只读
type Post struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Content   string    `json:"content" gorm:"type:varchar(255);not null"`
	AuthorID  string    `json:"authorId" gorm:"type:varchar(64);index:idx_post_author;not null"`
	CreatedAt time.Time `json:"createdAt" gorm:"index:idx_post_created;not null"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"not null"`
}

func (Post) TableName() string { return "posts" }
