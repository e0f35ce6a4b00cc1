package models

import (
	"time"
)

// Post is a row of the posts table. Removed marks a soft-deleted post.
type Post struct {
	ID      int64     `json:"id" gorm:"column:id;primaryKey;autoIncrement"`
	Content string    `json:"content" gorm:"column:content;type:text;not null"`
	Likes   int64     `json:"likes" gorm:"column:likes;not null;default:0"`
	Created time.Time `json:"created" gorm:"column:created;not null;default:CURRENT_TIMESTAMP"`
	Removed bool      `json:"-" gorm:"column:removed;not null;default:false"`
}

// PostColumns are the columns every read returns, in response order.
var PostColumns = []string{"id", "content", "likes", "created"}
