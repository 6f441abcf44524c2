package model

import "time"

// UserThought links an authored thought id into the user's ordered list.
// ux_user_thought on (user_id, thought_id) keeps each id listed once, and
// Position orders the list.
type UserThought struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	UserID    string `gorm:"type:varchar(36);index:idx_user_thought_user;uniqueIndex:ux_user_thought;not null"`
	ThoughtID string `gorm:"type:varchar(36);index:idx_user_thought_thought;uniqueIndex:ux_user_thought;not null"`
	Position  int64  `gorm:"index:idx_user_thought_pos"`
	CreatedAt time.Time
}

func (UserThought) TableName() string { return "user_thoughts" }
