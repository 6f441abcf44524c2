package model

import "time"

// Friend is one directional membership: FriendID is in UserID's friend set.
// Only the relational store uses it; the document store keeps the set inline.
// The unique idx_friend_pair on (user_id, friend_id) gives set semantics.
type Friend struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	UserID    string `gorm:"type:varchar(36);index:idx_friend_user;index:idx_friend_pair,unique;not null"`
	FriendID  string `gorm:"type:varchar(36);not null;index:idx_friend_pair,unique;index:idx_friend_friend"`
	Seq       int64  `gorm:"index:idx_friend_seq"`
	CreatedAt time.Time
}

func (Friend) TableName() string { return "friends" }
