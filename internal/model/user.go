package model

import (
	"encoding/json"
	"time"
)

// User is a registered account. Thoughts and Friends are reference lists:
// they hold identifiers only and are resolved by a separate lookup.
type User struct {
	ID       string `json:"_id" bson:"_id" gorm:"primaryKey;type:varchar(36)"`
	Username string `json:"username" bson:"username" gorm:"type:varchar(64);index:idx_user_username;not null" validate:"required"`
	Email    string `json:"email" bson:"email" gorm:"type:varchar(255);not null" validate:"required,basicemail"`
	// Thoughts keeps insertion order.
	Thoughts []string `json:"thoughts" bson:"thoughts" gorm:"-"`
	// Friends has set semantics and is directional.
	Friends   []string  `json:"friends" bson:"friends" gorm:"-"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

func (User) TableName() string { return "users" }

// FriendCount is the size of the stored friend set.
func (u *User) FriendCount() int { return len(u.Friends) }

// HasFriend reports whether id is in the friend set.
func (u *User) HasFriend(id string) bool {
	for _, f := range u.Friends {
		if f == id {
			return true
		}
	}
	return false
}

// HasThought reports whether id is in the authored thought list.
func (u *User) HasThought(id string) bool {
	for _, t := range u.Thoughts {
		if t == id {
			return true
		}
	}
	return false
}

// Normalize replaces nil reference lists with empty ones.
func (u *User) Normalize() {
	if u.Thoughts == nil {
		u.Thoughts = []string{}
	}
	if u.Friends == nil {
		u.Friends = []string{}
	}
}

func (u User) MarshalJSON() ([]byte, error) {
	type plain User
	u.Normalize()
	return json.Marshal(struct {
		plain
		FriendCount int `json:"friendCount"`
	}{plain(u), len(u.Friends)})
}
