package model

import "time"

// UserView is a user with its reference lists dereferenced for presentation.
// Identifiers that no longer resolve are left out of the expanded lists;
// FriendCount still reports the stored set size.
type UserView struct {
	ID          string     `json:"_id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	Thoughts    []*Thought `json:"thoughts"`
	Friends     []*User    `json:"friends"`
	FriendCount int        `json:"friendCount"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// NewUserView expands u using the resolved records keyed by id.
func NewUserView(u *User, thoughts map[string]*Thought, friends map[string]*User) *UserView {
	v := &UserView{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		Thoughts:    make([]*Thought, 0, len(u.Thoughts)),
		Friends:     make([]*User, 0, len(u.Friends)),
		FriendCount: u.FriendCount(),
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
	for _, id := range u.Thoughts {
		if t, ok := thoughts[id]; ok {
			v.Thoughts = append(v.Thoughts, t)
		}
	}
	for _, id := range u.Friends {
		if f, ok := friends[id]; ok {
			v.Friends = append(v.Friends, f)
		}
	}
	return v
}
