package model

import (
	"encoding/json"
	"time"
)

// Reaction is embedded in a Thought and has no existence outside it.
// ReactionID is unique only within the parent thought.
type Reaction struct {
	ReactionID   string    `json:"reactionId" bson:"reactionId"`
	ReactionBody string    `json:"reactionBody" bson:"reactionBody" validate:"required,min=1,max=280"`
	Username     string    `json:"username" bson:"username" validate:"required"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
}

// Thought is a post. Username is copied from the author at creation and is
// not kept in sync with later renames.
type Thought struct {
	ID          string     `json:"_id" bson:"_id" gorm:"primaryKey;type:varchar(36)"`
	ThoughtText string     `json:"thoughtText" bson:"thoughtText" gorm:"type:text;not null" validate:"required,min=1,max=280"`
	Username    string     `json:"username" bson:"username" gorm:"type:varchar(64);index:idx_thought_username;not null" validate:"required"`
	Reactions   []Reaction `json:"reactions" bson:"reactions" gorm:"serializer:json;type:text" validate:"dive"`
	CreatedAt   time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt" bson:"updatedAt"`
}

func (Thought) TableName() string { return "thoughts" }

// ReactionCount is the number of embedded reactions.
func (t *Thought) ReactionCount() int { return len(t.Reactions) }

// Reaction returns the embedded reaction with the given id.
func (t *Thought) Reaction(id string) (Reaction, bool) {
	for _, r := range t.Reactions {
		if r.ReactionID == id {
			return r, true
		}
	}
	return Reaction{}, false
}

// WithoutReaction returns the reactions minus the one with the given id.
// A missing id leaves the sequence unchanged.
func (t *Thought) WithoutReaction(id string) []Reaction {
	kept := make([]Reaction, 0, len(t.Reactions))
	for _, r := range t.Reactions {
		if r.ReactionID != id {
			kept = append(kept, r)
		}
	}
	return kept
}

func (t *Thought) Normalize() {
	if t.Reactions == nil {
		t.Reactions = []Reaction{}
	}
}

func (t Thought) MarshalJSON() ([]byte, error) {
	type plain Thought
	t.Normalize()
	return json.Marshal(struct {
		plain
		ReactionCount int `json:"reactionCount"`
	}{plain(t), len(t.Reactions)})
}
