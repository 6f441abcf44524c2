package repository

import (
	"context"
	"errors"

	"github.com/d60-Lab/social-graph/internal/model"
)

// ErrNotFound is returned when an identifier does not resolve.
var ErrNotFound = errors.New("record not found")

// UserRepository stores users together with their thought and friend
// reference lists. Set-style operations are atomic per user document.
type UserRepository interface {
	Create(ctx context.Context, u *model.User) error
	Get(ctx context.Context, id string) (*model.User, error)
	List(ctx context.Context) ([]*model.User, error)
	// FindByIDs returns the users that exist; missing ids are skipped.
	FindByIDs(ctx context.Context, ids []string) ([]*model.User, error)
	// Update persists username and email.
	Update(ctx context.Context, u *model.User) error
	// Delete removes the user and returns it as it was before removal.
	Delete(ctx context.Context, id string) (*model.User, error)

	// AddFriend adds friendID to userID's friend set; a member is a no-op.
	AddFriend(ctx context.Context, userID, friendID string) (*model.User, error)
	// RemoveFriend removes friendID from userID's friend set; a non-member is a no-op.
	RemoveFriend(ctx context.Context, userID, friendID string) (*model.User, error)
	// AppendThought appends thoughtID to userID's thought list. A listed id
	// is left where it is.
	AppendThought(ctx context.Context, userID, thoughtID string) error
	// UnlinkThought removes thoughtID from every user listing it and
	// returns the ids of the users that were changed.
	UnlinkThought(ctx context.Context, thoughtID string) ([]string, error)

	DeleteAll(ctx context.Context) error
}

// ThoughtRepository stores thoughts with their embedded reactions.
type ThoughtRepository interface {
	Create(ctx context.Context, t *model.Thought) error
	Get(ctx context.Context, id string) (*model.Thought, error)
	List(ctx context.Context) ([]*model.Thought, error)
	// FindByIDs returns the thoughts that exist; missing ids are skipped.
	FindByIDs(ctx context.Context, ids []string) ([]*model.Thought, error)
	// Update persists thoughtText and username.
	Update(ctx context.Context, t *model.Thought) error
	// Delete removes the thought and returns it as it was before removal.
	Delete(ctx context.Context, id string) (*model.Thought, error)
	// DeleteMany removes every thought whose id is listed.
	DeleteMany(ctx context.Context, ids []string) (int64, error)

	// AddReaction appends r to the thought's reactions.
	AddReaction(ctx context.Context, thoughtID string, r model.Reaction) (*model.Thought, error)
	// RemoveReaction drops the reaction with reactionID; an unknown id is a no-op.
	RemoveReaction(ctx context.Context, thoughtID, reactionID string) (*model.Thought, error)

	DeleteAll(ctx context.Context) error
}
