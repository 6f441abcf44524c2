package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/d60-Lab/social-graph/internal/metrics"
	"github.com/d60-Lab/social-graph/internal/model"
	"github.com/d60-Lab/social-graph/internal/repository"
)

// CreateThoughtInput is the body of a create-thought request.
type CreateThoughtInput struct {
	ThoughtText string `json:"thoughtText" validate:"required,min=1,max=280" example:"Just completed my first full-stack project!"`
	UserID      string `json:"userId" validate:"required"`
}

// UpdateThoughtInput is a partial update of the text fields.
type UpdateThoughtInput struct {
	ThoughtText *string `json:"thoughtText,omitempty"`
	Username    *string `json:"username,omitempty"`
}

// AddReactionInput is the body of an add-reaction request.
type AddReactionInput struct {
	ReactionBody string `json:"reactionBody" validate:"required,min=1,max=280" example:"That's fantastic!"`
	Username     string `json:"username" validate:"required" example:"Liam_Walker"`
}

type ThoughtService interface {
	List(ctx context.Context) ([]*model.Thought, error)
	Get(ctx context.Context, id string) (*model.Thought, error)
	// Create inserts the thought under the author's current username and
	// appends it to the author's thought list. If the append fails the
	// thought stays, unlinked.
	Create(ctx context.Context, in CreateThoughtInput) (*model.Thought, error)
	Update(ctx context.Context, id string, in UpdateThoughtInput) (*model.Thought, error)
	// Delete removes the thought and then detaches it from its author.
	Delete(ctx context.Context, id string) (*model.Thought, error)
	AddReaction(ctx context.Context, thoughtID string, in AddReactionInput) (*model.Thought, error)
	// RemoveReaction is a no-op for an unknown reactionID.
	RemoveReaction(ctx context.Context, thoughtID, reactionID string) (*model.Thought, error)
}

type thoughtService struct {
	users    repository.UserRepository
	thoughts repository.ThoughtRepository
	metrics  *metrics.Collector
	now      func() time.Time
}

func NewThoughtService(users repository.UserRepository, thoughts repository.ThoughtRepository, m *metrics.Collector) ThoughtService {
	return &thoughtService{users: users, thoughts: thoughts, metrics: m, now: func() time.Time { return time.Now().UTC() }}
}

func (s *thoughtService) List(ctx context.Context) ([]*model.Thought, error) {
	res, err := s.thoughts.List(ctx)
	if err != nil {
		return nil, classify(err, msgThoughtNotFound)
	}
	return res, nil
}

func (s *thoughtService) Get(ctx context.Context, id string) (*model.Thought, error) {
	t, err := s.thoughts.Get(ctx, id)
	if err != nil {
		return nil, classify(err, msgThoughtNotFound)
	}
	return t, nil
}

func (s *thoughtService) Create(ctx context.Context, in CreateThoughtInput) (*model.Thought, error) {
	if err := model.Validate(in); err != nil {
		return nil, err
	}

	var (
		author  *model.User
		thought *model.Thought
	)
	_, err := NewProtocol("create-thought", s.metrics).
		Then("resolve-author", func(ctx context.Context) error {
			u, err := s.users.Get(ctx, in.UserID)
			author = u
			return classify(err, msgUserNotFound)
		}).
		Then("insert-thought", func(ctx context.Context) error {
			t := &model.Thought{
				ThoughtText: in.ThoughtText,
				Username:    author.Username,
				Reactions:   []model.Reaction{},
			}
			if err := s.thoughts.Create(ctx, t); err != nil {
				return classify(err, msgThoughtNotFound)
			}
			thought = t
			return nil
		}).
		Then("link-author", func(ctx context.Context) error {
			return classify(s.users.AppendThought(ctx, author.ID, thought.ID), msgUserNotFound)
		}).
		Run(ctx)
	if err != nil {
		return nil, err
	}
	return thought, nil
}

func (s *thoughtService) Update(ctx context.Context, id string, in UpdateThoughtInput) (*model.Thought, error) {
	probe := &model.Thought{}
	var fields []string
	if in.ThoughtText != nil {
		probe.ThoughtText = *in.ThoughtText
		fields = append(fields, "ThoughtText")
	}
	if in.Username != nil {
		probe.Username = *in.Username
		fields = append(fields, "Username")
	}
	if err := model.ValidateFields(probe, fields...); err != nil {
		return nil, err
	}

	t, err := s.thoughts.Get(ctx, id)
	if err != nil {
		return nil, classify(err, msgThoughtNotFound)
	}
	if len(fields) == 0 {
		return t, nil
	}
	if in.ThoughtText != nil {
		t.ThoughtText = probe.ThoughtText
	}
	if in.Username != nil {
		t.Username = probe.Username
	}
	if err := s.thoughts.Update(ctx, t); err != nil {
		return nil, classify(err, msgThoughtNotFound)
	}
	return t, nil
}

func (s *thoughtService) Delete(ctx context.Context, id string) (*model.Thought, error) {
	var deleted *model.Thought
	_, err := NewProtocol("delete-thought", s.metrics).
		Then("delete-thought", func(ctx context.Context) error {
			t, err := s.thoughts.Delete(ctx, id)
			deleted = t
			return classify(err, msgThoughtNotFound)
		}).
		Then("detach-from-author", func(ctx context.Context) error {
			_, err := s.users.UnlinkThought(ctx, id)
			return classify(err, msgUserNotFound)
		}).
		Run(ctx)
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

func (s *thoughtService) AddReaction(ctx context.Context, thoughtID string, in AddReactionInput) (*model.Thought, error) {
	if err := model.Validate(in); err != nil {
		return nil, err
	}
	r := model.Reaction{
		ReactionID:   uuid.New().String(),
		ReactionBody: in.ReactionBody,
		Username:     in.Username,
		CreatedAt:    s.now(),
	}
	t, err := s.thoughts.AddReaction(ctx, thoughtID, r)
	if err != nil {
		return nil, classify(err, msgThoughtNotFound)
	}
	return t, nil
}

func (s *thoughtService) RemoveReaction(ctx context.Context, thoughtID, reactionID string) (*model.Thought, error) {
	t, err := s.thoughts.RemoveReaction(ctx, thoughtID, reactionID)
	if err != nil {
		return nil, classify(err, msgThoughtNotFound)
	}
	return t, nil
}
