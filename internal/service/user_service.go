package service

import (
	"context"

	"github.com/d60-Lab/social-graph/internal/metrics"
	"github.com/d60-Lab/social-graph/internal/model"
	"github.com/d60-Lab/social-graph/internal/repository"
)

// CreateUserInput is the body of a create-user request.
type CreateUserInput struct {
	Username string `json:"username" example:"Alex_Rider"`
	Email    string `json:"email" example:"alex.rider@email.com"`
}

// UpdateUserInput is a partial update; nil fields are left unchanged.
type UpdateUserInput struct {
	Username *string `json:"username,omitempty"`
	Email    *string `json:"email,omitempty"`
}

// DeleteUserResult reports a cascade delete.
type DeleteUserResult struct {
	User            *model.User `json:"-"`
	DeletedThoughts int64       `json:"deletedThoughts"`
}

// UserService 用户与好友关系服务
type UserService interface {
	List(ctx context.Context) ([]*model.UserView, error)
	Get(ctx context.Context, id string) (*model.UserView, error)
	Create(ctx context.Context, in CreateUserInput) (*model.User, error)
	Update(ctx context.Context, id string, in UpdateUserInput) (*model.User, error)
	// Delete removes the user and then every thought it authored. The user is
	// gone before the cascade starts; a failed cascade leaves orphans.
	Delete(ctx context.Context, id string) (*DeleteUserResult, error)
	// AddFriend adds a directional edge userID -> friendID. Both must exist.
	AddFriend(ctx context.Context, userID, friendID string) (*model.User, error)
	// RemoveFriend drops the edge userID -> friendID if present. Only userID
	// must exist.
	RemoveFriend(ctx context.Context, userID, friendID string) (*model.User, error)
}

type userService struct {
	users    repository.UserRepository
	thoughts repository.ThoughtRepository
	metrics  *metrics.Collector
}

func NewUserService(users repository.UserRepository, thoughts repository.ThoughtRepository, m *metrics.Collector) UserService {
	return &userService{users: users, thoughts: thoughts, metrics: m}
}

func (s *userService) List(ctx context.Context) ([]*model.UserView, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, classify(err, msgUserNotFound)
	}
	return s.expand(ctx, users)
}

func (s *userService) Get(ctx context.Context, id string) (*model.UserView, error) {
	u, err := s.users.Get(ctx, id)
	if err != nil {
		return nil, classify(err, msgUserNotFound)
	}
	views, err := s.expand(ctx, []*model.User{u})
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

// expand dereferences thoughts and friends of all users with one batch
// lookup per collection.
func (s *userService) expand(ctx context.Context, users []*model.User) ([]*model.UserView, error) {
	var thoughtIDs, friendIDs []string
	for _, u := range users {
		thoughtIDs = append(thoughtIDs, u.Thoughts...)
		friendIDs = append(friendIDs, u.Friends...)
	}

	thoughts := make(map[string]*model.Thought)
	if len(thoughtIDs) > 0 {
		found, err := s.thoughts.FindByIDs(ctx, dedupe(thoughtIDs))
		if err != nil {
			return nil, classify(err, msgThoughtNotFound)
		}
		for _, t := range found {
			thoughts[t.ID] = t
		}
	}
	friends := make(map[string]*model.User)
	if len(friendIDs) > 0 {
		found, err := s.users.FindByIDs(ctx, dedupe(friendIDs))
		if err != nil {
			return nil, classify(err, msgUserNotFound)
		}
		for _, f := range found {
			friends[f.ID] = f
		}
	}

	views := make([]*model.UserView, len(users))
	for i, u := range users {
		views[i] = model.NewUserView(u, thoughts, friends)
	}
	return views, nil
}

func (s *userService) Create(ctx context.Context, in CreateUserInput) (*model.User, error) {
	u := &model.User{Username: in.Username, Email: in.Email}
	if err := model.Validate(u); err != nil {
		return nil, err
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, classify(err, msgUserNotFound)
	}
	return u, nil
}

func (s *userService) Update(ctx context.Context, id string, in UpdateUserInput) (*model.User, error) {
	probe := &model.User{}
	var fields []string
	if in.Username != nil {
		probe.Username = *in.Username
		fields = append(fields, "Username")
	}
	if in.Email != nil {
		probe.Email = *in.Email
		fields = append(fields, "Email")
	}
	if err := model.ValidateFields(probe, fields...); err != nil {
		return nil, err
	}

	u, err := s.users.Get(ctx, id)
	if err != nil {
		return nil, classify(err, msgUserNotFound)
	}
	if len(fields) == 0 {
		return u, nil
	}
	if in.Username != nil {
		u.Username = probe.Username
	}
	if in.Email != nil {
		u.Email = probe.Email
	}
	if err := s.users.Update(ctx, u); err != nil {
		return nil, classify(err, msgUserNotFound)
	}
	return u, nil
}

func (s *userService) Delete(ctx context.Context, id string) (*DeleteUserResult, error) {
	res := &DeleteUserResult{}
	_, err := NewProtocol("delete-user", s.metrics).
		Then("delete-user", func(ctx context.Context) error {
			u, err := s.users.Delete(ctx, id)
			res.User = u
			return classify(err, msgUserNotFound)
		}).
		Then("delete-thoughts", func(ctx context.Context) error {
			n, err := s.thoughts.DeleteMany(ctx, res.User.Thoughts)
			res.DeletedThoughts = n
			return classify(err, msgThoughtNotFound)
		}).
		Run(ctx)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *userService) AddFriend(ctx context.Context, userID, friendID string) (*model.User, error) {
	var out *model.User
	_, err := NewProtocol("add-friend", s.metrics).
		Then("resolve-users", func(ctx context.Context) error {
			found, err := s.users.FindByIDs(ctx, dedupe([]string{userID, friendID}))
			if err != nil {
				return classify(err, msgUserOrFriendNotFound)
			}
			if len(found) != len(dedupe([]string{userID, friendID})) {
				return classify(repository.ErrNotFound, msgUserOrFriendNotFound)
			}
			return nil
		}).
		Then("add-to-friend-set", func(ctx context.Context) error {
			u, err := s.users.AddFriend(ctx, userID, friendID)
			out = u
			return classify(err, msgUserOrFriendNotFound)
		}).
		Run(ctx)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *userService) RemoveFriend(ctx context.Context, userID, friendID string) (*model.User, error) {
	u, err := s.users.RemoveFriend(ctx, userID, friendID)
	if err != nil {
		return nil, classify(err, msgUserNotFound)
	}
	return u, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
