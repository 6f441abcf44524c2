package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/d60-Lab/social-graph/internal/metrics"
	"github.com/d60-Lab/social-graph/internal/model"
	"github.com/d60-Lab/social-graph/internal/repository"
)

// UserRepository caches user documents in front of another UserRepository.
// Lists are never cached; single and batch lookups read through.
type UserRepository struct {
	repository.UserRepository
	cache *entityCache[model.User]
}

func NewUserRepository(next repository.UserRepository, rdb redis.UniversalClient, ttl time.Duration, m *metrics.Collector) *UserRepository {
	return &UserRepository{
		UserRepository: next,
		cache:          newEntityCache(rdb, ttl, "user", func(u *model.User) string { return u.ID }, m),
	}
}

func (r *UserRepository) Get(ctx context.Context, id string) (*model.User, error) {
	found, missing, st := r.cache.lookup(ctx, []string{id})
	if u, ok := found[id]; ok && len(missing) == 0 {
		u.Normalize()
		return u, nil
	}
	u, err := r.UserRepository.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	r.cache.store(ctx, st, u)
	return u, nil
}

func (r *UserRepository) FindByIDs(ctx context.Context, ids []string) ([]*model.User, error) {
	found, missing, st := r.cache.lookup(ctx, ids)
	if len(missing) > 0 {
		loaded, err := r.UserRepository.FindByIDs(ctx, missing)
		if err != nil {
			return nil, err
		}
		r.cache.store(ctx, st, loaded...)
		for _, u := range loaded {
			found[u.ID] = u
		}
	}
	out := ordered(ids, found)
	for _, u := range out {
		u.Normalize()
	}
	return out, nil
}

func (r *UserRepository) Update(ctx context.Context, u *model.User) error {
	defer r.cache.invalidate(ctx, u.ID)
	return r.UserRepository.Update(ctx, u)
}

func (r *UserRepository) Delete(ctx context.Context, id string) (*model.User, error) {
	defer r.cache.invalidate(ctx, id)
	return r.UserRepository.Delete(ctx, id)
}

func (r *UserRepository) AddFriend(ctx context.Context, userID, friendID string) (*model.User, error) {
	defer r.cache.invalidate(ctx, userID)
	return r.UserRepository.AddFriend(ctx, userID, friendID)
}

func (r *UserRepository) RemoveFriend(ctx context.Context, userID, friendID string) (*model.User, error) {
	defer r.cache.invalidate(ctx, userID)
	return r.UserRepository.RemoveFriend(ctx, userID, friendID)
}

func (r *UserRepository) AppendThought(ctx context.Context, userID, thoughtID string) error {
	defer r.cache.invalidate(ctx, userID)
	return r.UserRepository.AppendThought(ctx, userID, thoughtID)
}

func (r *UserRepository) UnlinkThought(ctx context.Context, thoughtID string) ([]string, error) {
	owners, err := r.UserRepository.UnlinkThought(ctx, thoughtID)
	r.cache.invalidate(ctx, owners...)
	return owners, err
}

func (r *UserRepository) DeleteAll(ctx context.Context) error {
	defer r.cache.flush(ctx)
	return r.UserRepository.DeleteAll(ctx)
}

// ThoughtRepository caches thought documents, reactions included.
type ThoughtRepository struct {
	repository.ThoughtRepository
	cache *entityCache[model.Thought]
}

func NewThoughtRepository(next repository.ThoughtRepository, rdb redis.UniversalClient, ttl time.Duration, m *metrics.Collector) *ThoughtRepository {
	return &ThoughtRepository{
		ThoughtRepository: next,
		cache:             newEntityCache(rdb, ttl, "thought", func(t *model.Thought) string { return t.ID }, m),
	}
}

func (r *ThoughtRepository) Get(ctx context.Context, id string) (*model.Thought, error) {
	found, missing, st := r.cache.lookup(ctx, []string{id})
	if t, ok := found[id]; ok && len(missing) == 0 {
		t.Normalize()
		return t, nil
	}
	t, err := r.ThoughtRepository.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	r.cache.store(ctx, st, t)
	return t, nil
}

func (r *ThoughtRepository) FindByIDs(ctx context.Context, ids []string) ([]*model.Thought, error) {
	found, missing, st := r.cache.lookup(ctx, ids)
	if len(missing) > 0 {
		loaded, err := r.ThoughtRepository.FindByIDs(ctx, missing)
		if err != nil {
			return nil, err
		}
		r.cache.store(ctx, st, loaded...)
		for _, t := range loaded {
			found[t.ID] = t
		}
	}
	out := ordered(ids, found)
	for _, t := range out {
		t.Normalize()
	}
	return out, nil
}

func (r *ThoughtRepository) Update(ctx context.Context, t *model.Thought) error {
	defer r.cache.invalidate(ctx, t.ID)
	return r.ThoughtRepository.Update(ctx, t)
}

func (r *ThoughtRepository) Delete(ctx context.Context, id string) (*model.Thought, error) {
	defer r.cache.invalidate(ctx, id)
	return r.ThoughtRepository.Delete(ctx, id)
}

func (r *ThoughtRepository) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	defer r.cache.invalidate(ctx, ids...)
	return r.ThoughtRepository.DeleteMany(ctx, ids)
}

func (r *ThoughtRepository) AddReaction(ctx context.Context, thoughtID string, reaction model.Reaction) (*model.Thought, error) {
	defer r.cache.invalidate(ctx, thoughtID)
	return r.ThoughtRepository.AddReaction(ctx, thoughtID, reaction)
}

func (r *ThoughtRepository) RemoveReaction(ctx context.Context, thoughtID, reactionID string) (*model.Thought, error) {
	defer r.cache.invalidate(ctx, thoughtID)
	return r.ThoughtRepository.RemoveReaction(ctx, thoughtID, reactionID)
}

func (r *ThoughtRepository) DeleteAll(ctx context.Context) error {
	defer r.cache.flush(ctx)
	return r.ThoughtRepository.DeleteAll(ctx)
}

// Wrap puts both repositories of s behind the cache.
func Wrap(s *repository.Store, rdb redis.UniversalClient, ttl time.Duration, m *metrics.Collector) {
	s.Users = NewUserRepository(s.Users, rdb, ttl, m)
	s.Thoughts = NewThoughtRepository(s.Thoughts, rdb, ttl, m)
}
