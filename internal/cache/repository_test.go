package cache

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/d60-Lab/social-graph/internal/metrics"
	"github.com/d60-Lab/social-graph/internal/model"
	"github.com/d60-Lab/social-graph/internal/repository"
	"github.com/d60-Lab/social-graph/internal/service"
)

type countingUsers struct {
	repository.UserRepository
	gets, finds atomic.Int64
	// afterLoad runs once, between the store read and the cache write-back.
	afterLoad func()
}

func (c *countingUsers) loaded() {
	if fn := c.afterLoad; fn != nil {
		c.afterLoad = nil
		fn()
	}
}

func (c *countingUsers) Get(ctx context.Context, id string) (*model.User, error) {
	c.gets.Add(1)
	u, err := c.UserRepository.Get(ctx, id)
	c.loaded()
	return u, err
}

func (c *countingUsers) FindByIDs(ctx context.Context, ids []string) ([]*model.User, error) {
	c.finds.Add(1)
	res, err := c.UserRepository.FindByIDs(ctx, ids)
	c.loaded()
	return res, err
}

type countingThoughts struct {
	repository.ThoughtRepository
	gets atomic.Int64
}

func (c *countingThoughts) Get(ctx context.Context, id string) (*model.Thought, error) {
	c.gets.Add(1)
	return c.ThoughtRepository.Get(ctx, id)
}

type fixture struct {
	mr       *miniredis.Miniredis
	users    *countingUsers
	thoughts *countingThoughts
	cUsers   *UserRepository
	cThought *ThoughtRepository
}

func setup(t *testing.T) *fixture {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&model.User{}, &model.Thought{}, &model.UserThought{}, &model.Friend{}))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	f := &fixture{
		mr:       mr,
		users:    &countingUsers{UserRepository: repository.NewUserRepository(db)},
		thoughts: &countingThoughts{ThoughtRepository: repository.NewThoughtRepository(db)},
	}
	m := metrics.New()
	f.cUsers = NewUserRepository(f.users, rdb, time.Minute, m)
	f.cThought = NewThoughtRepository(f.thoughts, rdb, time.Minute, m)
	return f
}

func TestUserCache_ReadThrough(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	u := &model.User{Username: "alex", Email: "alex@example.com"}
	require.NoError(t, f.cUsers.Create(ctx, u))

	for i := 0; i < 3; i++ {
		got, err := f.cUsers.Get(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, "alex", got.Username)
		assert.Equal(t, []string{}, got.Friends)
	}
	assert.EqualValues(t, 1, f.users.gets.Load())
	assert.True(t, f.mr.Exists("user:"+u.ID))
	ttl := f.mr.TTL("user:" + u.ID)
	assert.True(t, ttl > 0 && ttl <= time.Minute)
}

func TestUserCache_NotFoundIsNotCached(t *testing.T) {
	f := setup(t)
	_, err := f.cUsers.Get(context.Background(), "ghost")
	require.ErrorIs(t, err, repository.ErrNotFound)
	assert.False(t, f.mr.Exists("user:ghost"))
}

func TestUserCache_MutationsInvalidate(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	a := &model.User{Username: "a", Email: "a@example.com"}
	b := &model.User{Username: "b", Email: "b@example.com"}
	require.NoError(t, f.cUsers.Create(ctx, a))
	require.NoError(t, f.cUsers.Create(ctx, b))

	_, err := f.cUsers.Get(ctx, a.ID)
	require.NoError(t, err)
	_, err = f.cUsers.AddFriend(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, f.mr.Exists("user:"+a.ID))

	got, err := f.cUsers.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID}, got.Friends)

	require.NoError(t, f.cUsers.AppendThought(ctx, a.ID, "t1"))
	got, err = f.cUsers.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"t1"}, got.Thoughts)

	_, err = f.cUsers.UnlinkThought(ctx, "t1")
	require.NoError(t, err)
	got, err = f.cUsers.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Thoughts)

	_, err = f.cUsers.Delete(ctx, a.ID)
	require.NoError(t, err)
	_, err = f.cUsers.Get(ctx, a.ID)
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUserCache_FindByIDsLoadsOnlyMisses(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	var ids []string
	for i := 0; i < 4; i++ {
		u := &model.User{Username: fmt.Sprintf("u%d", i), Email: fmt.Sprintf("u%d@example.com", i)}
		require.NoError(t, f.cUsers.Create(ctx, u))
		ids = append(ids, u.ID)
	}
	_, err := f.cUsers.Get(ctx, ids[0])
	require.NoError(t, err)

	got, err := f.cUsers.FindByIDs(ctx, append([]string{"ghost"}, ids...))
	require.NoError(t, err)
	require.Len(t, got, 4)
	for i, u := range got {
		assert.Equal(t, ids[i], u.ID)
	}
	assert.EqualValues(t, 1, f.users.finds.Load())

	_, err = f.cUsers.FindByIDs(ctx, ids)
	require.NoError(t, err)
	assert.EqualValues(t, 1, f.users.finds.Load())
}

func TestUserCache_RedisDownFallsBack(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	u := &model.User{Username: "alex", Email: "alex@example.com"}
	require.NoError(t, f.cUsers.Create(ctx, u))
	f.mr.Close()

	got, err := f.cUsers.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
}

func TestThoughtCache_ReactionsInvalidate(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	th := &model.Thought{ThoughtText: "hello", Username: "alex"}
	require.NoError(t, f.cThought.Create(ctx, th))

	_, err := f.cThought.Get(ctx, th.ID)
	require.NoError(t, err)
	_, err = f.cThought.Get(ctx, th.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, f.thoughts.gets.Load())

	_, err = f.cThought.AddReaction(ctx, th.ID, model.Reaction{ReactionID: "r1", ReactionBody: "nice", Username: "emma"})
	require.NoError(t, err)
	got, err := f.cThought.Get(ctx, th.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.ReactionCount())
	assert.EqualValues(t, 2, f.thoughts.gets.Load())

	n, err := f.cThought.DeleteMany(ctx, []string{th.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	_, err = f.cThought.Get(ctx, th.ID)
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDeleteAllFlushes(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	u := &model.User{Username: "alex", Email: "alex@example.com"}
	require.NoError(t, f.cUsers.Create(ctx, u))
	_, err := f.cUsers.Get(ctx, u.ID)
	require.NoError(t, err)
	require.NoError(t, f.mr.Set("thought:keep", "{}"))

	require.NoError(t, f.cUsers.DeleteAll(ctx))
	assert.False(t, f.mr.Exists("user:"+u.ID))
	assert.True(t, f.mr.Exists("thought:keep"))
}

func TestUserCache_LoadRacingUpdateIsNotWrittenBack(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	u := &model.User{Username: "old", Email: "alex@example.com"}
	require.NoError(t, f.cUsers.Create(ctx, u))

	f.users.afterLoad = func() {
		renamed := *u
		renamed.Username = "new"
		require.NoError(t, f.cUsers.Update(ctx, &renamed))
	}
	got, err := f.cUsers.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "old", got.Username)
	assert.False(t, f.mr.Exists("user:"+u.ID))

	got, err = f.cUsers.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "new", got.Username)
	assert.True(t, f.mr.Exists("user:"+u.ID))
}

func TestUserCache_BatchLoadRacingDeleteIsNotWrittenBack(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	u := &model.User{Username: "alex", Email: "alex@example.com"}
	require.NoError(t, f.cUsers.Create(ctx, u))

	f.users.afterLoad = func() {
		_, err := f.cUsers.Delete(ctx, u.ID)
		require.NoError(t, err)
	}
	got, err := f.cUsers.FindByIDs(ctx, []string{u.ID})
	require.NoError(t, err)
	require.Len(t, got, 1)

	got, err = f.cUsers.FindByIDs(ctx, []string{u.ID})
	require.NoError(t, err)
	assert.Empty(t, got)
	_, err = f.cUsers.Get(ctx, u.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUserCache_LoadRacingFlushIsNotWrittenBack(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	u := &model.User{Username: "alex", Email: "alex@example.com"}
	require.NoError(t, f.cUsers.Create(ctx, u))

	f.users.afterLoad = func() { require.NoError(t, f.cUsers.DeleteAll(ctx)) }
	_, err := f.cUsers.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, f.mr.Exists("user:"+u.ID))

	_, err = f.cUsers.Get(ctx, u.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCreateThought_CopiesUsernameAfterRacingRename(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	m := metrics.New()
	users := service.NewUserService(f.cUsers, f.cThought, m)
	thoughts := service.NewThoughtService(f.cUsers, f.cThought, m)

	u, err := users.Create(ctx, service.CreateUserInput{Username: "Alex_Rider", Email: "alex@example.com"})
	require.NoError(t, err)

	renamed := "Alex_Rider_2"
	f.users.afterLoad = func() {
		_, err := users.Update(ctx, u.ID, service.UpdateUserInput{Username: &renamed})
		require.NoError(t, err)
	}
	_, err = f.cUsers.Get(ctx, u.ID)
	require.NoError(t, err)

	th, err := thoughts.Create(ctx, service.CreateThoughtInput{ThoughtText: "hi", UserID: u.ID})
	require.NoError(t, err)
	assert.Equal(t, renamed, th.Username)
}
