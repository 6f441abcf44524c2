package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/d60-Lab/social-graph/internal/model"
)

func openTestDB(tb testing.TB) *gorm.DB {
	tb.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(tb, err)
	sqlDB, err := db.DB()
	require.NoError(tb, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(tb, db.AutoMigrate(&model.User{}, &model.Thought{}, &model.UserThought{}, &model.Friend{}))
	tb.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func newUser(t *testing.T, repo UserRepository, name string) *model.User {
	t.Helper()
	u := &model.User{Username: name, Email: name + "@example.com"}
	require.NoError(t, repo.Create(context.Background(), u))
	return u
}

func TestUserRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(openTestDB(t))

	u := newUser(t, repo, "alex")
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, []string{}, u.Friends)

	got, err := repo.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alex", got.Username)
	assert.Equal(t, []string{}, got.Thoughts)

	got.Email = "alex@new.example.com"
	require.NoError(t, repo.Update(ctx, got))
	got, err = repo.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alex@new.example.com", got.Email)

	require.ErrorIs(t, repo.Update(ctx, &model.User{ID: "missing"}), ErrNotFound)
	_, err = repo.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)

	deleted, err := repo.Delete(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.ID, deleted.ID)
	_, err = repo.Delete(ctx, u.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUserRepository_ListAndFindByIDs(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(openTestDB(t))

	empty, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	a := newUser(t, repo, "a")
	time.Sleep(time.Millisecond)
	b := newUser(t, repo, "b")

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, a.ID, all[0].ID)

	found, err := repo.FindByIDs(ctx, []string{b.ID, "ghost"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, b.ID, found[0].ID)

	none, err := repo.FindByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestUserRepository_FriendSet(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(openTestDB(t))
	a := newUser(t, repo, "a")
	b := newUser(t, repo, "b")
	c := newUser(t, repo, "c")

	u, err := repo.AddFriend(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID}, u.Friends)

	u, err = repo.AddFriend(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, u.FriendCount())

	u, err = repo.AddFriend(ctx, a.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID, c.ID}, u.Friends)

	// directional
	other, err := repo.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Empty(t, other.Friends)

	u, err = repo.RemoveFriend(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{c.ID}, u.Friends)

	u, err = repo.RemoveFriend(ctx, a.ID, "not-a-friend")
	require.NoError(t, err)
	assert.Equal(t, []string{c.ID}, u.Friends)

	_, err = repo.AddFriend(ctx, "ghost", a.ID)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = repo.RemoveFriend(ctx, "ghost", a.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUserRepository_ThoughtLinks(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(openTestDB(t))
	a := newUser(t, repo, "a")
	b := newUser(t, repo, "b")

	require.NoError(t, repo.AppendThought(ctx, a.ID, "t1"))
	require.NoError(t, repo.AppendThought(ctx, a.ID, "t2"))
	require.NoError(t, repo.AppendThought(ctx, b.ID, "t2"))
	require.ErrorIs(t, repo.AppendThought(ctx, "ghost", "t3"), ErrNotFound)

	got, err := repo.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"t1", "t2"}, got.Thoughts)

	owners, err := repo.UnlinkThought(ctx, "t2")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{a.ID, b.ID}, owners)

	got, err = repo.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"t1"}, got.Thoughts)

	owners, err = repo.UnlinkThought(ctx, "t2")
	require.NoError(t, err)
	assert.Empty(t, owners)
}

func TestUserRepository_DeleteRemovesEdges(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	repo := NewUserRepository(db)
	a := newUser(t, repo, "a")
	b := newUser(t, repo, "b")
	_, err := repo.AddFriend(ctx, a.ID, b.ID)
	require.NoError(t, err)
	require.NoError(t, repo.AppendThought(ctx, a.ID, "t1"))

	deleted, err := repo.Delete(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"t1"}, deleted.Thoughts)
	assert.Equal(t, []string{b.ID}, deleted.Friends)

	var edges int64
	require.NoError(t, db.Model(&model.Friend{}).Count(&edges).Error)
	assert.Zero(t, edges)
	require.NoError(t, db.Model(&model.UserThought{}).Count(&edges).Error)
	assert.Zero(t, edges)
}

func TestThoughtRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewThoughtRepository(openTestDB(t))

	th := &model.Thought{ThoughtText: "hello", Username: "alex"}
	require.NoError(t, repo.Create(ctx, th))
	assert.NotEmpty(t, th.ID)
	assert.False(t, th.CreatedAt.IsZero())

	got, err := repo.Get(ctx, th.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello", got.ThoughtText)
	assert.Equal(t, []model.Reaction{}, got.Reactions)

	got.ThoughtText = "edited"
	require.NoError(t, repo.Update(ctx, got))
	got, err = repo.Get(ctx, th.ID)
	require.NoError(t, err)
	assert.Equal(t, "edited", got.ThoughtText)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	deleted, err := repo.Delete(ctx, th.ID)
	require.NoError(t, err)
	assert.Equal(t, "edited", deleted.ThoughtText)
	_, err = repo.Get(ctx, th.ID)
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, repo.Update(ctx, th), ErrNotFound)
}

func TestThoughtRepository_DeleteMany(t *testing.T) {
	ctx := context.Background()
	repo := NewThoughtRepository(openTestDB(t))
	var ids []string
	for i := 0; i < 3; i++ {
		th := &model.Thought{ThoughtText: fmt.Sprintf("t%d", i), Username: "alex"}
		require.NoError(t, repo.Create(ctx, th))
		ids = append(ids, th.ID)
	}

	n, err := repo.DeleteMany(ctx, append(ids[:2:2], "ghost"))
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	n, err = repo.DeleteMany(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	rest, err := repo.FindByIDs(ctx, ids)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, ids[2], rest[0].ID)
}

func TestThoughtRepository_Reactions(t *testing.T) {
	ctx := context.Background()
	repo := NewThoughtRepository(openTestDB(t))
	th := &model.Thought{ThoughtText: "hello", Username: "alex"}
	require.NoError(t, repo.Create(ctx, th))

	r1 := model.Reaction{ReactionID: "r1", ReactionBody: "nice", Username: "emma", CreatedAt: time.Now().UTC()}
	r2 := model.Reaction{ReactionID: "r2", ReactionBody: "wow", Username: "liam", CreatedAt: time.Now().UTC()}

	got, err := repo.AddReaction(ctx, th.ID, r1)
	require.NoError(t, err)
	assert.Equal(t, 1, got.ReactionCount())
	got, err = repo.AddReaction(ctx, th.ID, r2)
	require.NoError(t, err)
	assert.Equal(t, 2, got.ReactionCount())

	got, err = repo.RemoveReaction(ctx, th.ID, "r1")
	require.NoError(t, err)
	require.Len(t, got.Reactions, 1)
	assert.Equal(t, "r2", got.Reactions[0].ReactionID)

	got, err = repo.RemoveReaction(ctx, th.ID, "unknown")
	require.NoError(t, err)
	assert.Len(t, got.Reactions, 1)

	stored, err := repo.Get(ctx, th.ID)
	require.NoError(t, err)
	assert.Equal(t, "wow", stored.Reactions[0].ReactionBody)

	_, err = repo.AddReaction(ctx, "ghost", r1)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = repo.RemoveReaction(ctx, "ghost", "r1")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteAll(t *testing.T) {
	ctx := context.Background()
	store := NewGormStore(openTestDB(t))
	a := newUser(t, store.Users, "a")
	require.NoError(t, store.Thoughts.Create(ctx, &model.Thought{ThoughtText: "x", Username: "a"}))
	_, err := store.Users.AddFriend(ctx, a.ID, a.ID)
	require.NoError(t, err)

	require.NoError(t, store.Users.DeleteAll(ctx))
	require.NoError(t, store.Thoughts.DeleteAll(ctx))

	users, err := store.Users.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)
	thoughts, err := store.Thoughts.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, thoughts)
	assert.Equal(t, "sqlite", store.Driver)
}
