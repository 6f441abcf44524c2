package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/d60-Lab/social-graph/internal/model"
	"github.com/d60-Lab/social-graph/internal/repository"
)

var errStoreDown = errors.New("connection reset by peer")

func newTestStore(t testing.TB) *repository.Store {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&model.User{}, &model.Thought{}, &model.UserThought{}, &model.Friend{}))
	store := repository.NewGormStore(db)
	t.Cleanup(func() { _ = store.Close(context.Background()) })
	return store
}

// flakyUsers fails selected mutations to exercise partial application.
type flakyUsers struct {
	repository.UserRepository
	failAppend bool
	failUnlink bool
}

func (f *flakyUsers) AppendThought(ctx context.Context, userID, thoughtID string) error {
	if f.failAppend {
		return errStoreDown
	}
	return f.UserRepository.AppendThought(ctx, userID, thoughtID)
}

func (f *flakyUsers) UnlinkThought(ctx context.Context, thoughtID string) ([]string, error) {
	if f.failUnlink {
		return nil, errStoreDown
	}
	return f.UserRepository.UnlinkThought(ctx, thoughtID)
}

type flakyThoughts struct {
	repository.ThoughtRepository
	failDeleteMany bool
	creates        int
}

func (f *flakyThoughts) Create(ctx context.Context, t *model.Thought) error {
	f.creates++
	return f.ThoughtRepository.Create(ctx, t)
}

func (f *flakyThoughts) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	if f.failDeleteMany {
		return 0, errStoreDown
	}
	return f.ThoughtRepository.DeleteMany(ctx, ids)
}

type fixture struct {
	store    *repository.Store
	users    *flakyUsers
	thoughts *flakyThoughts
	userSvc  UserService
	thoughtS ThoughtService
}

func newFixture(t testing.TB) *fixture {
	store := newTestStore(t)
	f := &fixture{
		store:    store,
		users:    &flakyUsers{UserRepository: store.Users},
		thoughts: &flakyThoughts{ThoughtRepository: store.Thoughts},
	}
	f.userSvc = NewUserService(f.users, f.thoughts, nil)
	f.thoughtS = NewThoughtService(f.users, f.thoughts, nil)
	return f
}

func (f *fixture) user(t testing.TB, name string) *model.User {
	t.Helper()
	u, err := f.userSvc.Create(context.Background(), CreateUserInput{Username: name, Email: name + "@example.com"})
	require.NoError(t, err)
	return u
}

func (f *fixture) thought(t testing.TB, author *model.User, text string) *model.Thought {
	t.Helper()
	th, err := f.thoughtS.Create(context.Background(), CreateThoughtInput{ThoughtText: text, UserID: author.ID})
	require.NoError(t, err)
	return th
}
