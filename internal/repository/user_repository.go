package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/social-graph/internal/model"
)

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns the relational user store. Reference lists live
// in the friends and user_thoughts edge tables.
func NewUserRepository(db *gorm.DB) UserRepository { return &userRepository{db: db} }

func (r *userRepository) Create(ctx context.Context, u *model.User) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	u.Thoughts, u.Friends = []string{}, []string{}
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *userRepository) Get(ctx context.Context, id string) (*model.User, error) {
	return r.get(r.db.WithContext(ctx), id)
}

func (r *userRepository) get(db *gorm.DB, id string) (*model.User, error) {
	var u model.User
	if err := db.Where("id = ?", id).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := loadRefs(db, []*model.User{&u}); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) List(ctx context.Context) ([]*model.User, error) {
	users := []*model.User{}
	db := r.db.WithContext(ctx)
	if err := db.Order("created_at ASC, id ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	if err := loadRefs(db, users); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) FindByIDs(ctx context.Context, ids []string) ([]*model.User, error) {
	if len(ids) == 0 {
		return []*model.User{}, nil
	}
	users := []*model.User{}
	db := r.db.WithContext(ctx)
	if err := db.Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	if err := loadRefs(db, users); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) Update(ctx context.Context, u *model.User) error {
	u.UpdatedAt = time.Now().UTC()
	res := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", u.ID).
		Updates(map[string]any{"username": u.Username, "email": u.Email, "updated_at": u.UpdatedAt})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id string) (*model.User, error) {
	var deleted *model.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		u, err := r.get(tx, id)
		if err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&model.UserThought{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&model.Friend{}).Error; err != nil {
			return err
		}
		if err := tx.Where("id = ?", id).Delete(&model.User{}).Error; err != nil {
			return err
		}
		deleted = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

func (r *userRepository) AddFriend(ctx context.Context, userID, friendID string) (*model.User, error) {
	var out *model.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := exists(tx, userID); err != nil {
			return err
		}
		now := time.Now().UTC()
		f := &model.Friend{ID: uuid.New().String(), UserID: userID, FriendID: friendID, Seq: now.UnixNano(), CreatedAt: now}
		// 幂等：重复添加不报错
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(f).Error; err != nil {
			return err
		}
		u, err := r.get(tx, userID)
		out = u
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *userRepository) RemoveFriend(ctx context.Context, userID, friendID string) (*model.User, error) {
	var out *model.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := exists(tx, userID); err != nil {
			return err
		}
		if err := tx.Where("user_id = ? AND friend_id = ?", userID, friendID).Delete(&model.Friend{}).Error; err != nil {
			return err
		}
		u, err := r.get(tx, userID)
		out = u
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *userRepository) AppendThought(ctx context.Context, userID, thoughtID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := exists(tx, userID); err != nil {
			return err
		}
		now := time.Now().UTC()
		link := &model.UserThought{ID: uuid.New().String(), UserID: userID, ThoughtID: thoughtID, Position: now.UnixNano(), CreatedAt: now}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(link).Error
	})
}

func (r *userRepository) UnlinkThought(ctx context.Context, thoughtID string) ([]string, error) {
	var owners []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.UserThought{}).
			Where("thought_id = ?", thoughtID).
			Pluck("user_id", &owners).Error; err != nil {
			return err
		}
		return tx.Where("thought_id = ?", thoughtID).Delete(&model.UserThought{}).Error
	})
	if err != nil {
		return nil, err
	}
	return owners, nil
}

func (r *userRepository) DeleteAll(ctx context.Context) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, m := range []any{&model.UserThought{}, &model.Friend{}, &model.User{}} {
			if err := tx.Where("1 = 1").Delete(m).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func exists(db *gorm.DB, userID string) error {
	var cnt int64
	if err := db.Model(&model.User{}).Where("id = ?", userID).Count(&cnt).Error; err != nil {
		return err
	}
	if cnt == 0 {
		return ErrNotFound
	}
	return nil
}

// loadRefs fills Thoughts and Friends of users from the edge tables.
func loadRefs(db *gorm.DB, users []*model.User) error {
	if len(users) == 0 {
		return nil
	}
	byID := make(map[string]*model.User, len(users))
	ids := make([]string, len(users))
	for i, u := range users {
		u.Thoughts, u.Friends = []string{}, []string{}
		byID[u.ID] = u
		ids[i] = u.ID
	}

	var links []model.UserThought
	if err := db.Where("user_id IN ?", ids).Order("position ASC, id ASC").Find(&links).Error; err != nil {
		return err
	}
	for _, l := range links {
		byID[l.UserID].Thoughts = append(byID[l.UserID].Thoughts, l.ThoughtID)
	}

	var friends []model.Friend
	if err := db.Where("user_id IN ?", ids).Order("seq ASC, id ASC").Find(&friends).Error; err != nil {
		return err
	}
	for _, f := range friends {
		byID[f.UserID].Friends = append(byID[f.UserID].Friends, f.FriendID)
	}
	return nil
}
