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

type thoughtRepository struct {
	db *gorm.DB
}

// NewThoughtRepository returns the relational thought store. Reactions are
// kept inline as a JSON column, so every thought row is one document.
func NewThoughtRepository(db *gorm.DB) ThoughtRepository { return &thoughtRepository{db: db} }

func (r *thoughtRepository) Create(ctx context.Context, t *model.Thought) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	t.Normalize()
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *thoughtRepository) Get(ctx context.Context, id string) (*model.Thought, error) {
	return getThought(r.db.WithContext(ctx), id)
}

func getThought(db *gorm.DB, id string) (*model.Thought, error) {
	var t model.Thought
	if err := db.Where("id = ?", id).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	t.Normalize()
	return &t, nil
}

func (r *thoughtRepository) List(ctx context.Context) ([]*model.Thought, error) {
	res := []*model.Thought{}
	if err := r.db.WithContext(ctx).Order("created_at ASC, id ASC").Find(&res).Error; err != nil {
		return nil, err
	}
	for _, t := range res {
		t.Normalize()
	}
	return res, nil
}

func (r *thoughtRepository) FindByIDs(ctx context.Context, ids []string) ([]*model.Thought, error) {
	if len(ids) == 0 {
		return []*model.Thought{}, nil
	}
	res := []*model.Thought{}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&res).Error; err != nil {
		return nil, err
	}
	for _, t := range res {
		t.Normalize()
	}
	return res, nil
}

func (r *thoughtRepository) Update(ctx context.Context, t *model.Thought) error {
	t.UpdatedAt = time.Now().UTC()
	res := r.db.WithContext(ctx).
		Model(&model.Thought{}).
		Where("id = ?", t.ID).
		Updates(map[string]any{"thought_text": t.ThoughtText, "username": t.Username, "updated_at": t.UpdatedAt})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *thoughtRepository) Delete(ctx context.Context, id string) (*model.Thought, error) {
	var deleted *model.Thought
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		t, err := getThought(tx, id)
		if err != nil {
			return err
		}
		if err := tx.Where("id = ?", id).Delete(&model.Thought{}).Error; err != nil {
			return err
		}
		deleted = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

func (r *thoughtRepository) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&model.Thought{})
	return res.RowsAffected, res.Error
}

func (r *thoughtRepository) AddReaction(ctx context.Context, thoughtID string, reaction model.Reaction) (*model.Thought, error) {
	return r.mutateReactions(ctx, thoughtID, func(t *model.Thought) []model.Reaction {
		return append(t.Reactions, reaction)
	})
}

func (r *thoughtRepository) RemoveReaction(ctx context.Context, thoughtID, reactionID string) (*model.Thought, error) {
	return r.mutateReactions(ctx, thoughtID, func(t *model.Thought) []model.Reaction {
		return t.WithoutReaction(reactionID)
	})
}

// mutateReactions rewrites the embedded reactions of one thought inside a
// single transaction, holding a row lock where the dialect supports it.
func (r *thoughtRepository) mutateReactions(ctx context.Context, thoughtID string, fn func(*model.Thought) []model.Reaction) (*model.Thought, error) {
	var out *model.Thought
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		t, err := getThought(forUpdate(tx), thoughtID)
		if err != nil {
			return err
		}
		t.Reactions = fn(t)
		t.UpdatedAt = time.Now().UTC()
		if err := tx.Model(t).Select("Reactions", "UpdatedAt").Updates(t).Error; err != nil {
			return err
		}
		t.Normalize()
		out = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *thoughtRepository) DeleteAll(ctx context.Context) error {
	return r.db.WithContext(ctx).Where("1 = 1").Delete(&model.Thought{}).Error
}

// forUpdate adds SELECT ... FOR UPDATE on dialects that have row locks.
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}
