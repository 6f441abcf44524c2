package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/d60-Lab/social-graph/internal/model"
)

type mongoThoughtRepository struct {
	coll *mongo.Collection
}

// NewMongoThoughtRepository stores thoughts as documents with reactions
// nested in the reactions array.
func NewMongoThoughtRepository(db *mongo.Database) ThoughtRepository {
	return &mongoThoughtRepository{coll: db.Collection(thoughtsCollection)}
}

func (r *mongoThoughtRepository) Create(ctx context.Context, t *model.Thought) error {
	oid, err := newObjectID(t.ID)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	t.ID = oid.Hex()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	t.Normalize()
	_, err = r.coll.InsertOne(ctx, thoughtDoc{
		ID:          oid,
		ThoughtText: t.ThoughtText,
		Username:    t.Username,
		Reactions:   t.Reactions,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	})
	return err
}

func (r *mongoThoughtRepository) Get(ctx context.Context, id string) (*model.Thought, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var t model.Thought
	if err := r.coll.FindOne(ctx, byID(oid)).Decode(&t); err != nil {
		return nil, mongoErr(err)
	}
	t.Normalize()
	return &t, nil
}

func (r *mongoThoughtRepository) List(ctx context.Context) ([]*model.Thought, error) {
	return r.find(ctx, bson.M{})
}

func (r *mongoThoughtRepository) FindByIDs(ctx context.Context, ids []string) ([]*model.Thought, error) {
	oids := objectIDs(ids)
	if len(oids) == 0 {
		return []*model.Thought{}, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": oids}})
}

func (r *mongoThoughtRepository) find(ctx context.Context, filter bson.M) ([]*model.Thought, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	res := []*model.Thought{}
	if err := cur.All(ctx, &res); err != nil {
		return nil, err
	}
	for _, t := range res {
		t.Normalize()
	}
	return res, nil
}

func (r *mongoThoughtRepository) Update(ctx context.Context, t *model.Thought) error {
	oid, err := objectID(t.ID)
	if err != nil {
		return err
	}
	t.UpdatedAt = time.Now().UTC()
	res, err := r.coll.UpdateOne(ctx, byID(oid), bson.M{"$set": bson.M{
		"thoughtText": t.ThoughtText,
		"username":    t.Username,
		"updatedAt":   t.UpdatedAt,
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoThoughtRepository) Delete(ctx context.Context, id string) (*model.Thought, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var t model.Thought
	if err := r.coll.FindOneAndDelete(ctx, byID(oid)).Decode(&t); err != nil {
		return nil, mongoErr(err)
	}
	t.Normalize()
	return &t, nil
}

func (r *mongoThoughtRepository) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	oids := objectIDs(ids)
	if len(oids) == 0 {
		return 0, nil
	}
	res, err := r.coll.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (r *mongoThoughtRepository) AddReaction(ctx context.Context, thoughtID string, reaction model.Reaction) (*model.Thought, error) {
	return r.findAndUpdate(ctx, thoughtID, bson.M{
		"$push": bson.M{"reactions": reaction},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	})
}

func (r *mongoThoughtRepository) RemoveReaction(ctx context.Context, thoughtID, reactionID string) (*model.Thought, error) {
	return r.findAndUpdate(ctx, thoughtID, bson.M{
		"$pull": bson.M{"reactions": bson.M{"reactionId": anyIDForm(reactionID)}},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	})
}

func (r *mongoThoughtRepository) DeleteAll(ctx context.Context) error {
	_, err := r.coll.DeleteMany(ctx, bson.M{})
	return err
}

func (r *mongoThoughtRepository) findAndUpdate(ctx context.Context, thoughtID string, update bson.M) (*model.Thought, error) {
	oid, err := objectID(thoughtID)
	if err != nil {
		return nil, err
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var t model.Thought
	if err := r.coll.FindOneAndUpdate(ctx, byID(oid), update, opts).Decode(&t); err != nil {
		return nil, mongoErr(err)
	}
	t.Normalize()
	return &t, nil
}

// EnsureIndexes creates the secondary indexes both collections rely on.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	if _, err := db.Collection(usersCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}},
		{Keys: bson.D{{Key: "thoughts", Value: 1}}},
		{Keys: bson.D{{Key: "createdAt", Value: 1}}},
	}); err != nil {
		return err
	}
	_, err := db.Collection(thoughtsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}},
		{Keys: bson.D{{Key: "createdAt", Value: 1}}},
	})
	return err
}
