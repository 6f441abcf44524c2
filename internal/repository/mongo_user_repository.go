package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/d60-Lab/social-graph/internal/model"
)

const (
	usersCollection    = "users"
	thoughtsCollection = "thoughts"
)

type mongoUserRepository struct {
	coll *mongo.Collection
}

// NewMongoUserRepository stores users as documents with inline thought and
// friend id arrays. Set updates use $addToSet / $pull so concurrent edits of
// one user never lose each other's writes.
func NewMongoUserRepository(db *mongo.Database) UserRepository {
	return &mongoUserRepository{coll: db.Collection(usersCollection)}
}

func (r *mongoUserRepository) Create(ctx context.Context, u *model.User) error {
	oid, err := newObjectID(u.ID)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	u.ID = oid.Hex()
	u.CreatedAt, u.UpdatedAt = now, now
	u.Thoughts, u.Friends = []string{}, []string{}
	_, err = r.coll.InsertOne(ctx, userDoc{
		ID:        oid,
		Username:  u.Username,
		Email:     u.Email,
		Thoughts:  []primitive.ObjectID{},
		Friends:   []primitive.ObjectID{},
		CreatedAt: now,
		UpdatedAt: now,
	})
	return err
}

func (r *mongoUserRepository) Get(ctx context.Context, id string) (*model.User, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var u model.User
	if err := r.coll.FindOne(ctx, byID(oid)).Decode(&u); err != nil {
		return nil, mongoErr(err)
	}
	u.Normalize()
	return &u, nil
}

func (r *mongoUserRepository) List(ctx context.Context) ([]*model.User, error) {
	return r.find(ctx, bson.M{})
}

func (r *mongoUserRepository) FindByIDs(ctx context.Context, ids []string) ([]*model.User, error) {
	oids := objectIDs(ids)
	if len(oids) == 0 {
		return []*model.User{}, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": oids}})
}

func (r *mongoUserRepository) find(ctx context.Context, filter bson.M) ([]*model.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	users := []*model.User{}
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	for _, u := range users {
		u.Normalize()
	}
	return users, nil
}

func (r *mongoUserRepository) Update(ctx context.Context, u *model.User) error {
	oid, err := objectID(u.ID)
	if err != nil {
		return err
	}
	u.UpdatedAt = time.Now().UTC()
	res, err := r.coll.UpdateOne(ctx, byID(oid), bson.M{"$set": bson.M{
		"username":  u.Username,
		"email":     u.Email,
		"updatedAt": u.UpdatedAt,
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoUserRepository) Delete(ctx context.Context, id string) (*model.User, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var u model.User
	if err := r.coll.FindOneAndDelete(ctx, byID(oid)).Decode(&u); err != nil {
		return nil, mongoErr(err)
	}
	u.Normalize()
	return &u, nil
}

func (r *mongoUserRepository) AddFriend(ctx context.Context, userID, friendID string) (*model.User, error) {
	return r.findAndUpdate(ctx, userID, bson.M{
		"$addToSet": bson.M{"friends": refValue(friendID)},
		"$set":      bson.M{"updatedAt": time.Now().UTC()},
	})
}

func (r *mongoUserRepository) RemoveFriend(ctx context.Context, userID, friendID string) (*model.User, error) {
	return r.findAndUpdate(ctx, userID, bson.M{
		"$pull": bson.M{"friends": refValue(friendID)},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	})
}

func (r *mongoUserRepository) AppendThought(ctx context.Context, userID, thoughtID string) error {
	oid, err := objectID(userID)
	if err != nil {
		return err
	}
	res, err := r.coll.UpdateOne(ctx, byID(oid), bson.M{
		"$addToSet": bson.M{"thoughts": refValue(thoughtID)},
		"$set":      bson.M{"updatedAt": time.Now().UTC()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoUserRepository) UnlinkThought(ctx context.Context, thoughtID string) ([]string, error) {
	filter := bson.M{"thoughts": refValue(thoughtID)}
	cur, err := r.coll.Find(ctx, filter, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	var owners []struct {
		ID string `bson:"_id"`
	}
	if err := cur.All(ctx, &owners); err != nil {
		return nil, err
	}
	if len(owners) == 0 {
		return nil, nil
	}
	if _, err := r.coll.UpdateMany(ctx, filter, bson.M{"$pull": bson.M{"thoughts": refValue(thoughtID)}}); err != nil {
		return nil, err
	}
	ids := make([]string, len(owners))
	for i, o := range owners {
		ids[i] = o.ID
	}
	return ids, nil
}

func (r *mongoUserRepository) DeleteAll(ctx context.Context) error {
	_, err := r.coll.DeleteMany(ctx, bson.M{})
	return err
}

func (r *mongoUserRepository) findAndUpdate(ctx context.Context, userID string, update bson.M) (*model.User, error) {
	oid, err := objectID(userID)
	if err != nil {
		return nil, err
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var u model.User
	if err := r.coll.FindOneAndUpdate(ctx, byID(oid), update, opts).Decode(&u); err != nil {
		return nil, mongoErr(err)
	}
	u.Normalize()
	return &u, nil
}

func mongoErr(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}
