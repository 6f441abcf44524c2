package repository

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/d60-Lab/social-graph/internal/model"
)

// MongoDB documents key on ObjectIDs and reference each other by ObjectID,
// the layout mongoose-era databases already use. The model keeps ids as hex
// strings: writes and filters convert here, and reads rely on the driver
// decoding an ObjectID into a string field as its hex form.

type userDoc struct {
	ID        primitive.ObjectID   `bson:"_id"`
	Username  string               `bson:"username"`
	Email     string               `bson:"email"`
	Thoughts  []primitive.ObjectID `bson:"thoughts"`
	Friends   []primitive.ObjectID `bson:"friends"`
	CreatedAt time.Time            `bson:"createdAt"`
	UpdatedAt time.Time            `bson:"updatedAt"`
}

type thoughtDoc struct {
	ID          primitive.ObjectID `bson:"_id"`
	ThoughtText string             `bson:"thoughtText"`
	Username    string             `bson:"username"`
	Reactions   []model.Reaction   `bson:"reactions"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

// objectID parses a document key. A malformed id cannot name a stored
// document, so it reads as ErrNotFound.
func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, ErrNotFound
	}
	return oid, nil
}

// newObjectID returns the key for a new document, honouring a preset hex id.
func newObjectID(id string) (primitive.ObjectID, error) {
	if id == "" {
		return primitive.NewObjectID(), nil
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return oid, nil
}

// objectIDs parses ids, dropping the malformed ones.
func objectIDs(ids []string) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			out = append(out, oid)
		}
	}
	return out
}

func byID(oid primitive.ObjectID) bson.M { return bson.M{"_id": oid} }

// refValue is the array element stored for a reference id. Ids that are not
// ObjectIDs are kept verbatim so $pull can still remove them.
func refValue(id string) any {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return oid
	}
	return id
}

// anyIDForm matches an embedded id written either as a string or, by older
// clients, as an ObjectID.
func anyIDForm(id string) any {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return bson.M{"$in": bson.A{id, oid}}
	}
	return id
}
