package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/HammerMeetNail/odinbook/internal/models"
)

const friendshipsCollection = "friendships"

type friendshipDocument struct {
	ID          string    `bson:"_id"`
	RequestorID string    `bson:"requestor"`
	RequesteeID string    `bson:"requestee"`
	PairKey     string    `bson:"pair_key"`
	Status      string    `bson:"status"`
	CreatedAt   time.Time `bson:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at"`
}

func (d friendshipDocument) model() (*models.Friendship, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("parsing friendship id: %w", err)
	}
	requestor, err := uuid.Parse(d.RequestorID)
	if err != nil {
		return nil, fmt.Errorf("parsing requestor id: %w", err)
	}
	requestee, err := uuid.Parse(d.RequesteeID)
	if err != nil {
		return nil, fmt.Errorf("parsing requestee id: %w", err)
	}
	status := models.FriendshipStatus(d.Status)
	if !status.Valid() {
		return nil, fmt.Errorf("friendship %s: %w %q", d.ID, ErrUnknownStatus, d.Status)
	}
	return &models.Friendship{
		ID:          id,
		RequestorID: requestor,
		RequesteeID: requestee,
		Status:      status,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}, nil
}

type MongoFriendships struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewMongoFriendships(db *mongo.Database) *MongoFriendships {
	return &MongoFriendships{
		coll: db.Collection(friendshipsCollection),
		now:  mongoNow,
	}
}

// EnsureIndexes creates the unordered-pair uniqueness index and the listing index.
func (s *MongoFriendships) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "pair_key", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("friendships_pair_idx"),
		},
		{
			Keys: bson.D{{Key: "requestee", Value: 1}, {Key: "status", Value: 1}, {Key: "updated_at", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "requestor", Value: 1}, {Key: "status", Value: 1}, {Key: "updated_at", Value: -1}},
		},
	})
	if err != nil {
		return fmt.Errorf("creating friendship indexes: %w", err)
	}
	return nil
}

func (s *MongoFriendships) Create(ctx context.Context, requestorID, requesteeID uuid.UUID) (*models.Friendship, error) {
	now := s.now()
	doc := friendshipDocument{
		ID:          uuid.NewString(),
		RequestorID: requestorID.String(),
		RequesteeID: requesteeID.String(),
		PairKey:     models.PairKey(requestorID, requesteeID),
		Status:      string(models.FriendshipStatusPending),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicatePair
		}
		return nil, fmt.Errorf("inserting friendship: %w", err)
	}
	return doc.model()
}

func (s *MongoFriendships) GetByID(ctx context.Context, id uuid.UUID) (*models.Friendship, error) {
	return s.findOne(ctx, bson.M{"_id": id.String()}, "getting friendship")
}

func (s *MongoFriendships) FindByPair(ctx context.Context, a, b uuid.UUID) (*models.Friendship, error) {
	filter := bson.M{"$or": []bson.M{
		{"requestor": a.String(), "requestee": b.String()},
		{"requestor": b.String(), "requestee": a.String()},
	}}
	return s.findOne(ctx, filter, "finding friendship by pair")
}

func (s *MongoFriendships) UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.FriendshipStatus) (*models.Friendship, error) {
	var doc friendshipDocument
	err := s.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id.String(), "status": string(from)},
		bson.M{"$set": bson.M{"status": string(to), "updated_at": s.now()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("updating friendship status: %w", err)
	}
	return doc.model()
}

func (s *MongoFriendships) Delete(ctx context.Context, id uuid.UUID) (*models.Friendship, error) {
	var doc friendshipDocument
	err := s.coll.FindOneAndDelete(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("deleting friendship: %w", err)
	}
	return doc.model()
}

func (s *MongoFriendships) Count(ctx context.Context, filter models.FriendshipFilter) (int, error) {
	count, err := s.coll.CountDocuments(ctx, friendshipBSON(filter))
	if err != nil {
		return 0, fmt.Errorf("counting friendships: %w", err)
	}
	return int(count), nil
}

func (s *MongoFriendships) Find(ctx context.Context, filter models.FriendshipFilter, skip, limit int) ([]models.Friendship, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "updated_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(skip)).
		SetLimit(int64(limit))

	cursor, err := s.coll.Find(ctx, friendshipBSON(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("listing friendships: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []friendshipDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decoding friendships: %w", err)
	}

	friendships := make([]models.Friendship, 0, len(docs))
	for _, doc := range docs {
		friendship, err := doc.model()
		if err != nil {
			return nil, err
		}
		friendships = append(friendships, *friendship)
	}
	return friendships, nil
}

func (s *MongoFriendships) findOne(ctx context.Context, filter bson.M, op string) (*models.Friendship, error) {
	var doc friendshipDocument
	err := s.coll.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return doc.model()
}

func friendshipBSON(filter models.FriendshipFilter) bson.M {
	m := bson.M{}
	if filter.RequestorID != uuid.Nil {
		m["requestor"] = filter.RequestorID.String()
	}
	if filter.RequesteeID != uuid.Nil {
		m["requestee"] = filter.RequesteeID.String()
	}
	if filter.Participant != uuid.Nil {
		id := filter.Participant.String()
		m["$or"] = []bson.M{{"requestor": id}, {"requestee": id}}
	}
	if filter.Status != "" {
		m["status"] = string(filter.Status)
	}
	return m
}

// mongoNow truncates to the millisecond precision BSON dates carry.
func mongoNow() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
