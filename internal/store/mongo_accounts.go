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

const accountsCollection = "accounts"

type accountDocument struct {
	ID            string    `bson:"_id"`
	FirstName     string    `bson:"first_name"`
	LastName      string    `bson:"last_name"`
	Email         string    `bson:"email"`
	PasswordHash  string    `bson:"password_hash"`
	FriendshipIDs []string  `bson:"friendship_ids"`
	CreatedAt     time.Time `bson:"created_at"`
	UpdatedAt     time.Time `bson:"updated_at"`
}

func (d accountDocument) model() (*models.Account, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("parsing account id: %w", err)
	}
	account := &models.Account{
		ID:            id,
		FirstName:     d.FirstName,
		LastName:      d.LastName,
		Email:         d.Email,
		PasswordHash:  d.PasswordHash,
		FriendshipIDs: make([]uuid.UUID, 0, len(d.FriendshipIDs)),
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
	for _, raw := range d.FriendshipIDs {
		fid, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("parsing friendship id: %w", err)
		}
		account.FriendshipIDs = append(account.FriendshipIDs, fid)
	}
	return account, nil
}

type MongoAccounts struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewMongoAccounts(db *mongo.Database) *MongoAccounts {
	return &MongoAccounts{
		coll: db.Collection(accountsCollection),
		now:  mongoNow,
	}
}

func (s *MongoAccounts) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("accounts_email_key"),
	})
	if err != nil {
		return fmt.Errorf("creating account indexes: %w", err)
	}
	return nil
}

func (s *MongoAccounts) Create(ctx context.Context, params models.CreateAccountParams) (*models.Account, error) {
	now := s.now()
	doc := accountDocument{
		ID:            uuid.NewString(),
		FirstName:     params.FirstName,
		LastName:      params.LastName,
		Email:         params.Email,
		PasswordHash:  params.PasswordHash,
		FriendshipIDs: []string{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("inserting account: %w", err)
	}
	return doc.model()
}

func (s *MongoAccounts) GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	return s.findOne(ctx, bson.M{"_id": id.String()}, "getting account by id")
}

func (s *MongoAccounts) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	return s.findOne(ctx, bson.M{"email": email}, "getting account by email")
}

func (s *MongoAccounts) GetSummaries(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.AccountSummary, error) {
	summaries := make(map[uuid.UUID]models.AccountSummary, len(ids))
	if len(ids) == 0 {
		return summaries, nil
	}

	raw := make([]string, 0, len(ids))
	for _, id := range ids {
		raw = append(raw, id.String())
	}

	cursor, err := s.coll.Find(ctx,
		bson.M{"_id": bson.M{"$in": raw}},
		options.Find().SetProjection(bson.M{"first_name": 1, "last_name": 1}),
	)
	if err != nil {
		return nil, fmt.Errorf("listing account summaries: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []accountDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decoding account summaries: %w", err)
	}
	for _, doc := range docs {
		id, err := uuid.Parse(doc.ID)
		if err != nil {
			return nil, fmt.Errorf("parsing account id: %w", err)
		}
		summaries[id] = models.AccountSummary{ID: id, FirstName: doc.FirstName, LastName: doc.LastName}
	}
	return summaries, nil
}

func (s *MongoAccounts) AddFriendship(ctx context.Context, accountID, friendshipID uuid.UUID) error {
	result, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": accountID.String()},
		bson.M{
			"$addToSet": bson.M{"friendship_ids": friendshipID.String()},
			"$set":      bson.M{"updated_at": s.now()},
		},
	)
	if err != nil {
		return fmt.Errorf("adding friendship to account: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoAccounts) RemoveFriendship(ctx context.Context, accountID, friendshipID uuid.UUID) error {
	_, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": accountID.String()},
		bson.M{
			"$pull": bson.M{"friendship_ids": friendshipID.String()},
			"$set":  bson.M{"updated_at": s.now()},
		},
	)
	if err != nil {
		return fmt.Errorf("removing friendship from account: %w", err)
	}
	return nil
}

func (s *MongoAccounts) findOne(ctx context.Context, filter bson.M, op string) (*models.Account, error) {
	var doc accountDocument
	err := s.coll.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return doc.model()
}
