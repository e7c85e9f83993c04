package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Seams for tests.
var (
	connectMongo = func(ctx context.Context, opts *options.ClientOptions) (*mongo.Client, error) {
		return mongo.Connect(ctx, opts)
	}
	pingMongo = func(ctx context.Context, client *mongo.Client) error {
		return client.Ping(ctx, readpref.Primary())
	}
	disconnectMongo = func(ctx context.Context, client *mongo.Client) error {
		return client.Disconnect(ctx)
	}
)

// MongoDB is the document store used when STORE_DRIVER=mongo.
type MongoDB struct {
	Client *mongo.Client
	name   string
}

func NewMongoDB(uri, database string, opts PoolOptions) (*MongoDB, error) {
	opts = opts.withDefaults()
	clientOpts := options.Client().
		ApplyURI(uri).
		SetAppName(applicationName).
		SetMaxPoolSize(uint64(opts.MaxConns)).
		SetMinPoolSize(uint64(opts.MinConns)).
		SetMaxConnIdleTime(opts.MaxConnIdleTime).
		SetServerSelectionTimeout(5 * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), opts.ConnectTimeout)
	defer cancel()

	client, err := connectMongo(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("connecting to mongo: %w", err)
	}

	if err := pingMongo(ctx, client); err != nil {
		_ = disconnectMongo(ctx, client)
		return nil, fmt.Errorf("pinging mongo: %w", err)
	}

	return &MongoDB{Client: client, name: database}, nil
}

func (m *MongoDB) Database() *mongo.Database {
	return m.Client.Database(m.name)
}

func (m *MongoDB) Close(ctx context.Context) error {
	if m.Client != nil {
		return disconnectMongo(ctx, m.Client)
	}
	return nil
}

func (m *MongoDB) Health(ctx context.Context) error {
	if m.Client == nil {
		return errors.New("mongo client not initialized")
	}
	return pingMongo(ctx, m.Client)
}
