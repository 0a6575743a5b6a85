package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoDBのコレクション名。
const (
	UsersCollection = "users"
	TasksCollection = "tasks"
)

// OpenMongo はMongoDBへ接続し、プライマリへのPingで疎通を確認したうえでDatabaseを返す。
// 返されたClientは呼び出し側でDisconnectすること。
func OpenMongo(ctx context.Context, uri, dbName string, timeout time.Duration) (*mongo.Client, *mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetServerSelectionTimeout(timeout))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect mongo: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	return client, client.Database(dbName), nil
}

// EnsureMongoIndexes はusers.emailのユニークインデックスと
// tasksの所有者別一覧用インデックスを作成する。既存の場合は何もしない。
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(UsersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("users_email_key"),
	})
	if err != nil {
		return fmt.Errorf("failed to create users email index: %w", err)
	}

	_, err = db.Collection(TasksCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: 1}},
		Options: options.Index().SetName("idx_tasks_user_id_created_at"),
	})
	if err != nil {
		return fmt.Errorf("failed to create tasks user_id index: %w", err)
	}

	return nil
}

// MongoPinger は*mongo.ClientをPingContextで疎通確認できるようにする。
type MongoPinger struct {
	Client *mongo.Client
}

// PingContext はプライマリへPingを送る。
func (p MongoPinger) PingContext(ctx context.Context) error {
	return p.Client.Ping(ctx, readpref.Primary())
}
