package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hitoshi/taskman/internal/model"
)

// mongoTask はtasksコレクションのドキュメント表現。
// user_idはユーザーの_idの文字列表現で、ObjectIdのユーザーでは16進文字列になる。
type mongoTask struct {
	ID          documentID `bson:"_id"`
	UserID      string     `bson:"user_id"`
	Title       string     `bson:"title"`
	Description string     `bson:"description"`
	Frequency   string     `bson:"frequency"`
	DueDate     string     `bson:"due_date"`
	DueTime     string     `bson:"due_time"`
	CreatedAt   time.Time  `bson:"created_at"`
}

// MongoTaskRepo はMongoDBを使用したタスクリポジトリ。
type MongoTaskRepo struct {
	coll *mongo.Collection
}

// NewMongoTaskRepo はMongoTaskRepoを生成する。
func NewMongoTaskRepo(db *mongo.Database) *MongoTaskRepo {
	return &MongoTaskRepo{coll: db.Collection("tasks")}
}

// ListByUserID は指定ユーザーの全タスクを作成日時の昇順で返す。
func (r *MongoTaskRepo) ListByUserID(ctx context.Context, userID string) ([]*model.Task, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.coll.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks by user ID: %w", err)
	}

	var docs []mongoTask
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode tasks: %w", err)
	}

	tasks := make([]*model.Task, 0, len(docs))
	for i := range docs {
		d := &docs[i]
		tasks = append(tasks, &model.Task{
			ID:          string(d.ID),
			UserID:      d.UserID,
			Title:       d.Title,
			Description: d.Description,
			Frequency:   d.Frequency,
			DueDate:     d.DueDate,
			DueTime:     d.DueTime,
			CreatedAt:   d.CreatedAt,
		})
	}
	return tasks, nil
}

// Create はタスクを作成する。
func (r *MongoTaskRepo) Create(ctx context.Context, task *model.Task) error {
	doc := &mongoTask{
		ID:          documentID(task.ID),
		UserID:      task.UserID,
		Title:       task.Title,
		Description: task.Description,
		Frequency:   task.Frequency,
		DueDate:     task.DueDate,
		DueTime:     task.DueTime,
		CreatedAt:   task.CreatedAt,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert task: %w", err)
	}
	return nil
}

// UpdateByIDAndOwner はIDと所有者が一致するタスクの編集可能フィールドを置き換える。
// 値が変わらない更新でも一致していればtrueを返す。
func (r *MongoTaskRepo) UpdateByIDAndOwner(ctx context.Context, task *model.Task) (bool, error) {
	update := bson.M{"$set": bson.M{
		"title":       task.Title,
		"description": task.Description,
		"frequency":   task.Frequency,
		"due_date":    task.DueDate,
		"due_time":    task.DueTime,
	}}
	result, err := r.coll.UpdateOne(ctx, bson.M{"_id": idFilter(task.ID), "user_id": task.UserID}, update)
	if err != nil {
		return false, fmt.Errorf("failed to update task: %w", err)
	}
	return result.MatchedCount > 0, nil
}

// DeleteByIDAndOwner はIDと所有者が一致するタスクを削除する。
func (r *MongoTaskRepo) DeleteByIDAndOwner(ctx context.Context, id, userID string) (bool, error) {
	result, err := r.coll.DeleteOne(ctx, bson.M{"_id": idFilter(id), "user_id": userID})
	if err != nil {
		return false, fmt.Errorf("failed to delete task: %w", err)
	}
	return result.DeletedCount > 0, nil
}

// compile-time interface check
var _ TaskRepository = (*MongoTaskRepo)(nil)
