package repository

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/hitoshi/taskman/internal/database"
	"github.com/hitoshi/taskman/internal/model"
)

// setupMongo はインデックス作成済みのテスト用データベースを返す。
// TEST_MONGO_URI に接続できない場合はスキップする。
func setupMongo(t *testing.T) *mongo.Database {
	t.Helper()

	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}

	ctx := context.Background()
	client, db, err := database.OpenMongo(ctx, uri, "taskman_repository_test", 2*time.Second)
	if err != nil {
		t.Skipf("テスト用MongoDBに接続できません（スキップ）: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})
	if err := db.Drop(ctx); err != nil {
		t.Fatalf("クリーンアップに失敗: %v", err)
	}
	if err := database.EnsureMongoIndexes(ctx, db); err != nil {
		t.Fatalf("インデックス作成に失敗: %v", err)
	}
	return db
}

func TestMongoRepos_ImplementInterfaces(t *testing.T) {
	var _ UserRepository = (*MongoUserRepo)(nil)
	var _ TaskRepository = (*MongoTaskRepo)(nil)
}

func TestMongoUserRepo_CreateFindAndDuplicate(t *testing.T) {
	db := setupMongo(t)
	repo := NewMongoUserRepo(db)
	ctx := context.Background()

	user := newTestUser("m@x.io", nil)
	if err := repo.Create(ctx, user); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := repo.FindByEmail(ctx, "m@x.io")
	if err != nil {
		t.Fatalf("FindByEmail failed: %v", err)
	}
	if got == nil || got.ID != user.ID {
		t.Fatalf("FindByEmail = %+v, want id %q", got, user.ID)
	}
	if got.HasPassword() {
		t.Error("HasPassword() = true, want false for google user")
	}

	byID, err := repo.FindByID(ctx, user.ID)
	if err != nil || byID == nil {
		t.Fatalf("FindByID = (%+v, %v)", byID, err)
	}

	none, err := repo.FindByID(ctx, "missing")
	if err != nil || none != nil {
		t.Errorf("FindByID(missing) = (%+v, %v), want (nil, nil)", none, err)
	}

	hash := "h"
	if err := repo.Create(ctx, newTestUser("m@x.io", &hash)); !errors.Is(err, ErrDuplicateEmail) {
		t.Errorf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestMongoTaskRepo_OwnerScopedCRUD(t *testing.T) {
	db := setupMongo(t)
	repo := NewMongoTaskRepo(db)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Millisecond)
	first := newTestTask("owner", "first", base)
	second := newTestTask("owner", "second", base.Add(time.Second))
	for _, task := range []*model.Task{second, first} {
		if err := repo.Create(ctx, task); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	tasks, err := repo.ListByUserID(ctx, "owner")
	if err != nil {
		t.Fatalf("ListByUserID failed: %v", err)
	}
	if len(tasks) != 2 || tasks[0].Title != "first" {
		t.Fatalf("ListByUserID = %+v, want [first, second]", tasks)
	}

	others, _ := repo.ListByUserID(ctx, "intruder")
	if len(others) != 0 {
		t.Errorf("len(others) = %d, want 0", len(others))
	}

	hijack := *first
	hijack.UserID = "intruder"
	if ok, err := repo.UpdateByIDAndOwner(ctx, &hijack); err != nil || ok {
		t.Errorf("UpdateByIDAndOwner(intruder) = (%v, %v), want (false, nil)", ok, err)
	}
	if ok, err := repo.DeleteByIDAndOwner(ctx, first.ID, "intruder"); err != nil || ok {
		t.Errorf("DeleteByIDAndOwner(intruder) = (%v, %v), want (false, nil)", ok, err)
	}

	// 同じ値での更新も一致として扱う
	if ok, err := repo.UpdateByIDAndOwner(ctx, first); err != nil || !ok {
		t.Errorf("UpdateByIDAndOwner(same values) = (%v, %v), want (true, nil)", ok, err)
	}

	if ok, err := repo.DeleteByIDAndOwner(ctx, first.ID, "owner"); err != nil || !ok {
		t.Errorf("DeleteByIDAndOwner(owner) = (%v, %v), want (true, nil)", ok, err)
	}
}

func TestMongoRepos_ReadLegacyObjectIDDocuments(t *testing.T) {
	db := setupMongo(t)
	users := NewMongoUserRepo(db)
	tasks := NewMongoTaskRepo(db)
	ctx := context.Background()

	// 以前のバージョンの形式: _idはObjectId、passwordはバイナリのbcryptハッシュ
	userOID := primitive.NewObjectID()
	const hash = "$2b$12$abcdefghijklmnopqrstuuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0"
	if _, err := db.Collection("users").InsertOne(ctx, bson.M{
		"_id":      userOID,
		"username": "legacy",
		"email":    "legacy@x.io",
		"password": []byte(hash),
	}); err != nil {
		t.Fatalf("InsertOne(user) failed: %v", err)
	}

	got, err := users.FindByEmail(ctx, "legacy@x.io")
	if err != nil || got == nil {
		t.Fatalf("FindByEmail = (%+v, %v)", got, err)
	}
	if got.ID != userOID.Hex() {
		t.Errorf("ID = %q, want %q", got.ID, userOID.Hex())
	}
	if got.PasswordHash == nil || *got.PasswordHash != hash {
		t.Errorf("PasswordHash = %v, want %q", got.PasswordHash, hash)
	}
	if got.LoginProvider != model.LoginProviderPassword {
		t.Errorf("LoginProvider = %q, want %q", got.LoginProvider, model.LoginProviderPassword)
	}

	byID, err := users.FindByID(ctx, userOID.Hex())
	if err != nil || byID == nil || byID.Email != "legacy@x.io" {
		t.Fatalf("FindByID(hex) = (%+v, %v)", byID, err)
	}

	taskOID := primitive.NewObjectID()
	if _, err := db.Collection("tasks").InsertOne(ctx, bson.M{
		"_id":         taskOID,
		"user_id":     userOID.Hex(),
		"title":       "Water plants",
		"description": "",
		"frequency":   "weekly",
		"due_date":    "2023-05-01",
		"due_time":    "08:00",
		"created_at":  time.Now().UTC(),
	}); err != nil {
		t.Fatalf("InsertOne(task) failed: %v", err)
	}

	list, err := tasks.ListByUserID(ctx, userOID.Hex())
	if err != nil {
		t.Fatalf("ListByUserID failed: %v", err)
	}
	if len(list) != 1 || list[0].ID != taskOID.Hex() || list[0].Title != "Water plants" {
		t.Fatalf("ListByUserID = %+v, want the legacy task", list)
	}

	updated := *list[0]
	updated.Title = "Water all plants"
	if ok, err := tasks.UpdateByIDAndOwner(ctx, &updated); err != nil || !ok {
		t.Errorf("UpdateByIDAndOwner(legacy) = (%v, %v), want (true, nil)", ok, err)
	}
	if ok, err := tasks.DeleteByIDAndOwner(ctx, taskOID.Hex(), "someone-else"); err != nil || ok {
		t.Errorf("DeleteByIDAndOwner(other owner) = (%v, %v), want (false, nil)", ok, err)
	}
	if ok, err := tasks.DeleteByIDAndOwner(ctx, taskOID.Hex(), userOID.Hex()); err != nil || !ok {
		t.Errorf("DeleteByIDAndOwner(legacy) = (%v, %v), want (true, nil)", ok, err)
	}
}
