package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/hitoshi/taskman/internal/model"
)

// mongoUser はusersコレクションに書き込むドキュメント表現。
// パスワードを持たないGoogleログインユーザーはpasswordがnullになる。
type mongoUser struct {
	ID            string    `bson:"_id"`
	Username      string    `bson:"username"`
	Email         string    `bson:"email"`
	Password      *string   `bson:"password"`
	LoginProvider string    `bson:"login_provider"`
	Picture       string    `bson:"picture,omitempty"`
	CreatedAt     time.Time `bson:"created_at"`
}

// storedUser はusersコレクションから読み込むドキュメント表現。
// 以前のバージョンが作成したObjectIdの_id、バイナリのpassword、
// login_providerとcreated_atのないドキュメントも読み込める。
type storedUser struct {
	ID            documentID    `bson:"_id"`
	Username      string        `bson:"username"`
	Email         string        `bson:"email"`
	Password      bson.RawValue `bson:"password"`
	LoginProvider string        `bson:"login_provider"`
	Picture       string        `bson:"picture"`
	CreatedAt     time.Time     `bson:"created_at"`
}

func (d *storedUser) toModel() *model.User {
	password := passwordFromRaw(d.Password)
	provider := d.LoginProvider
	if provider == "" && password != nil {
		provider = model.LoginProviderPassword
	}
	return &model.User{
		ID:            string(d.ID),
		Username:      d.Username,
		Email:         d.Email,
		PasswordHash:  password,
		LoginProvider: provider,
		Picture:       d.Picture,
		CreatedAt:     d.CreatedAt,
	}
}

// MongoUserRepo はMongoDBを使用したユーザーリポジトリ。
type MongoUserRepo struct {
	coll *mongo.Collection
}

// NewMongoUserRepo はMongoUserRepoを生成する。
func NewMongoUserRepo(db *mongo.Database) *MongoUserRepo {
	return &MongoUserRepo{coll: db.Collection("users")}
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *MongoUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	user, err := r.findOne(ctx, bson.M{"_id": idFilter(id)})
	if err != nil {
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}
	return user, nil
}

// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
func (r *MongoUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := r.findOne(ctx, bson.M{"email": email})
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	return user, nil
}

// Create はユーザーを作成する。
// emailのユニークインデックス違反はErrDuplicateEmailに変換する。
func (r *MongoUserRepo) Create(ctx context.Context, user *model.User) error {
	doc := &mongoUser{
		ID:            user.ID,
		Username:      user.Username,
		Email:         user.Email,
		Password:      user.PasswordHash,
		LoginProvider: user.LoginProvider,
		Picture:       user.Picture,
		CreatedAt:     user.CreatedAt,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (r *MongoUserRepo) findOne(ctx context.Context, filter bson.M) (*model.User, error) {
	var doc storedUser
	err := r.coll.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return doc.toModel(), nil
}

// compile-time interface check
var _ UserRepository = (*MongoUserRepo)(nil)
