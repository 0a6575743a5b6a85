// Package repository はデータ永続化のインターフェースを定義する。
// 実装はPostgreSQL版（Postgres*Repo）とMongoDB版（Mongo*Repo）の2系統を持つ。
package repository

import (
	"context"
	"errors"

	"github.com/hitoshi/taskman/internal/model"
)

// ErrDuplicateEmail はメールアドレスの一意制約に違反した場合に返される。
var ErrDuplicateEmail = errors.New("repository: duplicate email")

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成する。
	// メールアドレスが既に登録されている場合はErrDuplicateEmailを返す。
	Create(ctx context.Context, user *model.User) error
}

// TaskRepository はタスクデータの永続化インターフェース。
// すべての操作は所有者IDで絞り込まれる。
type TaskRepository interface {
	// ListByUserID は指定ユーザーの全タスクを作成日時の昇順で返す。
	ListByUserID(ctx context.Context, userID string) ([]*model.Task, error)

	// Create はタスクを作成する。
	Create(ctx context.Context, task *model.Task) error

	// UpdateByIDAndOwner はIDと所有者が一致するタスクの編集可能フィールドを置き換える。
	// 一致するタスクがなければfalseを返す。
	UpdateByIDAndOwner(ctx context.Context, task *model.Task) (bool, error)

	// DeleteByIDAndOwner はIDと所有者が一致するタスクを削除する。
	// 一致するタスクがなければfalseを返す。
	DeleteByIDAndOwner(ctx context.Context, id, userID string) (bool, error)
}
