package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/taskman/internal/model"
)

// PostgresTaskRepo はPostgreSQLを使用したタスクリポジトリ。
type PostgresTaskRepo struct {
	db *sql.DB
}

// NewPostgresTaskRepo はPostgresTaskRepoを生成する。
func NewPostgresTaskRepo(db *sql.DB) *PostgresTaskRepo {
	return &PostgresTaskRepo{db: db}
}

// ListByUserID は指定ユーザーの全タスクを作成日時の昇順で返す。
func (r *PostgresTaskRepo) ListByUserID(ctx context.Context, userID string) ([]*model.Task, error) {
	if !isUUID(userID) {
		return []*model.Task{}, nil
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, title, description, frequency, due_date, due_time, created_at
		 FROM tasks WHERE user_id = $1 ORDER BY created_at ASC, id ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks by user ID: %w", err)
	}
	defer rows.Close()

	tasks := []*model.Task{}
	for rows.Next() {
		t := &model.Task{}
		if err := rows.Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &t.Frequency, &t.DueDate, &t.DueTime, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tasks: %w", err)
	}

	return tasks, nil
}

// Create はタスクを作成する。
func (r *PostgresTaskRepo) Create(ctx context.Context, task *model.Task) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tasks (id, user_id, title, description, frequency, due_date, due_time, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		task.ID, task.UserID, task.Title, task.Description, task.Frequency, task.DueDate, task.DueTime, task.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert task: %w", err)
	}
	return nil
}

// UpdateByIDAndOwner はIDと所有者が一致するタスクの編集可能フィールドを置き換える。
// created_atとuser_idは変更しない。
func (r *PostgresTaskRepo) UpdateByIDAndOwner(ctx context.Context, task *model.Task) (bool, error) {
	if !isUUID(task.ID) || !isUUID(task.UserID) {
		return false, nil
	}
	result, err := r.db.ExecContext(ctx,
		`UPDATE tasks
		 SET title = $1, description = $2, frequency = $3, due_date = $4, due_time = $5
		 WHERE id = $6 AND user_id = $7`,
		task.Title, task.Description, task.Frequency, task.DueDate, task.DueTime, task.ID, task.UserID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update task: %w", err)
	}
	return affectedOne(result)
}

// DeleteByIDAndOwner はIDと所有者が一致するタスクを削除する。
func (r *PostgresTaskRepo) DeleteByIDAndOwner(ctx context.Context, id, userID string) (bool, error) {
	if !isUUID(id) || !isUUID(userID) {
		return false, nil
	}
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM tasks WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete task: %w", err)
	}
	return affectedOne(result)
}

func affectedOne(result sql.Result) (bool, error) {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// compile-time interface check
var _ TaskRepository = (*PostgresTaskRepo)(nil)
