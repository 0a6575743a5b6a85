// Package task は所有者単位のタスク管理を提供する。
// すべての操作は呼び出し元ユーザーのIDでクエリ層から絞り込まれる。
package task

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/taskman/internal/metrics"
	"github.com/hitoshi/taskman/internal/model"
	"github.com/hitoshi/taskman/internal/repository"
	"github.com/hitoshi/taskman/internal/validation"
)

const (
	// missingFieldsMessage は必須項目が欠けている場合のエラーメッセージ。
	missingFieldsMessage = "Missing required fields"
	// markupMessage はいずれかの項目にHTMLマークアップが含まれている場合のエラーメッセージ。
	markupMessage = "Task fields must not contain HTML markup"
)

// objectIDHexLength はMongoDBのObjectIdの16進表現の長さ。
const objectIDHexLength = 24

// Input はタスクの作成・更新で受け付ける編集可能フィールド。
// 更新は部分更新ではなく5項目すべての置き換えになる。
// 値は受け取ったまま保存する。maxはtasksテーブルの列長に合わせている。
type Input struct {
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description"`
	Frequency   string `json:"frequency" validate:"required,max=32"`
	DueDate     string `json:"due_date" validate:"required,max=32"`
	DueTime     string `json:"due_time" validate:"required,max=32"`
}

// MarkupChecker はテキストにHTMLマークアップが含まれているかを判定する。
type MarkupChecker interface {
	ContainsMarkup(text string) bool
}

// Service はタスクに関するビジネスロジックを提供する。
type Service struct {
	repo      repository.TaskRepository
	markup    MarkupChecker
	metrics   metrics.MetricsCollector
	now       func() time.Time
}

// NewService はServiceを生成する。mcがnilの場合はメトリクスを記録しない。
func NewService(repo repository.TaskRepository, markup MarkupChecker, mc metrics.MetricsCollector) *Service {
	if mc == nil {
		mc = metrics.Nop{}
	}
	return &Service{
		repo:      repo,
		markup:    markup,
		metrics:   mc,
		now:       time.Now,
	}
}

// List は所有者の全タスクを作成日時の昇順で返す。
// frequencyが空でなければ大文字小文字を区別せず一致するタスクのみ返す。
func (s *Service) List(ctx context.Context, ownerID, frequency string) ([]*model.Task, error) {
	tasks, err := s.repo.ListByUserID(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	frequency = strings.TrimSpace(frequency)
	if frequency == "" {
		return tasks, nil
	}

	filtered := make([]*model.Task, 0, len(tasks))
	for _, t := range tasks {
		if strings.EqualFold(t.Frequency, frequency) {
			filtered = append(filtered, t)
		}
	}
	return filtered, nil
}

// Create はタスクを作成し、新しいタスクIDを返す。
func (s *Service) Create(ctx context.Context, ownerID string, in Input) (string, error) {
	if err := s.validate(&in); err != nil {
		return "", err
	}

	task := &model.Task{
		ID:          uuid.NewString(),
		UserID:      ownerID,
		Title:       in.Title,
		Description: in.Description,
		Frequency:   in.Frequency,
		DueDate:     in.DueDate,
		DueTime:     in.DueTime,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.repo.Create(ctx, task); err != nil {
		return "", fmt.Errorf("failed to create task: %w", err)
	}

	s.metrics.RecordTaskOperation("create")
	slog.Info("task created",
		slog.String("user_id", ownerID),
		slog.String("task_id", task.ID),
	)
	return task.ID, nil
}

// Update はIDと所有者が一致するタスクの編集可能フィールドを置き換える。
// 存在しない場合と他ユーザーのタスクの場合はどちらもTaskNotFoundErrorになる。
func (s *Service) Update(ctx context.Context, ownerID, taskID string, in Input) error {
	if err := s.validate(&in); err != nil {
		return err
	}

	id, ok := normalizeID(taskID)
	if !ok {
		return model.NewTaskNotFoundError()
	}

	matched, err := s.repo.UpdateByIDAndOwner(ctx, &model.Task{
		ID:          id,
		UserID:      ownerID,
		Title:       in.Title,
		Description: in.Description,
		Frequency:   in.Frequency,
		DueDate:     in.DueDate,
		DueTime:     in.DueTime,
	})
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	if !matched {
		return model.NewTaskNotFoundError()
	}

	s.metrics.RecordTaskOperation("update")
	slog.Info("task updated",
		slog.String("user_id", ownerID),
		slog.String("task_id", id),
	)
	return nil
}

// Delete はIDと所有者が一致するタスクを削除する。
// 存在しない場合と他ユーザーのタスクの場合はどちらもTaskNotFoundErrorになる。
func (s *Service) Delete(ctx context.Context, ownerID, taskID string) error {
	id, ok := normalizeID(taskID)
	if !ok {
		return model.NewTaskNotFoundError()
	}

	matched, err := s.repo.DeleteByIDAndOwner(ctx, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if !matched {
		return model.NewTaskNotFoundError()
	}

	s.metrics.RecordTaskOperation("delete")
	slog.Info("task deleted",
		slog.String("user_id", ownerID),
		slog.String("task_id", id),
	)
	return nil
}

// validate は必須項目と長さを検証し、マークアップを含む項目があれば拒否する。
func (s *Service) validate(in *Input) error {
	if err := validation.Struct(in, missingFieldsMessage); err != nil {
		return err
	}
	for _, v := range []string{in.Title, in.Description, in.Frequency, in.DueDate, in.DueTime} {
		if s.markup.ContainsMarkup(v) {
			return model.NewValidationError(markupMessage)
		}
	}
	return nil
}

// normalizeID はタスクIDを正規形に変換する。
// UUIDのほか、以前のバージョンがMongoDBに作成したタスクのObjectId（24桁の16進数）を受け付ける。
func normalizeID(taskID string) (string, bool) {
	taskID = strings.TrimSpace(taskID)
	if parsed, err := uuid.Parse(taskID); err == nil {
		return parsed.String(), true
	}
	if len(taskID) == objectIDHexLength {
		if _, err := hex.DecodeString(taskID); err == nil {
			return strings.ToLower(taskID), true
		}
	}
	return "", false
}
