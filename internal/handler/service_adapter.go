package handler

import (
	"context"
	"time"

	"github.com/hitoshi/taskman/internal/model"
	"github.com/hitoshi/taskman/internal/task"
)

// TaskServiceAdapter はtask.ServiceをTaskServiceInterfaceに適合させるアダプタ。
type TaskServiceAdapter struct {
	svc *task.Service
}

// NewTaskServiceAdapter はTaskServiceAdapterを生成する。
func NewTaskServiceAdapter(svc *task.Service) *TaskServiceAdapter {
	return &TaskServiceAdapter{svc: svc}
}

// ListTasks はタスク一覧を取得し、APIレスポンス形式に変換する。
func (a *TaskServiceAdapter) ListTasks(ctx context.Context, ownerID, frequency string) ([]taskResponse, error) {
	tasks, err := a.svc.List(ctx, ownerID, frequency)
	if err != nil {
		return nil, err
	}

	result := make([]taskResponse, len(tasks))
	for i, t := range tasks {
		result[i] = toTaskResponse(t)
	}
	return result, nil
}

// CreateTask はタスクを作成する。
func (a *TaskServiceAdapter) CreateTask(ctx context.Context, ownerID string, in task.Input) (string, error) {
	return a.svc.Create(ctx, ownerID, in)
}

// UpdateTask はタスクを更新する。
func (a *TaskServiceAdapter) UpdateTask(ctx context.Context, ownerID, taskID string, in task.Input) error {
	return a.svc.Update(ctx, ownerID, taskID, in)
}

// DeleteTask はタスクを削除する。
func (a *TaskServiceAdapter) DeleteTask(ctx context.Context, ownerID, taskID string) error {
	return a.svc.Delete(ctx, ownerID, taskID)
}

// toTaskResponse はmodel.TaskからAPIレスポンスに変換する。
func toTaskResponse(t *model.Task) taskResponse {
	return taskResponse{
		ID:          t.ID,
		UserID:      t.UserID,
		Title:       t.Title,
		Description: t.Description,
		Frequency:   t.Frequency,
		DueDate:     t.DueDate,
		DueTime:     t.DueTime,
		CreatedAt:   t.CreatedAt.UTC().Format(time.RFC3339),
	}
}
