package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/taskman/internal/task"
)

// TaskServiceInterface はタスクハンドラーが必要とするサービスインターフェース。
type TaskServiceInterface interface {
	// ListTasks は所有者のタスク一覧を返す。frequencyが空でなければ絞り込む。
	ListTasks(ctx context.Context, ownerID, frequency string) ([]taskResponse, error)
	// CreateTask はタスクを作成し、タスクIDを返す。
	CreateTask(ctx context.Context, ownerID string, in task.Input) (string, error)
	// UpdateTask はタスクの編集可能フィールドを置き換える。
	UpdateTask(ctx context.Context, ownerID, taskID string, in task.Input) error
	// DeleteTask はタスクを削除する。
	DeleteTask(ctx context.Context, ownerID, taskID string) error
}

// TaskHandler はタスク管理のHTTPハンドラー。
type TaskHandler struct {
	service TaskServiceInterface
}

// NewTaskHandler はTaskHandlerを生成する。
func NewTaskHandler(service TaskServiceInterface) *TaskHandler {
	return &TaskHandler{service: service}
}

// taskResponse はタスクのAPIレスポンス。
// 既存クライアントとの互換のためIDのキーは_idとする。
type taskResponse struct {
	ID          string `json:"_id"`
	UserID      string `json:"user_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Frequency   string `json:"frequency"`
	DueDate     string `json:"due_date"`
	DueTime     string `json:"due_time"`
	CreatedAt   string `json:"created_at"`
}

// taskListResponse はタスク一覧のAPIレスポンス。
type taskListResponse struct {
	Tasks []taskResponse `json:"tasks"`
}

// createTaskResponse はタスク作成のAPIレスポンス。
type createTaskResponse struct {
	Message string `json:"message"`
	TaskID  string `json:"task_id"`
}

// ListTasks は認証済みユーザーのタスク一覧を返す。
// GET /tasks?frequency=
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	user := currentUser(w, r)
	if user == nil {
		return
	}

	tasks, err := h.service.ListTasks(r.Context(), user.ID, r.URL.Query().Get("frequency"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if tasks == nil {
		tasks = []taskResponse{}
	}

	writeJSON(w, http.StatusOK, taskListResponse{Tasks: tasks})
}

// CreateTask はタスクを作成する。
// POST /tasks
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	user := currentUser(w, r)
	if user == nil {
		return
	}

	var req task.Input
	if !decodeJSON(w, r, &req) {
		return
	}

	taskID, err := h.service.CreateTask(r.Context(), user.ID, req)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, createTaskResponse{
		Message: "Task created",
		TaskID:  taskID,
	})
}

// UpdateTask はタスクを更新する。
// PUT /update_task/{id}
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	user := currentUser(w, r)
	if user == nil {
		return
	}

	var req task.Input
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.service.UpdateTask(r.Context(), user.ID, chi.URLParam(r, "id"), req); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "Task updated successfully"})
}

// DeleteTask はタスクを削除する。
// DELETE /delete_task/{id}
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	user := currentUser(w, r)
	if user == nil {
		return
	}

	if err := h.service.DeleteTask(r.Context(), user.ID, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "Task deleted successfully"})
}
