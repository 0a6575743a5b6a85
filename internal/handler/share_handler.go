package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/taskman/internal/middleware"
	"github.com/hitoshi/taskman/internal/model"
)

// TaskSharer はタスク共有メールを送信する。
type TaskSharer interface {
	ShareTask(ctx context.Context, senderEmail, to string, snapshot *model.TaskSnapshot) (bool, error)
}

// ShareHandler はタスク共有のHTTPハンドラー。
type ShareHandler struct {
	sharer TaskSharer
}

// NewShareHandler はShareHandlerを生成する。
func NewShareHandler(sharer TaskSharer) *ShareHandler {
	return &ShareHandler{sharer: sharer}
}

// shareTaskRequest はタスク共有のリクエストボディ。
// タスクの内容はクライアントから送られたものをそのまま使う。
type shareTaskRequest struct {
	To   string              `json:"to"`
	Task *model.TaskSnapshot `json:"task"`
}

// ShareTask はタスクの内容をメールで送信する。
// POST /share_task
func (h *ShareHandler) ShareTask(w http.ResponseWriter, r *http.Request) {
	user := currentUser(w, r)
	if user == nil {
		return
	}

	var req shareTaskRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	sent, err := h.sharer.ShareTask(r.Context(), user.Email, req.To, req.Task)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if !sent {
		middleware.WriteErrorResponse(w, http.StatusInternalServerError, model.NewMailDeliveryFailedError())
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "Email sent successfully"})
}
