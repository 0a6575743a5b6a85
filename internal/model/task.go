package model

import "time"

// Task はユーザーが登録したタスクを表す。
// UserIDは所有者ユーザーIDの文字列コピーで、参照整合性は持たない。
type Task struct {
	ID          string
	UserID      string
	Title       string
	Description string
	Frequency   string
	DueDate     string
	DueTime     string
	CreatedAt   time.Time
}

// TaskSnapshot はメール共有時にクライアントから送られるタスク内容。
// 保存済みタスクとの一致は検証しない。
type TaskSnapshot struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Frequency   string `json:"frequency"`
	DueDate     string `json:"due_date"`
	DueTime     string `json:"due_time"`
}
