package model

import "time"

// Task は管理対象のタスクを表す。
// CreatorIDは認証済みユーザーのsubjectクレームから設定され、作成後は不変。
type Task struct {
	ID          string
	Title       string
	Description string
	Priority    string
	Status      string
	DueDate     *time.Time
	AssigneeID  string
	CreatorID   string
	Tags        []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TaskPatch はタスクの部分更新を表す。
// nilのフィールドは変更しない。updated_atは常に更新される。
type TaskPatch struct {
	Title       *string
	Description *string
	Priority    *string
	Status      *string
	DueDate     *time.Time
	AssigneeID  *string
	Tags        *[]string
}

// タスクフィールドのデフォルト値。
const (
	DefaultTaskPriority = "medium"
	DefaultTaskStatus   = "todo"
)
