// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/taskdeck/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// Create はユーザーを作成する。
	// メールアドレスが既に存在する場合はmodel.APIError（DUPLICATE_EMAIL）を返す。
	Create(ctx context.Context, user *model.User) error

	// FindByEmail は指定メールアドレスのユーザーを取得する（完全一致、大文字小文字を区別）。
	// 見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)
}

// TaskRepository はタスクデータの永続化インターフェース。
type TaskRepository interface {
	// Create はタスクを作成する。
	Create(ctx context.Context, task *model.Task) error

	// FindByID は指定IDのタスクを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Task, error)

	// List はタスク一覧をオフセットページネーションで取得する。
	// created_at昇順（挿入順）で返す。
	List(ctx context.Context, skip, limit int) ([]*model.Task, error)

	// Count は全タスク数を返す。
	Count(ctx context.Context) (int, error)

	// Update はnilでないフィールドのみを部分更新し、更新後のタスクを返す。
	// updated_atは常に更新する。対象が存在しない場合はnilを返す。
	Update(ctx context.Context, id string, patch *model.TaskPatch) (*model.Task, error)

	// DeleteByID は指定IDのタスクを削除する。削除が行われた場合はtrueを返す。
	DeleteByID(ctx context.Context, id string) (bool, error)
}
