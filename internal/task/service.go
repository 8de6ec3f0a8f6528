// Package task はタスクCRUDのビジネスロジックを提供する。
package task

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/taskdeck/internal/model"
	"github.com/hitoshi/taskdeck/internal/repository"
)

// CreateInput はタスク作成の入力を表す。
// CreatorIDは含まない。作成者は常に認証済みユーザーのIDを別引数で受け取る。
type CreateInput struct {
	Title       string
	Description string
	Priority    string
	Status      string
	DueDate     *time.Time
	AssigneeID  string
	Tags        []string
}

// TaskMetrics はタスク作成の記録に必要なインターフェース。nilを許容する。
type TaskMetrics interface {
	RecordTaskCreated()
}

// Service はタスク管理に関するビジネスロジックを提供する。
type Service struct {
	taskRepo repository.TaskRepository
	metrics  TaskMetrics
}

// NewService はServiceを生成する。metricsはnilでもよい。
func NewService(taskRepo repository.TaskRepository, metrics TaskMetrics) *Service {
	return &Service{
		taskRepo: taskRepo,
		metrics:  metrics,
	}
}

// Create は新規タスクを作成する。
// creatorIDには認証済みユーザーのIDを渡すこと。クライアント入力から設定してはならない。
// priority・statusが空の場合はデフォルト値（medium・todo）を設定する。
func (s *Service) Create(ctx context.Context, creatorID string, input CreateInput) (*model.Task, error) {
	if input.Title == "" {
		return nil, model.NewTitleRequiredError()
	}

	priority := input.Priority
	if priority == "" {
		priority = model.DefaultTaskPriority
	}
	status := input.Status
	if status == "" {
		status = model.DefaultTaskStatus
	}
	tags := input.Tags
	if tags == nil {
		tags = []string{}
	}

	now := time.Now().UTC()
	task := &model.Task{
		ID:          uuid.New().String(),
		Title:       input.Title,
		Description: input.Description,
		Priority:    priority,
		Status:      status,
		DueDate:     input.DueDate,
		AssigneeID:  input.AssigneeID,
		CreatorID:   creatorID,
		Tags:        tags,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordTaskCreated()
	}

	return task, nil
}

// Get は指定IDのタスクを取得する。見つからない場合はTASK_NOT_FOUNDエラーを返す。
func (s *Service) Get(ctx context.Context, id string) (*model.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, model.NewTaskNotFoundError(id)
	}
	return task, nil
}

// List はタスク一覧と全件数を返す。
func (s *Service) List(ctx context.Context, skip, limit int) ([]*model.Task, int, error) {
	tasks, err := s.taskRepo.List(ctx, skip, limit)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.taskRepo.Count(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count tasks: %w", err)
	}

	return tasks, total, nil
}

// Update はタスクを部分更新する。nilでないフィールドのみ反映し、
// updated_atは常に更新する。見つからない場合はTASK_NOT_FOUNDエラーを返す。
func (s *Service) Update(ctx context.Context, id string, patch *model.TaskPatch) (*model.Task, error) {
	task, err := s.taskRepo.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, model.NewTaskNotFoundError(id)
	}
	return task, nil
}

// Delete は指定IDのタスクを削除する。見つからない場合はTASK_NOT_FOUNDエラーを返す。
func (s *Service) Delete(ctx context.Context, id string) error {
	deleted, err := s.taskRepo.DeleteByID(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return model.NewTaskNotFoundError(id)
	}
	return nil
}
