package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/taskdeck/internal/middleware"
	"github.com/hitoshi/taskdeck/internal/model"
	"github.com/hitoshi/taskdeck/internal/task"
)

// タスク一覧のページネーションのデフォルト値。
const (
	defaultTasksSkip  = 0
	defaultTasksLimit = 10
)

// TaskServiceInterface はタスクハンドラーが必要とするサービスインターフェース。
type TaskServiceInterface interface {
	// Create は新規タスクを作成する。creatorIDには認証済みユーザーのIDを渡す。
	Create(ctx context.Context, creatorID string, input task.CreateInput) (*model.Task, error)
	// Get は指定IDのタスクを取得する。
	Get(ctx context.Context, id string) (*model.Task, error)
	// List はタスク一覧と全件数を返す。
	List(ctx context.Context, skip, limit int) ([]*model.Task, int, error)
	// Update はタスクを部分更新する。
	Update(ctx context.Context, id string, patch *model.TaskPatch) (*model.Task, error)
	// Delete は指定IDのタスクを削除する。
	Delete(ctx context.Context, id string) error
}

// TaskHandler はタスク管理のHTTPハンドラー。
type TaskHandler struct {
	service TaskServiceInterface
}

// NewTaskHandler はTaskHandlerを生成する。
func NewTaskHandler(service TaskServiceInterface) *TaskHandler {
	return &TaskHandler{service: service}
}

// createTaskRequest はタスク作成リクエストのボディ。
type createTaskRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    string     `json:"priority"`
	Status      string     `json:"status"`
	DueDate     *time.Time `json:"due_date"`
	AssigneeID  string     `json:"assignee_id"`
	Tags        []string   `json:"tags"`
}

// updateTaskRequest はタスク部分更新リクエストのボディ。
// 省略（null）されたフィールドは変更しない。
type updateTaskRequest struct {
	Title       *string     `json:"title"`
	Description *string     `json:"description"`
	Priority    *string     `json:"priority"`
	Status      *string     `json:"status"`
	DueDate     *time.Time  `json:"due_date"`
	AssigneeID  *string     `json:"assignee_id"`
	Tags        *[]string   `json:"tags"`
}

// taskResponse はタスクのAPIレスポンス。
type taskResponse struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    string     `json:"priority"`
	Status      string     `json:"status"`
	DueDate     *time.Time `json:"due_date"`
	AssigneeID  string     `json:"assignee_id"`
	CreatorID   string     `json:"creator_id"`
	Tags        []string   `json:"tags"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// taskListResponse はタスク一覧のレスポンス。
type taskListResponse struct {
	Data  []taskResponse `json:"data"`
	Total int            `json:"total"`
	Skip  int            `json:"skip"`
	Limit int            `json:"limit"`
}

// taskDataResponse は単一タスクのレスポンス。
type taskDataResponse struct {
	Status string       `json:"status,omitempty"`
	Data   taskResponse `json:"data"`
}

// CreateTask は新規タスク作成を処理する。
// 作成者は常にトークンのsubjectクレームから設定する。
// POST /api/v1/tasks
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}

	var req createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidRequestError("リクエストボディの解析に失敗しました"))
		return
	}

	created, err := h.service.Create(r.Context(), userID, task.CreateInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Status:      req.Status,
		DueDate:     req.DueDate,
		AssigneeID:  req.AssigneeID,
		Tags:        req.Tags,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, taskDataResponse{
		Status: "success",
		Data:   toTaskResponse(created),
	})
}

// ListTasks はタスク一覧を取得する。
// GET /api/v1/tasks?skip=0&limit=10
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	skip, err := queryInt(r, "skip", defaultTasksSkip)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidRequestError("skipは0以上の整数を指定してください"))
		return
	}
	limit, err := queryInt(r, "limit", defaultTasksLimit)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidRequestError("limitは0以上の整数を指定してください"))
		return
	}

	tasks, total, err := h.service.List(r.Context(), skip, limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]taskResponse, len(tasks))
	for i, t := range tasks {
		results[i] = toTaskResponse(t)
	}

	writeJSON(w, http.StatusOK, taskListResponse{
		Data:  results,
		Total: total,
		Skip:  skip,
		Limit: limit,
	})
}

// GetTask はタスク詳細を取得する。
// GET /api/v1/tasks/{id}
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "id")

	found, err := h.service.Get(r.Context(), taskID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, taskDataResponse{Data: toTaskResponse(found)})
}

// UpdateTask はタスクを部分更新する。送信されたnullでないフィールドのみ反映する。
// PUT /api/v1/tasks/{id}
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "id")

	var req updateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidRequestError("リクエストボディの解析に失敗しました"))
		return
	}

	updated, err := h.service.Update(r.Context(), taskID, &model.TaskPatch{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Status:      req.Status,
		DueDate:     req.DueDate,
		AssigneeID:  req.AssigneeID,
		Tags:        req.Tags,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, taskDataResponse{
		Status: "success",
		Data:   toTaskResponse(updated),
	})
}

// DeleteTask はタスクを削除する。
// DELETE /api/v1/tasks/{id}
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), taskID); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "タスクを削除しました。",
	})
}

// queryInt はクエリパラメータを非負整数として解析する。未指定時はデフォルト値を返す。
func queryInt(r *http.Request, key string, defaultVal int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return defaultVal, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil || i < 0 {
		return 0, errInvalidQueryParam
	}
	return i, nil
}

var errInvalidQueryParam = model.NewInvalidRequestError("invalid query parameter")

// toTaskResponse はTaskモデルをAPIレスポンス型に変換する。
func toTaskResponse(t *model.Task) taskResponse {
	tags := t.Tags
	if tags == nil {
		tags = []string{}
	}
	return taskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Priority:    t.Priority,
		Status:      t.Status,
		DueDate:     t.DueDate,
		AssigneeID:  t.AssigneeID,
		CreatorID:   t.CreatorID,
		Tags:        tags,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}
