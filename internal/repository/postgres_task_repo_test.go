package repository

import (
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/taskdeck/internal/model"
)

// --- buildTaskUpdateQueryのテスト ---

// 空パッチでもupdated_atは常にSET句に含まれることを検証
func TestBuildTaskUpdateQuery_EmptyPatch_OnlyUpdatedAt(t *testing.T) {
	now := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)

	query, args := buildTaskUpdateQuery("task-1", &model.TaskPatch{}, now)

	if !strings.Contains(query, "updated_at = $1") {
		t.Errorf("query missing updated_at set: %s", query)
	}
	if !strings.Contains(query, "WHERE id = $2") {
		t.Errorf("query missing id placeholder: %s", query)
	}
	if !strings.Contains(query, "RETURNING "+taskColumns) {
		t.Errorf("query missing RETURNING clause: %s", query)
	}
	if len(args) != 2 {
		t.Fatalf("len(args) = %d, want 2", len(args))
	}
	if args[0] != now {
		t.Errorf("args[0] = %v, want %v", args[0], now)
	}
	if args[1] != "task-1" {
		t.Errorf("args[1] = %v, want task-1", args[1])
	}
}

// nilでないフィールドのみがSET句に含まれることを検証
func TestBuildTaskUpdateQuery_PartialPatch(t *testing.T) {
	title := "新タイトル"
	status := "done"
	now := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)

	query, args := buildTaskUpdateQuery("task-1", &model.TaskPatch{
		Title:  &title,
		Status: &status,
	}, now)

	if !strings.Contains(query, "title = $1") {
		t.Errorf("query missing title set: %s", query)
	}
	if !strings.Contains(query, "status = $2") {
		t.Errorf("query missing status set: %s", query)
	}
	if !strings.Contains(query, "updated_at = $3") {
		t.Errorf("query missing updated_at set: %s", query)
	}
	if strings.Contains(query, "description") {
		t.Errorf("query must not contain description: %s", query)
	}
	if strings.Contains(query, "due_date") {
		t.Errorf("query must not contain due_date: %s", query)
	}
	if len(args) != 4 {
		t.Fatalf("len(args) = %d, want 4", len(args))
	}
	if args[0] != "新タイトル" || args[1] != "done" {
		t.Errorf("args = %v", args)
	}
}

// 全フィールド指定時に各カラムが一度ずつ現れることを検証
func TestBuildTaskUpdateQuery_FullPatch(t *testing.T) {
	title := "t"
	description := "d"
	priority := "high"
	status := "done"
	due := time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC)
	assignee := "a1"
	tags := []string{"x", "y"}
	now := time.Now().UTC()

	query, args := buildTaskUpdateQuery("task-1", &model.TaskPatch{
		Title:       &title,
		Description: &description,
		Priority:    &priority,
		Status:      &status,
		DueDate:     &due,
		AssigneeID:  &assignee,
		Tags:        &tags,
	}, now)

	for _, column := range []string{"title", "description", "priority", "status", "due_date", "assignee_id", "tags", "updated_at"} {
		if !strings.Contains(query, column+" = $") {
			t.Errorf("query missing %s set: %s", column, query)
		}
	}
	// 7フィールド + updated_at + id
	if len(args) != 9 {
		t.Errorf("len(args) = %d, want 9", len(args))
	}
}
