package database

import (
	"fmt"

	"gorm.io/gorm"
)

// AddIndexes adds performance-critical indexes to the database
func AddIndexes(db *gorm.DB) error {
	indexes := []struct {
		table   string
		name    string
		columns string
	}{
		// Task indexes for workspace-scoped listing and archive queries
		{"tasks", "idx_tasks_workspace_status", "workspace_id, status"},
		{"tasks", "idx_tasks_user_status", "user_id, status"},
		{"tasks", "idx_tasks_deadline", "deadline"},
		{"tasks", "idx_tasks_created_at", "created_at"},

		// Workspace member lookups drive every authorization check
		{"workspace_members", "idx_ws_members_workspace_id", "workspace_id"},
		{"workspace_members", "idx_ws_members_user_id", "user_id"},

		// Task assignment indexes
		{"task_assignments", "idx_task_assignments_task_id", "task_id"},
		{"task_assignments", "idx_task_assignments_user_id", "user_id"},

		// Notification listing and cascade deletion
		{"notifications", "idx_notifications_user_created", "user_id, created_at"},
		{"notifications", "idx_notifications_task_id", "task_id"},
		{"notifications", "idx_notifications_workspace_id", "workspace_id"},

		// Invitation lookups by guest and by workspace
		{"workspace_invitations", "idx_invitations_guest_status", "guest_id, status"},
		{"workspace_invitations", "idx_invitations_workspace_id", "workspace_id"},
	}

	for _, idx := range indexes {
		var count int64
		err := db.Raw(`
			SELECT COUNT(*)
			FROM pg_indexes
			WHERE tablename = ? AND indexname = ?
		`, idx.table, idx.name).Count(&count).Error

		if err != nil {
			return fmt.Errorf("failed to check index %s: %w", idx.name, err)
		}

		if count > 0 {
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}
	}

	return nil
}
