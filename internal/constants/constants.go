package constants

import "time"

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Auth
const (
	MinPasswordLength = 8
	ContextKeyUserID  = "user_id"
	SessionCookieName = "workhub_session"
)

// Context keys set by access middleware
const (
	ContextKeyWorkspace       = "workspace"
	ContextKeyWorkspaceMember = "workspace_member"
	ContextKeyTask            = "task"
)

// Cache
const (
	TaskListCacheTTL = 3 * time.Hour
)

// Visitor accounts expire and are swept together with their data.
const VisitorLifetime = 24 * time.Hour
