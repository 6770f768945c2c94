package model

import "time"

// GlobalWorkspace is the workspace id used for mappings shared across workspaces.
const GlobalWorkspace = ""

// Scope distinguishes private mapping entries from shared ones.
type Scope string

const (
	// ScopePrivate entries belong to a single workspace and carry a category id.
	ScopePrivate Scope = "private"
	// ScopeGlobal entries are shared and only ever carry a category name.
	ScopeGlobal Scope = "global"
)

// CategoryMapping is a learned description key to category association.
type CategoryMapping struct {
	LastUsedAt     time.Time
	CreatedAt      time.Time
	CategoryID     *string
	WorkspaceID    string
	DescriptionKey string
	CategoryName   string
	Type           TransactionType
	ID             int64
	UsageCount     int
}

// Scope reports whether the entry is private or global.
func (m CategoryMapping) Scope() Scope {
	if m.WorkspaceID == GlobalWorkspace {
		return ScopeGlobal
	}
	return ScopePrivate
}
