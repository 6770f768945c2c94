package model

import "time"

// TransactionType indicates whether money came in or went out.
// Categories share the same enum so a category only ever applies to one direction.
type TransactionType string

const (
	// TypeExpense represents money leaving the workspace.
	TypeExpense TransactionType = "expense"
	// TypeIncome represents money entering the workspace.
	TypeIncome TransactionType = "income"
)

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
	return t == TypeExpense || t == TypeIncome
}

// ParseTransactionType converts user input into a TransactionType.
func ParseTransactionType(s string) (TransactionType, bool) {
	switch TransactionType(s) {
	case TypeExpense:
		return TypeExpense, true
	case TypeIncome:
		return TypeIncome, true
	default:
		return "", false
	}
}

// Category represents a workspace-local category.
type Category struct {
	CreatedAt   time.Time
	ID          string
	WorkspaceID string
	Name        string
	Type        TransactionType
}

// CategoriesOfType filters categories down to the given type, preserving order.
func CategoriesOfType(categories []Category, t TransactionType) []Category {
	filtered := make([]Category, 0, len(categories))
	for _, c := range categories {
		if c.Type == t {
			filtered = append(filtered, c)
		}
	}
	return filtered
}

// CategoryNames returns the names of the given categories in order.
func CategoryNames(categories []Category) []string {
	names := make([]string, len(categories))
	for i, c := range categories {
		names[i] = c.Name
	}
	return names
}
