package model

import "time"

// Workspace owns categories and transactions and is bound to one chat channel.
type Workspace struct {
	CreatedAt   time.Time
	ID          string
	Name        string
	ChannelID   string
	Language    string
	AutoConfirm bool
}

// DefaultCategories returns the categories seeded into a new workspace for lang.
// Unknown languages get the English set.
func DefaultCategories(lang string) map[TransactionType][]string {
	if lang == "pt" {
		return map[TransactionType][]string{
			TypeExpense: {"Alimentação", "Transportes", "Saúde", "Habitação", "Lazer", "Educação", "Compras", "Outros"},
			TypeIncome:  {"Salário", "Outros Rendimentos"},
		}
	}
	return map[TransactionType][]string{
		TypeExpense: {"Food", "Transport", "Health", "Housing", "Entertainment", "Education", "Shopping", "Other"},
		TypeIncome:  {"Salary", "Other Income"},
	}
}
