package bot

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys.
const (
	msgWelcome           = "welcome"
	msgHelp              = "help"
	msgRateLimit         = "rate_limit"
	msgUnauthorized      = "unauthorized"
	msgParseError        = "parse_error"
	msgInternalError     = "internal_error"
	msgPending           = "transaction_pending"
	msgRegistered        = "transaction_registered"
	msgConfirmed         = "transaction_confirmed"
	msgNotFound          = "transaction_not_found"
	msgCancelled         = "transaction_cancelled"
	msgMultipleCreated   = "multiple_transactions_created"
	msgMultiplePending   = "multiple_transactions_pending"
	msgClearSuccess      = "clear_success"
	msgClearEmpty        = "clear_empty"
	msgTypeExpense       = "type_expense"
	msgTypeIncome        = "type_income"
	msgUncategorized     = "uncategorized"
	msgButtonConfirm     = "button_confirm"
	msgButtonCancel      = "button_cancel"
	msgTransactionDetail = "transaction_detail"
)

// Supported reply languages. English is the fallback.
var (
	English    = language.English
	Portuguese = language.Portuguese
)

var messages = map[language.Tag]map[string]string{
	English: {
		msgWelcome: "Hello again! Your workspace is ready.\n\n" +
			"Send transactions like:\n" +
			"  Lunch 15€\n" +
			"  Salary 1000€\n" +
			"  Gas 50€\n\n" +
			"Send /info for more help.",
		msgHelp: "Message format: Description Value€\n\n" +
			"Examples:\n" +
			"  Lunch 15€\n" +
			"  Salary 1000€\n" +
			"  Gym 30€\n" +
			"  Lunch 25€ Gas 10€\n\n" +
			"Pick a category yourself with: Description - Category Value€\n" +
			"Send several transactions in one message by listing them.\n" +
			"/clear discards every transaction waiting for confirmation.",
		msgRateLimit:     "Too many messages. Please wait a moment before sending more transactions.",
		msgUnauthorized:  "This chat is not linked to a workspace yet. Send /start once it has been linked.",
		msgInternalError: "Something went wrong while saving that. Please try again.",
		msgParseError: "I couldn't understand that.\n\n" +
			"Try formats like:\n" +
			"  Lunch 15€\n" +
			"  Gas 50€\n" +
			"  Received 500€\n" +
			"  Lunch - Food 25€\n\n" +
			"Send /info to see all formats.",
		msgTransactionDetail: "Description: %s\n%s Value: %.2f€\nCategory: %s\nType: %s",
		msgPending:           "New transaction\n\n%s\n\nConfirm this transaction?",
		msgRegistered:        "Transaction registered!\n\n%s",
		msgConfirmed:         "Transaction confirmed!\n\n%s",
		msgNotFound:          "Transaction not found or already processed.",
		msgCancelled:         "Transaction cancelled. Nothing was registered.",
		msgMultipleCreated:   "%d transactions registered!\n\n%s",
		msgMultiplePending:   "%d new transactions. Confirm each one below.\n\n%s",
		msgClearSuccess:      "Cleared %d pending transaction(s).",
		msgClearEmpty:        "There are no pending transactions to clear.",
		msgTypeExpense:       "Expense",
		msgTypeIncome:        "Income",
		msgUncategorized:     "Uncategorized",
		msgButtonConfirm:     "Confirm",
		msgButtonCancel:      "Cancel",
	},
	Portuguese: {
		msgWelcome: "Olá de novo! O teu workspace está pronto.\n\n" +
			"Envia transações como:\n" +
			"  Almoço 15€\n" +
			"  Salário 1000€\n" +
			"  Gasolina 50€\n\n" +
			"Envia /info para mais ajuda.",
		msgHelp: "Formato: Descrição Valor€\n\n" +
			"Exemplos:\n" +
			"  Almoço 15€\n" +
			"  Salário 1000€\n" +
			"  Ginásio 30€\n" +
			"  Almoço 25€ Gasolina 10€\n\n" +
			"Escolhe a categoria com: Descrição - Categoria Valor€\n" +
			"Podes enviar várias transações numa só mensagem.\n" +
			"/clear elimina as transações à espera de confirmação.",
		msgRateLimit:     "Muitas mensagens. Aguarda um momento antes de enviar mais transações.",
		msgUnauthorized:  "Este chat ainda não está associado a um workspace. Envia /start depois de o associares.",
		msgInternalError: "Algo correu mal ao guardar. Tenta novamente.",
		msgParseError: "Não consegui entender.\n\n" +
			"Tenta formatos como:\n" +
			"  Almoço 15€\n" +
			"  Gasolina 50€\n" +
			"  Recebi 500€\n" +
			"  Almoço - Alimentação 25€\n\n" +
			"Envia /info para ver todos os formatos.",
		msgTransactionDetail: "Descrição: %s\n%s Valor: %.2f€\nCategoria: %s\nTipo: %s",
		msgPending:           "Nova transação\n\n%s\n\nConfirmas esta transação?",
		msgRegistered:        "Transação registada!\n\n%s",
		msgConfirmed:         "Transação confirmada!\n\n%s",
		msgNotFound:          "Transação não encontrada ou já processada.",
		msgCancelled:         "Transação cancelada. Nada foi registado.",
		msgMultipleCreated:   "%d transações registadas!\n\n%s",
		msgMultiplePending:   "%d novas transações. Confirma cada uma abaixo.\n\n%s",
		msgClearSuccess:      "%d transação(ões) pendente(s) eliminada(s).",
		msgClearEmpty:        "Não há transações pendentes para limpar.",
		msgTypeExpense:       "Despesa",
		msgTypeIncome:        "Receita",
		msgUncategorized:     "Sem categoria",
		msgButtonConfirm:     "Confirmar",
		msgButtonCancel:      "Cancelar",
	},
}

var (
	replyCatalog = buildCatalog()
	matcher      = language.NewMatcher([]language.Tag{English, Portuguese})
)

func buildCatalog() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(English))
	for tag, msgs := range messages {
		for key, msg := range msgs {
			if err := b.SetString(tag, key, msg); err != nil {
				panic(err)
			}
		}
	}
	return b
}

// printer returns a printer for the closest supported language to lang.
func printer(lang string) *message.Printer {
	tag := English
	if lang != "" {
		if parsed, err := language.Parse(lang); err == nil {
			_, idx, _ := matcher.Match(parsed)
			tag = []language.Tag{English, Portuguese}[idx]
		}
	}
	return message.NewPrinter(tag, message.Catalog(replyCatalog))
}
