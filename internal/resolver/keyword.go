package resolver

import (
	"context"
	"strings"

	"github.com/Veraticus/spicebot/internal/model"
	"github.com/Veraticus/spicebot/internal/textnorm"
)

// KeywordRule ties merchant and activity keywords to canonical category names.
// Names are matched against workspace categories with Similarity.
type KeywordRule struct {
	Names    []string
	Keywords []string
}

// DefaultKeywordRules is a starter table for Portuguese and English speakers.
var DefaultKeywordRules = []KeywordRule{
	{
		Names: []string{"Alimentação", "Food", "Groceries"},
		Keywords: []string{
			"almoço", "jantar", "comida", "restaurante", "café", "lanche", "pingo doce",
			"continente", "mercado", "supermercado", "uber eats", "bolt food", "padaria",
			"pastelaria", "takeaway", "mercearia", "lidl", "aldi", "auchan", "minipreço",
			"fruta", "talho", "peixaria", "mcdonalds", "burger king", "pizza", "sushi",
			"brunch", "lunch", "dinner", "breakfast", "groceries", "supermarket", "bakery",
			"coffee", "restaurant",
		},
	},
	{
		Names: []string{"Transportes", "Transport", "Transportation"},
		Keywords: []string{
			"gasolina", "gasóleo", "combustível", "uber", "bolt", "autocarro", "metro",
			"comboio", "passe", "estacionamento", "via verde", "portagem", "oficina",
			"pneus", "inspeção", "carris", "stcp", "fertagus", "trotinete", "gas", "fuel",
			"taxi", "bus", "train", "parking", "toll", "subway",
		},
	},
	{
		Names: []string{"Lazer", "Entertainment", "Leisure"},
		Keywords: []string{
			"cinema", "concerto", "festa", "viagem", "férias", "jogo", "gaming", "netflix",
			"spotify", "hbo", "disney", "bilhete", "museu", "teatro", "estádio", "futebol",
			"ginásio", "gym", "crossfit", "padel", "concert", "movie", "movies", "trip",
			"holiday", "tickets",
		},
	},
	{
		Names: []string{"Saúde", "Health", "Healthcare"},
		Keywords: []string{
			"farmácia", "médico", "consulta", "hospital", "dentista", "exames", "análises",
			"óculos", "lentes", "fisioterapia", "psicólogo", "medicamento", "pharmacy",
			"doctor", "dentist", "medicine",
		},
	},
	{
		Names: []string{"Habitação", "Housing", "Home"},
		Keywords: []string{
			"renda", "luz", "água", "internet", "condomínio", "móveis", "ikea", "leroy",
			"limpeza", "edp", "galp", "meo", "vodafone", "rent", "electricity", "water bill",
			"furniture", "mortgage",
		},
	},
	{
		Names: []string{"Educação", "Education"},
		Keywords: []string{
			"propina", "escola", "curso", "universidade", "explicador", "formação", "udemy",
			"coursera", "workshop", "school", "tuition", "course",
		},
	},
	{
		Names: []string{"Roupa e Pessoal", "Clothing", "Personal"},
		Keywords: []string{
			"roupa", "sapatos", "zara", "bershka", "nike", "adidas", "barbeiro",
			"cabeleireiro", "perfume", "maquilhagem", "primark", "clothes", "shoes",
			"haircut", "barber",
		},
	},
	{
		Names: []string{"Investimento", "Investment", "Investments"},
		Keywords: []string{
			"investimento", "ações", "crypto", "bitcoin", "etf", "binance", "degiro",
			"corretora", "trading", "poupança", "fundo", "stocks", "savings",
		},
	},
	{
		Names:    []string{"Salário", "Salary"},
		Keywords: []string{"salário", "ordenado", "vencimento", "prémio", "salary", "payroll", "paycheck"},
	},
}

// Keyword maps well-known merchant and activity words onto workspace categories.
type Keyword struct {
	Rules     []KeywordRule
	Threshold float64
}

// Source implements Strategy.
func (Keyword) Source() model.Source { return model.SourceKeyword }

// Resolve implements Strategy.
func (k Keyword) Resolve(_ context.Context, req Request) (*model.Category, error) {
	rules := k.Rules
	if rules == nil {
		rules = DefaultKeywordRules
	}
	threshold := k.Threshold
	if threshold <= 0 {
		threshold = DefaultHintThreshold
	}

	padded := " " + textnorm.Normalize(req.Candidate()) + " "
	if padded == "  " {
		return nil, nil
	}
	eligible := req.Eligible()

	for _, rule := range rules {
		if !containsAnyWord(padded, rule.Keywords) {
			continue
		}
		for _, name := range rule.Names {
			if category, _ := BestMatch(name, eligible, threshold); category != nil {
				return category, nil
			}
		}
	}
	return nil, nil
}

func containsAnyWord(padded string, keywords []string) bool {
	for _, kw := range keywords {
		n := textnorm.Normalize(kw)
		if n != "" && strings.Contains(padded, " "+n+" ") {
			return true
		}
	}
	return false
}
