// Package parser turns a free-text chat message into transaction drafts.
package parser

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"unicode"

	"github.com/Veraticus/spicebot/internal/amount"
	"github.com/Veraticus/spicebot/internal/common"
	"github.com/Veraticus/spicebot/internal/model"
	"github.com/Veraticus/spicebot/internal/resolver"
	"github.com/Veraticus/spicebot/internal/textnorm"
)

// DefaultPlaceholder describes a transaction whose message had nothing but an amount.
const DefaultPlaceholder = "Transaction via bot"

// hintDelimiter separates a description from a category hint: "Cookies - Food 25€".
var hintDelimiter = regexp.MustCompile(`\s+[-–—]\s+`)

// fillerWords are dropped from descriptions. Compared in normalized form.
var fillerWords = []string{
	"eur", "euro", "euros",
	"gastei", "paguei", "recebi", "comprei",
	"em", "no", "na", "nos", "nas", "de", "do", "da", "dos", "das", "com", "para", "por", "o", "a",
	"paid", "spent", "received", "bought", "pay",
	"on", "at", "for", "in", "of", "to", "from", "the", "with", "an",
}

// Resolver picks a category for a request.
type Resolver interface {
	Resolve(ctx context.Context, req resolver.Request) resolver.Resolution
}

// Workspace is the context a message is parsed in.
type Workspace struct {
	ID         string
	Categories []model.Category
}

// Result holds the drafts parsed from one message, in the order their amounts appeared.
type Result struct {
	Drafts []model.Draft
	Type   model.TransactionType
}

// Multiple reports whether the message described more than one transaction.
func (r *Result) Multiple() bool {
	return len(r.Drafts) > 1
}

// Parser extracts amounts, descriptions and categories from messages.
type Parser struct {
	extractor   *amount.Extractor
	resolver    Resolver
	logger      *slog.Logger
	filler      map[string]bool
	placeholder string
}

// Option configures a Parser.
type Option func(*Parser)

// WithPlaceholder sets the description used when a message holds only an amount.
func WithPlaceholder(s string) Option {
	return func(p *Parser) {
		if s != "" {
			p.placeholder = s
		}
	}
}

// WithLogger sets the parser's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Parser) { p.logger = common.LoggerOrDefault(logger) }
}

// New creates a parser.
func New(extractor *amount.Extractor, r Resolver, opts ...Option) *Parser {
	p := &Parser{
		extractor:   extractor,
		resolver:    r,
		logger:      slog.Default(),
		placeholder: DefaultPlaceholder,
		filler:      make(map[string]bool, len(fillerWords)),
	}
	for _, w := range fillerWords {
		p.filler[textnorm.Normalize(w)] = true
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse turns text into one draft per amount. It returns common.ErrNoAmountFound when
// the message holds no recognizable amount.
func (p *Parser) Parse(ctx context.Context, text string, ws Workspace) (*Result, error) {
	matches := p.extractor.Extract(text)
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w in %q", common.ErrNoAmountFound, truncate(text, 40))
	}

	txType := p.extractor.Intent(text)
	result := &Result{Type: txType, Drafts: make([]model.Draft, 0, len(matches))}

	for i, m := range matches {
		segment := p.segment(text, matches, i)
		description, hint := p.splitHint(segment)

		res := p.resolver.Resolve(ctx, resolver.Request{
			Text:        description,
			Hint:        hint,
			WorkspaceID: ws.ID,
			Type:        txType,
			Categories:  ws.Categories,
		})

		if description == "" {
			description = p.placeholder
		}

		draft := model.Draft{
			Amount:      m.Amount,
			Description: truncate(description, model.MaxDescriptionLength),
			Type:        txType,
			Source:      res.Source,
		}
		if res.Category != nil {
			id := res.Category.ID
			draft.CategoryID = &id
			draft.CategoryName = res.Category.Name
		}

		p.logger.Debug("parsed transaction draft",
			"workspace_id", ws.ID,
			"amount", draft.Amount.String(),
			"type", draft.Type,
			"description", draft.Description,
			"category", draft.CategoryName,
			"source", draft.Source)

		result.Drafts = append(result.Drafts, draft)
	}

	return result, nil
}

// segment returns the text belonging to the i-th amount: the text between the previous
// amount and this one. A single amount owns the whole message. When the leading text of
// the last amount is empty, the trailing text is used instead.
func (p *Parser) segment(text string, matches []amount.Match, i int) string {
	m := matches[i]
	if len(matches) == 1 {
		return text[:m.Start] + " " + text[m.End:]
	}

	start := 0
	if i > 0 {
		start = matches[i-1].End
	}
	seg := text[start:m.Start]
	if i == len(matches)-1 && strings.TrimSpace(seg) == "" {
		seg = text[m.End:]
	}
	return seg
}

// splitHint separates description and category hint at the first hyphen-like delimiter
// and removes filler words from both.
func (p *Parser) splitHint(segment string) (description, hint string) {
	if loc := hintDelimiter.FindStringIndex(segment); loc != nil {
		return p.clean(segment[:loc[0]]), p.clean(segment[loc[1]:])
	}
	return p.clean(segment), ""
}

func (p *Parser) clean(s string) string {
	words := strings.Fields(s)
	kept := words[:0]
	for _, w := range words {
		n := textnorm.Normalize(w)
		if n == "" || p.filler[n] {
			continue
		}
		kept = append(kept, w)
	}
	return strings.TrimFunc(strings.Join(kept, " "), func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSymbol(r) || unicode.IsSpace(r)
	})
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return strings.TrimSpace(string(runes[:n]))
}
