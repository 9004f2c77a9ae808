package parsers

import (
	"sort"
	"strings"
	"sync"

	"github.com/ppiankov/fourmi/internal/model"
	"github.com/rotisserie/eris"
)

// Request asks the crawler to fetch a URL and hand the page to a parser
type Request struct {
	URL    string
	Parser string // Name of the parser that handles the response
	Depth  int    // 0 for compound requests, +1 per follow-up
}

// Page is a fetched response handed to a parser
type Page struct {
	URL         string
	ContentType string
	Body        []byte
	Request     Request
}

// Parser extracts results about a compound from one site
type Parser interface {
	// Name returns the parser name, also used as the registry key
	Name() string

	// Website returns the URL pattern this parser handles; a trailing
	// '*' matches any suffix
	Website() string

	// NewCompoundRequest builds the first request for a compound
	NewCompoundRequest(compound string) Request

	// Parse extracts results and any follow-up requests from a page
	Parse(page *Page) ([]*model.Result, []Request, error)
}

// Constructor creates a parser instance
type Constructor func() Parser

// Registry maps parser names to constructors, in registration order
type Registry struct {
	mu    sync.RWMutex
	order []string
	ctors map[string]Constructor
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{ctors: make(map[string]Constructor)}
}

// Default returns a registry with the built-in parsers
func Default() *Registry {
	r := NewRegistry()
	r.MustRegister(WikipediaName, func() Parser { return NewWikipediaParser() })
	r.MustRegister(PubChemName, func() Parser { return NewPubChemParser() })
	return r
}

// Register adds a constructor under name
func (r *Registry) Register(name string, ctor Constructor) error {
	if name == "" || ctor == nil {
		return eris.New("parsers: name and constructor are required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.ctors[name]; exists {
		return eris.Errorf("parsers: %q already registered", name)
	}
	r.ctors[name] = ctor
	r.order = append(r.order, name)
	return nil
}

// MustRegister is Register that panics on error, for startup wiring
func (r *Registry) MustRegister(name string, ctor Constructor) {
	if err := r.Register(name, ctor); err != nil {
		panic(err)
	}
}

// Names returns the registered names in registration order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// New instantiates the parser registered under name
func (r *Registry) New(name string) (Parser, error) {
	r.mu.RLock()
	ctor, ok := r.ctors[name]
	r.mu.RUnlock()

	if !ok {
		return nil, eris.Errorf("parsers: unknown parser %q (known: %s)", name, strings.Join(r.sorted(), ", "))
	}
	return ctor(), nil
}

// All instantiates every registered parser once, in registration order
func (r *Registry) All() []Parser {
	names := r.Names()
	out := make([]Parser, 0, len(names))
	for _, name := range names {
		p, err := r.New(name)
		if err == nil {
			out = append(out, p)
		}
	}
	return out
}

// Select instantiates the named parsers; no names selects all
func (r *Registry) Select(names []string) ([]Parser, error) {
	if len(names) == 0 {
		return r.All(), nil
	}
	out := make([]Parser, 0, len(names))
	for _, name := range names {
		p, err := r.New(name)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *Registry) sorted() []string {
	names := r.Names()
	sort.Strings(names)
	return names
}

// ForURL returns the first parser whose website pattern matches rawURL
func ForURL(parsers []Parser, rawURL string) Parser {
	for _, p := range parsers {
		if MatchWebsite(p.Website(), rawURL) {
			return p
		}
	}
	return nil
}

// MatchWebsite reports whether rawURL matches a website pattern
func MatchWebsite(pattern, rawURL string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		return strings.HasPrefix(rawURL, prefix)
	}
	return rawURL == pattern
}
