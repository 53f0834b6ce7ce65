// Package registry routes decoded product envelopes to family decoders.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"nws_parser/internal/nws"
)

// ErrMissingAFOS is returned by Decode when a product carries no PIL and
// no WMO or center route claims it.
var ErrMissingAFOS = errors.New("product has no AFOS PIL")

// Result is the common interface for all family records.
type Result interface {
	// Type names the family, e.g. "lsr", "spcpts".
	Type() string

	// Base returns the decoded envelope the record was built from.
	Base() *nws.TextProduct
}

// Notifier is implemented by results that emit notifications.
type Notifier interface {
	Notifications() []nws.Notification
}

// Parser is implemented by each family decoder.
type Parser interface {
	// Name returns the decoder's unique identifier.
	Name() string

	// Prefixes returns the AFOS prefixes this decoder handles. An empty
	// slice means the decoder inspects content of every product.
	Prefixes() []string

	// QuickCheck performs a cheap string check before the full decode.
	QuickCheck(p *nws.TextProduct) bool

	// Priority orders decoders sharing a prefix. Lower runs first.
	Priority() int

	// Parse builds the family record. A nil Result with a nil error means
	// the product is not applicable. Errors are fatal for the product.
	Parse(p *nws.TextProduct, opts nws.Options) (Result, error)
}

// CenterRouted decoders claim every product from the listed CCCCs.
type CenterRouted interface {
	Centers() []string
}

// WMORouted decoders claim products by TTAAII prefix, used for products
// that routinely arrive without a PIL.
type WMORouted interface {
	WMOPrefixes() []string
}

// Registry holds all registered decoders organised for dispatch.
type Registry struct {
	mu sync.RWMutex

	byPrefix map[string][]Parser
	byCenter map[string][]Parser
	byWMO    map[string][]Parser
	global   []Parser
	catchAll []Parser

	sorted bool
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		byPrefix: make(map[string][]Parser),
		byCenter: make(map[string][]Parser),
		byWMO:    make(map[string][]Parser),
	}
}

var defaultRegistry = New()

// Default returns the global registry instance.
func Default() *Registry {
	return defaultRegistry
}

// Register adds a decoder to the default registry. Called from init() in
// each family package.
func Register(p Parser) {
	defaultRegistry.Register(p)
}

// RegisterCatchAll adds a fallback decoder to the default registry.
func RegisterCatchAll(p Parser) {
	defaultRegistry.RegisterCatchAll(p)
}

// Register adds a decoder.
func (r *Registry) Register(p Parser) {
	r.mu.Lock()
	defer r.mu.Unlock()

	routed := false
	for _, prefix := range p.Prefixes() {
		r.byPrefix[prefix] = append(r.byPrefix[prefix], p)
		routed = true
	}
	if c, ok := p.(CenterRouted); ok {
		for _, cccc := range c.Centers() {
			r.byCenter[cccc] = append(r.byCenter[cccc], p)
			routed = true
		}
	}
	if w, ok := p.(WMORouted); ok {
		for _, prefix := range w.WMOPrefixes() {
			r.byWMO[prefix] = append(r.byWMO[prefix], p)
		}
	}
	if !routed {
		r.global = append(r.global, p)
	}
	r.sorted = false
}

// RegisterCatchAll adds a decoder that runs when nothing else matched.
func (r *Registry) RegisterCatchAll(p Parser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.catchAll = append(r.catchAll, p)
	r.sorted = false
}

// Sort orders every decoder slice by priority. Call before dispatching.
func (r *Registry) Sort() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sorted {
		return
	}
	byPriority := func(ps []Parser) {
		sort.SliceStable(ps, func(i, j int) bool { return ps[i].Priority() < ps[j].Priority() })
	}
	for _, m := range []map[string][]Parser{r.byPrefix, r.byCenter, r.byWMO} {
		for k := range m {
			byPriority(m[k])
		}
	}
	byPriority(r.global)
	byPriority(r.catchAll)
	r.sorted = true
}

// Decode parses the envelope of raw and dispatches it.
func (r *Registry) Decode(raw []byte, opts nws.Options) (Result, error) {
	p, err := nws.Parse(raw, opts)
	if err != nil {
		return nil, err
	}
	return r.Dispatch(p, opts)
}

// Dispatch routes an already decoded envelope. Routing order: issuing
// center, longest AFOS prefix, WMO heading, content-based decoders and
// finally the catch-all.
func (r *Registry) Dispatch(p *nws.TextProduct, opts nws.Options) (Result, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if res, err := tryAll(r.byCenter[p.WMO.CCCC], p, opts); res != nil || err != nil {
		return res, err
	}

	if p.AFOS != "" {
		for n := len(p.AFOS); n >= 2; n-- {
			if res, err := tryAll(r.byPrefix[p.AFOS[:n]], p, opts); res != nil || err != nil {
				return res, err
			}
		}
	}

	for n := len(p.WMO.TTAAII); n >= 2; n-- {
		if res, err := tryAll(r.byWMO[p.WMO.TTAAII[:n]], p, opts); res != nil || err != nil {
			return res, err
		}
	}

	if p.AFOS == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingAFOS, p.WMO)
	}

	if res, err := tryAll(r.global, p, opts); res != nil || err != nil {
		return res, err
	}

	for _, dec := range r.catchAll {
		res, err := dec.Parse(p, opts)
		if res != nil || err != nil {
			return res, err
		}
	}
	return nil, nil
}

func tryAll(parsers []Parser, p *nws.TextProduct, opts nws.Options) (Result, error) {
	for _, dec := range parsers {
		if !dec.QuickCheck(p) {
			continue
		}
		res, err := dec.Parse(p, opts)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", dec.Name(), err)
		}
		if res != nil {
			return res, nil
		}
	}
	return nil, nil
}

// RegisteredPrefixes returns all AFOS prefixes that have decoders.
func (r *Registry) RegisteredPrefixes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	prefixes := make([]string, 0, len(r.byPrefix))
	for prefix := range r.byPrefix {
		prefixes = append(prefixes, prefix)
	}
	sort.Strings(prefixes)
	return prefixes
}

// AllParsers returns every registered decoder once.
func (r *Registry) AllParsers() []Parser {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	var result []Parser
	add := func(ps []Parser) {
		for _, p := range ps {
			if !seen[p.Name()] {
				seen[p.Name()] = true
				result = append(result, p)
			}
		}
	}
	for _, m := range []map[string][]Parser{r.byCenter, r.byPrefix, r.byWMO} {
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			add(m[k])
		}
	}
	add(r.global)
	add(r.catchAll)
	return result
}

// ParserCount returns the number of unique registered decoders.
func (r *Registry) ParserCount() int {
	return len(r.AllParsers())
}
