// Package matchers filters hits by alignment quality.
package matchers

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/inodb/genome-mapping/internal/hits"
)

// Matcher decides whether a hit is good enough to keep.
type Matcher interface {
	Name() string
	Match(h *hits.Hit) bool
}

// Constructor builds a matcher from string parameters, as given on the
// command line with --define key=value.
type Constructor func(params map[string]string) (Matcher, error)

var registry = map[string]Constructor{
	"exact":        newExact,
	"identity":     newIdentity,
	"completeness": newCompleteness,
}

// Known returns the registered matcher names.
func Known() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Fetch builds the named matcher.
func Fetch(name string, params map[string]string) (Matcher, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown matcher %q (known: %s)", name, strings.Join(Known(), ", "))
	}
	m, err := ctor(params)
	if err != nil {
		return nil, fmt.Errorf("matcher %s: %w", name, err)
	}
	return m, nil
}

// Filter returns the hits accepted by m, in input order.
func Filter(m Matcher, hs []*hits.Hit) []*hits.Hit {
	var kept []*hits.Hit
	for _, h := range hs {
		if m.Match(h) {
			kept = append(kept, h)
		}
	}
	return kept
}

// ParseDefines turns key=value pairs into a parameter map.
func ParseDefines(defines []string) (map[string]string, error) {
	params := make(map[string]string, len(defines))
	for _, d := range defines {
		key, value, ok := strings.Cut(d, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid definition %q, expected key=value", d)
		}
		params[key] = value
	}
	return params, nil
}

func decode(params map[string]string, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(params); err != nil {
		return fmt.Errorf("decode parameters: %w", err)
	}
	return nil
}

// Exact accepts gapless hits where every aligned base is identical.
type Exact struct{}

func newExact(params map[string]string) (Matcher, error) {
	var m Exact
	if err := decode(params, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func (Exact) Name() string { return "exact" }

func (Exact) Match(h *hits.Hit) bool {
	s := h.Stats
	return s.Length.Hit == s.Length.Query && float64(s.Identical) == s.Length.Hit
}

// Identity accepts hits whose identity reaches MinIdentity.
type Identity struct {
	MinIdentity float64 `mapstructure:"min_identity"`
}

func newIdentity(params map[string]string) (Matcher, error) {
	m := Identity{MinIdentity: 0.95}
	if err := decode(params, &m); err != nil {
		return nil, err
	}
	if m.MinIdentity < 0 || m.MinIdentity > 1 {
		return nil, fmt.Errorf("min_identity %v out of [0, 1]", m.MinIdentity)
	}
	return m, nil
}

func (Identity) Name() string { return "identity" }

func (m Identity) Match(h *hits.Hit) bool {
	return h.Identity() >= m.MinIdentity
}

// Completeness accepts hits covering at least MinCompleteness of the query.
type Completeness struct {
	MinCompleteness float64 `mapstructure:"min_completeness"`
}

func newCompleteness(params map[string]string) (Matcher, error) {
	m := Completeness{MinCompleteness: 1}
	if err := decode(params, &m); err != nil {
		return nil, err
	}
	if m.MinCompleteness < 0 {
		return nil, fmt.Errorf("min_completeness %v is negative", m.MinCompleteness)
	}
	return m, nil
}

func (Completeness) Name() string { return "completeness" }

func (m Completeness) Match(h *hits.Hit) bool {
	return h.Stats.Completeness.Query >= m.MinCompleteness
}
