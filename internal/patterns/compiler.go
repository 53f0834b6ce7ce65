// This file contains the grok-style pattern compiler.

package patterns

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Format is a named regex with {PLACEHOLDER} references to base patterns.
type Format struct {
	Name     string
	Pattern  string
	Compiled *regexp.Regexp
}

// Compiler expands and compiles a set of formats against BasePatterns plus
// any local overrides.
type Compiler struct {
	basePatterns map[string]string
	formats      []Format
}

// NewCompiler creates a compiler. Local patterns override global ones.
func NewCompiler(formats []Format, localPatterns map[string]string) *Compiler {
	c := &Compiler{
		basePatterns: make(map[string]string, len(BasePatterns)+len(localPatterns)),
		formats:      make([]Format, len(formats)),
	}
	for k, v := range BasePatterns {
		c.basePatterns[k] = v
	}
	for k, v := range localPatterns {
		c.basePatterns[k] = v
	}
	copy(c.formats, formats)
	return c
}

// MustCompile compiles every format and panics on error. Intended for
// package level initialisation.
func (c *Compiler) MustCompile() *Compiler {
	if err := c.Compile(); err != nil {
		panic(err)
	}
	return c
}

// Compile expands all {PLACEHOLDER} references and compiles regexes.
func (c *Compiler) Compile() error {
	for i := range c.formats {
		re, err := regexp.Compile(c.expand(c.formats[i].Pattern))
		if err != nil {
			return fmt.Errorf("format %s: %w", c.formats[i].Name, err)
		}
		c.formats[i].Compiled = re
	}
	return nil
}

// expand replaces placeholders, longest names first so {LAT4} never
// clobbers {LAT}.
func (c *Compiler) expand(pattern string) string {
	names := make([]string, 0, len(c.basePatterns))
	for name := range c.basePatterns {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return len(names[i]) > len(names[j]) })

	result := pattern
	for _, name := range names {
		result = strings.ReplaceAll(result, "{"+name+"}", c.basePatterns[name])
	}
	return result
}

// Match is a successful match with its named captures.
type Match struct {
	FormatName string
	Captures   map[string]string
}

func captures(re *regexp.Regexp, m []string) map[string]string {
	out := make(map[string]string)
	for i, name := range re.SubexpNames() {
		if i == 0 || name == "" || i >= len(m) {
			continue
		}
		out[name] = m[i]
	}
	return out
}

// Parse returns the first format matching text, or nil.
func (c *Compiler) Parse(text string) *Match {
	for _, f := range c.formats {
		if f.Compiled == nil {
			continue
		}
		if m := f.Compiled.FindStringSubmatch(text); m != nil {
			return &Match{FormatName: f.Name, Captures: captures(f.Compiled, m)}
		}
	}
	return nil
}

// ParseAll returns one match per format that matches text.
func (c *Compiler) ParseAll(text string) []*Match {
	var results []*Match
	for _, f := range c.formats {
		if f.Compiled == nil {
			continue
		}
		if m := f.Compiled.FindStringSubmatch(text); m != nil {
			results = append(results, &Match{FormatName: f.Name, Captures: captures(f.Compiled, m)})
		}
	}
	return results
}

// FindAllMatches returns every occurrence of the named format in text.
func (c *Compiler) FindAllMatches(text string, formatName string) []map[string]string {
	for _, f := range c.formats {
		if f.Name != formatName || f.Compiled == nil {
			continue
		}
		var results []map[string]string
		for _, m := range f.Compiled.FindAllStringSubmatch(text, -1) {
			results = append(results, captures(f.Compiled, m))
		}
		return results
	}
	return nil
}

// GetCapture returns a capture value or defaultVal when absent or empty.
func (m *Match) GetCapture(name string, defaultVal string) string {
	if m == nil {
		return defaultVal
	}
	if val, ok := m.Captures[name]; ok && val != "" {
		return val
	}
	return defaultVal
}
