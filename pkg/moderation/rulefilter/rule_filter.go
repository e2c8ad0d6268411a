package rulefilter

import (
	"fmt"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"
)

//go:generate mockery --name=Filter --dir=. --output=./mocks --filename=rule_filter_mock.go --case=underscore --with-expecter

// Filter is the deterministic first pass of the moderation chain: a
// case-folded substring denylist. Check is pure with respect to the
// currently loaded denylist.
type Filter interface {
	Check(text string) bool
	Match(text string) (category string, term string, ok bool)
	Reload(denylist map[string][]string) error
}

// Config is the settings block for the filter. Categories map a policy
// category name to its banned terms; empty config falls back to the
// built-in denylist.
type Config struct {
	Categories map[string][]string `mapstructure:"denylist"`
}

type compiledDenylist struct {
	// term (already lower-cased) -> category
	terms map[string]string
	// iteration order kept stable for deterministic match reporting
	ordered []string
}

type ruleFilter struct {
	logger   *logrus.Logger
	denylist atomic.Pointer[compiledDenylist]
}

func NewRuleFilter(logger *logrus.Logger, settings map[string]interface{}) (Filter, error) {
	var cfg Config
	if err := mapstructure.Decode(settings, &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode rule filter config: %w", err)
	}

	f := &ruleFilter{logger: logger}

	denylist := cfg.Categories
	if len(denylist) == 0 {
		denylist = defaultDenylist
	}
	if err := f.Reload(denylist); err != nil {
		return nil, err
	}
	return f, nil
}

// Check reports whether the text is clean by rules. False means at
// least one denylisted term occurs as a substring, case-folded.
func (f *ruleFilter) Check(text string) bool {
	_, _, matched := f.Match(text)
	return !matched
}

// Match returns the first matching category and term, in the stable
// order the denylist was compiled with.
func (f *ruleFilter) Match(text string) (string, string, bool) {
	compiled := f.denylist.Load()
	folded := strings.ToLower(text)
	for _, term := range compiled.ordered {
		if strings.Contains(folded, term) {
			return compiled.terms[term], term, true
		}
	}
	return "", "", false
}

// Reload atomically swaps in a new denylist. Concurrent Check calls see
// either the old or the new list in full.
func (f *ruleFilter) Reload(denylist map[string][]string) error {
	compiled, err := compile(denylist)
	if err != nil {
		return err
	}
	f.denylist.Store(compiled)
	f.logger.WithField("terms", len(compiled.ordered)).Info("rule filter denylist loaded")
	return nil
}

func compile(denylist map[string][]string) (*compiledDenylist, error) {
	compiled := &compiledDenylist{terms: make(map[string]string)}
	for _, category := range sortedKeys(denylist) {
		for _, term := range denylist[category] {
			folded := strings.ToLower(strings.TrimSpace(term))
			if folded == "" {
				return nil, fmt.Errorf("denylist category %q contains an empty term", category)
			}
			if _, exists := compiled.terms[folded]; exists {
				continue
			}
			compiled.terms[folded] = category
			compiled.ordered = append(compiled.ordered, folded)
		}
	}
	return compiled, nil
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
