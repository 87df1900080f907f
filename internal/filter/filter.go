// Package filter implements the category data filter: a per-category-name
// rule set matched against an entity's current category values.
//
// Each category name carries either a checklist (value ID -> checked state,
// with "Unlisted Value" and "No Value" sentinels) or a compiled regular
// expression that supersedes the checklist. An entity matches when every
// category rule passes; a filter with no rules matches everything.
package filter

import (
	"fmt"

	"github.com/scrypster/catdata/internal/naming"
	"github.com/scrypster/catdata/pkg/types"
)

// ValueSource resolves an entity's current category values, as a map from
// category name ID to value ID. The data store implements this.
type ValueSource interface {
	CurrentCategoryValues(id types.ObjectID) map[int]int
}

// check is one category name's rule. A non-nil regexp supersedes the
// checklist for matching and for simplified serialization; the checklist is
// retained so the literal form round-trips.
type check struct {
	nameOn bool
	values map[int]bool
	regexp RegExpFilter
}

func (c *check) clone() *check {
	values := make(map[int]bool, len(c.values))
	for k, v := range c.values {
		values[k] = v
	}
	// Compiled regexps are immutable and shared.
	return &check{nameOn: c.nameOn, values: values, regexp: c.regexp}
}

// Filter is a category data filter bound to a name manager. It owns no
// entity data; it is a predicate over externally-owned category values.
type Filter struct {
	names   *naming.Manager
	factory RegExpFilterFactory
	checks  map[int]*check
}

// New returns an empty filter (matches everything) bound to names. A nil
// factory disables regular expression rules.
func New(names *naming.Manager, factory RegExpFilterFactory) *Filter {
	return &Filter{
		names:   names,
		factory: factory,
		checks:  make(map[int]*check),
	}
}

// Clone returns a deep copy sharing the name manager and factory.
func (f *Filter) Clone() *Filter {
	out := New(f.names, f.factory)
	for nameInt, chk := range f.checks {
		out.checks[nameInt] = chk.clone()
	}
	return out
}

// Clear removes every rule; the filter matches everything afterward.
func (f *Filter) Clear() {
	f.checks = make(map[int]*check)
}

// IsEmpty reports whether the filter has no rules at all.
func (f *Filter) IsEmpty() bool {
	return len(f.checks) == 0
}

// NameManager returns the bound name manager.
func (f *Filter) NameManager() *naming.Manager {
	return f.names
}

// Match resolves the entity's current category values through source and
// applies the filter.
func (f *Filter) Match(source ValueSource, id types.ObjectID) bool {
	return f.MatchValues(source.CurrentCategoryValues(id))
}

// MatchValues applies the filter to a resolved name ID -> value ID map.
// Every category rule must pass; rules for unchecked names impose no
// constraint.
func (f *Filter) MatchValues(current map[int]int) bool {
	for nameInt, chk := range f.checks {
		if nameInt == naming.NoName {
			continue
		}
		if chk.regexp != nil {
			if chk.regexp.Pattern() == "" {
				continue
			}
			// Regex supersedes the checklist: test the current value
			// string, or the empty string when there is no value.
			test := ""
			if valueInt, ok := current[nameInt]; ok {
				test = f.names.ValueIntToString(valueInt)
			}
			if !chk.regexp.Match(test) {
				return false
			}
			continue
		}
		if !chk.nameOn || len(chk.values) == 0 {
			continue
		}
		valueInt, ok := current[nameInt]
		if !ok {
			valueInt = naming.NoValueAtTime
		}
		if state, listed := chk.values[valueInt]; listed {
			if !state {
				return false
			}
			continue
		}
		if valueInt == naming.NoValueAtTime {
			// No "No Value" entry: a value is required.
			return false
		}
		if !chk.values[naming.UnlistedValue] {
			return false
		}
	}
	return true
}

// SetValue sets the checked state of one value under a category name,
// creating the category rule if absent. The name's checked state becomes
// true when any value is checked.
func (f *Filter) SetValue(nameInt, valueInt int, checked bool) {
	chk := f.checks[nameInt]
	if chk == nil {
		chk = &check{values: make(map[int]bool)}
		f.checks[nameInt] = chk
	}
	chk.values[valueInt] = checked
	chk.recomputeNameOn()
}

// RemoveValue removes one value entry. It fails when the name or the value
// is not present in the filter; the filter is unchanged on failure.
func (f *Filter) RemoveValue(nameInt, valueInt int) error {
	chk := f.checks[nameInt]
	if chk == nil {
		return fmt.Errorf("filter: category %d not in filter: %w", nameInt, types.ErrNotFound)
	}
	if _, ok := chk.values[valueInt]; !ok {
		return fmt.Errorf("filter: value %d not in category %d: %w", valueInt, nameInt, types.ErrNotFound)
	}
	delete(chk.values, valueInt)
	chk.recomputeNameOn()
	return nil
}

// RemoveName deletes a whole category rule; the name no longer constrains
// matching.
func (f *Filter) RemoveName(nameInt int) {
	delete(f.checks, nameInt)
}

// SetRegExp installs a regular expression rule for a category name,
// superseding its checklist. An empty pattern removes the rule. The pattern
// compiles eagerly; a compile failure installs nothing.
func (f *Filter) SetRegExp(nameInt int, pattern string) error {
	if pattern == "" {
		if chk := f.checks[nameInt]; chk != nil {
			chk.regexp = nil
			if len(chk.values) == 0 {
				delete(f.checks, nameInt)
			}
		}
		return nil
	}
	if f.factory == nil {
		return fmt.Errorf("filter: no regular expression factory configured")
	}
	re, err := f.factory.CreateRegExpFilter(pattern)
	if err != nil {
		return err
	}
	chk := f.checks[nameInt]
	if chk == nil {
		chk = &check{nameOn: true, values: make(map[int]bool)}
		f.checks[nameInt] = chk
	}
	chk.regexp = re
	return nil
}

// RegExpPattern returns the pattern installed for a category name, or "".
func (f *Filter) RegExpPattern(nameInt int) string {
	if chk := f.checks[nameInt]; chk != nil && chk.regexp != nil {
		return chk.regexp.Pattern()
	}
	return ""
}

// RegExp returns the compiled rule installed for a category name, or nil.
func (f *Filter) RegExp(nameInt int) RegExpFilter {
	if chk := f.checks[nameInt]; chk != nil {
		return chk.regexp
	}
	return nil
}

// Names returns the category name IDs with rules, ascending.
func (f *Filter) Names() []int {
	return f.sortedNames()
}

// Values returns a copy of the checklist for a category name. ok is false
// when the name has no rule.
func (f *Filter) Values(nameInt int) (values map[int]bool, ok bool) {
	chk := f.checks[nameInt]
	if chk == nil {
		return nil, false
	}
	out := make(map[int]bool, len(chk.values))
	for k, v := range chk.values {
		out[k] = v
	}
	return out, true
}

// NameContributesToFilter reports whether a category rule can affect match
// results after simplification.
func (f *Filter) NameContributesToFilter(nameInt int) bool {
	chk := f.checks[nameInt]
	return chk != nil && simplifyCheck(chk) != nil
}

// Simplify canonicalizes every rule to its minimal form; vacuous rules are
// removed. Idempotent.
func (f *Filter) Simplify() {
	for nameInt := range f.checks {
		f.SimplifyName(nameInt)
	}
}

// SimplifyName canonicalizes one category rule.
func (f *Filter) SimplifyName(nameInt int) {
	chk := f.checks[nameInt]
	if chk == nil {
		return
	}
	simplified := simplifyCheck(chk)
	if simplified == nil {
		delete(f.checks, nameInt)
		return
	}
	f.checks[nameInt] = simplified
}

// recomputeNameOn keeps the name's checked state consistent with its
// checklist: on while any value is checked.
func (c *check) recomputeNameOn() {
	for _, on := range c.values {
		if on {
			c.nameOn = true
			return
		}
	}
	c.nameOn = false
}
