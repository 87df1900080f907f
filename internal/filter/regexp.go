package filter

import (
	"fmt"
	"regexp"

	lru "github.com/hashicorp/golang-lru/v2"
)

// RegExpFilter matches category value strings against a pattern. A filter
// with an empty pattern matches everything and imposes no constraint.
type RegExpFilter interface {
	// Match reports whether test matches anywhere in the expression.
	Match(test string) bool

	// Pattern returns the source pattern string.
	Pattern() string
}

// RegExpFilterFactory compiles patterns into RegExpFilter objects. Factories
// compile eagerly so Match stays allocation-free; an invalid pattern is an
// error at creation time, never at match time.
type RegExpFilterFactory interface {
	CreateRegExpFilter(pattern string) (RegExpFilter, error)
}

type goRegExp struct {
	pattern string
	re      *regexp.Regexp
}

func (g *goRegExp) Match(test string) bool {
	return g.re.MatchString(test)
}

func (g *goRegExp) Pattern() string {
	return g.pattern
}

// regexCacheSize bounds the compiled-pattern cache. Filter strings repeat
// heavily across preference rules, so a small cache absorbs nearly all
// compilations.
const regexCacheSize = 128

// Factory is the default RegExpFilterFactory, backed by the standard regexp
// package with an LRU cache of compiled patterns.
type Factory struct {
	cache *lru.Cache[string, RegExpFilter]
}

// NewFactory returns a caching factory.
func NewFactory() *Factory {
	cache, err := lru.New[string, RegExpFilter](regexCacheSize)
	if err != nil {
		// lru.New only fails on a non-positive size.
		panic(err)
	}
	return &Factory{cache: cache}
}

// CreateRegExpFilter compiles pattern, reusing a cached compilation when one
// exists. An invalid pattern returns a nil filter and an error.
func (f *Factory) CreateRegExpFilter(pattern string) (RegExpFilter, error) {
	if cached, ok := f.cache.Get(pattern); ok {
		return cached, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("filter: invalid regular expression %q: %w", pattern, err)
	}
	compiled := &goRegExp{pattern: pattern, re: re}
	f.cache.Add(pattern, compiled)
	return compiled, nil
}
