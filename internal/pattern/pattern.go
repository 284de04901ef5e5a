package pattern

import (
	"regexp"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ben-ranford/presetenv/internal/names"
)

const compiledCacheSize = 512

var literalPattern = regexp.MustCompile(`^[A-Za-z0-9_@/.-]+$`)

// compiledCache memoizes wildcard compilation across normalizations. It is
// safe for concurrent use and holds no catalog state.
var compiledCache = mustNewCompiledCache()

func mustNewCompiledCache() *lru.Cache[string, *regexp.Regexp] {
	cache, err := lru.New[string, *regexp.Regexp](compiledCacheSize)
	if err != nil {
		panic(err)
	}
	return cache
}

// Pattern is one include/exclude entry resolved against a catalog.
type Pattern interface {
	Raw() string
	Matches(name string) bool
}

// Literal matches one catalog name exactly, after prefix normalization.
type Literal struct {
	raw  string
	name string
}

func (l Literal) Raw() string { return l.raw }

func (l Literal) Matches(name string) bool { return l.name == name }

// Wildcard matches every catalog name its anchored expression accepts. A
// nil matcher means the expression did not compile and matches nothing.
type Wildcard struct {
	raw     string
	matcher *regexp.Regexp
}

func (w Wildcard) Raw() string { return w.raw }

func (w Wildcard) Matches(name string) bool {
	return w.matcher != nil && w.matcher.MatchString(name)
}

// Valid reports whether the expression compiled.
func (w Wildcard) Valid() bool { return w.matcher != nil }

// Parse classifies raw as a Literal or a Wildcard.
func Parse(raw string) Pattern {
	normalized := names.Normalize(raw)
	if literalPattern.MatchString(normalized) {
		return Literal{raw: raw, name: normalized}
	}
	return Wildcard{raw: raw, matcher: compile(normalized)}
}

func compile(expr string) *regexp.Regexp {
	if re, ok := compiledCache.Get(expr); ok {
		return re
	}
	re, err := regexp.Compile("^(?:" + expr + ")$")
	if err != nil {
		re = nil
	}
	compiledCache.Add(expr, re)
	return re
}
