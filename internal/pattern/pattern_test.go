package pattern

import (
	"errors"
	"strings"
	"testing"

	"github.com/ben-ranford/presetenv/internal/catalog"
)

const expandErrFmt = "expand: %v"

func TestParseClassifiesPatterns(t *testing.T) {
	if _, ok := Parse("es6.promise").(Literal); !ok {
		t.Fatalf("expected dotted name to be a literal")
	}
	if _, ok := Parse("@babel/plugin-transform-spread").(Literal); !ok {
		t.Fatalf("expected scoped plugin name to be a literal")
	}
	if _, ok := Parse("es6.math.*").(Wildcard); !ok {
		t.Fatalf("expected star expression to be a wildcard")
	}
	broken, ok := Parse("es6.(promise").(Wildcard)
	if !ok {
		t.Fatalf("expected malformed expression to be a wildcard")
	}
	if broken.Valid() || broken.Matches("es6.promise") {
		t.Fatalf("expected malformed expression to match nothing")
	}
}

func TestLiteralMatchesNormalizedName(t *testing.T) {
	p := Parse("babel-plugin-transform-spread")
	if !p.Matches("transform-spread") {
		t.Fatalf("expected literal to match normalized plugin name")
	}
	if p.Raw() != "babel-plugin-transform-spread" {
		t.Fatalf("expected raw pattern to be kept, got %q", p.Raw())
	}
}

func TestExpandLiteralAndWildcard(t *testing.T) {
	reg := catalog.Default()
	got, err := Expand("include", []string{"transform-spread", "es.math.(sign|trunc)"}, reg.WithCoreJS3())
	if err != nil {
		t.Fatalf(expandErrFmt, err)
	}
	want := []string{"es.math.sign", "es.math.trunc", "transform-spread"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestExpandWildcardIsAnchored(t *testing.T) {
	got, err := Expand("include", []string{"transform-for-.*"}, catalog.Default().WithoutPolyfill())
	if err != nil {
		t.Fatalf(expandErrFmt, err)
	}
	if len(got) != 1 || got[0] != "transform-for-of" {
		t.Fatalf("expected only transform-for-of, got %v", got)
	}
}

func TestExpandEmptyInput(t *testing.T) {
	got, err := Expand("exclude", nil, catalog.Default().WithoutPolyfill())
	if err != nil {
		t.Fatalf(expandErrFmt, err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil result, got %#v", got)
	}
}

func TestExpandAggregatesUnmatchedPatterns(t *testing.T) {
	_, err := Expand("include", []string{"es.promise", "nope", "transform-spread", "(broken"}, catalog.Default().WithCoreJS2())
	if err == nil {
		t.Fatalf("expected unmatched pattern error")
	}
	if !errors.Is(err, ErrUnmatched) {
		t.Fatalf("expected ErrUnmatched, got %v", err)
	}
	var unmatched *UnmatchedError
	if !errors.As(err, &unmatched) {
		t.Fatalf("expected *UnmatchedError, got %T", err)
	}
	if strings.Join(unmatched.Patterns, ",") != "es.promise,nope,(broken" {
		t.Fatalf("expected every unmatched pattern, got %v", unmatched.Patterns)
	}
	for _, part := range []string{"'include'", "es.promise, nope, (broken", "data/corejs2-built-ins.json"} {
		if !strings.Contains(err.Error(), part) {
			t.Fatalf("expected %q in message, got %q", part, err.Error())
		}
	}
}

func TestExpandIsMonotonicAcrossCatalogs(t *testing.T) {
	reg := catalog.Default()
	patterns := []string{"transform-.*", "web\\..*"}
	small, err := Expand("include", patterns, reg.WithCoreJS2())
	if err != nil {
		t.Fatalf(expandErrFmt, err)
	}
	large, err := Expand("include", patterns[:1], reg.WithCoreJS3())
	if err != nil {
		t.Fatalf(expandErrFmt, err)
	}
	seen := make(map[string]bool, len(large))
	for _, name := range large {
		seen[name] = true
	}
	for _, name := range small {
		if strings.HasPrefix(name, "transform-") && !seen[name] {
			t.Fatalf("expected %s in corejs-3 expansion", name)
		}
	}
}

func TestCompileIsMemoized(t *testing.T) {
	first := compile("es\\.map")
	second := compile("es\\.map")
	if first == nil || first != second {
		t.Fatalf("expected cached compiled matcher to be reused")
	}
}
