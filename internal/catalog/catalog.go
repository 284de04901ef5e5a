package catalog

import (
	"sort"
	"strings"
)

// Catalog is a read-only set of selectable names: transform plugins and,
// depending on the corejs major version, polyfill modules.
type Catalog struct {
	source string
	names  []string
	index  map[string]struct{}
}

func newCatalog(source string, groups ...[]string) Catalog {
	index := make(map[string]struct{})
	for _, group := range groups {
		for _, name := range group {
			index[name] = struct{}{}
		}
	}
	names := make([]string, 0, len(index))
	for name := range index {
		names = append(names, name)
	}
	sort.Strings(names)
	return Catalog{source: source, names: names, index: index}
}

func (c Catalog) Has(name string) bool {
	_, ok := c.index[name]
	return ok
}

// Names returns the catalog members in sorted order. The slice is a copy.
func (c Catalog) Names() []string {
	return append([]string(nil), c.names...)
}

func (c Catalog) Len() int {
	return len(c.names)
}

// Source names the data files the catalog was built from, for diagnostics.
func (c Catalog) Source() string {
	return c.source
}

// Each calls visit for every member in sorted order.
func (c Catalog) Each(visit func(name string)) {
	for _, name := range c.names {
		visit(name)
	}
}

func sourceList(files ...string) string {
	return strings.Join(files, ", ")
}
