package options

import (
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"
)

// checkConflicts fails when a name is both included and excluded, listing
// every such name.
func checkConflicts(include, exclude []string) error {
	duplicates := lo.Uniq(lo.Intersect(include, exclude))
	if len(duplicates) == 0 {
		return nil
	}
	sort.Strings(duplicates)
	return &Error{
		Option:  OptInclude,
		Message: fmt.Sprintf("the plugins/built-ins '%s' were found in both the \"include\" and \"exclude\" options", strings.Join(duplicates, ", ")),
		kind:    ErrConflict,
	}
}
