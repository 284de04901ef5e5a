package names

import "strings"

var scopePrefixes = []string{"@babel/", "babel-"}

const pluginInfix = "plugin-"

// Normalize strips the ecosystem prefixes a plugin or package may be
// referenced by, so "@babel/plugin-transform-spread",
// "babel-plugin-transform-spread" and "transform-spread" compare equal.
func Normalize(name string) string {
	for _, prefix := range scopePrefixes {
		if rest, ok := strings.CutPrefix(name, prefix); ok {
			return strings.TrimPrefix(rest, pluginInfix)
		}
	}
	return name
}
