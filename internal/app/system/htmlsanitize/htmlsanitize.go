// internal/app/system/htmlsanitize/htmlsanitize.go
package htmlsanitize

import "github.com/microcosm-cc/bluemonday"

// strict strips all HTML. Operator-supplied values (display names, project
// names) pass through here before they are interpolated into email bodies.
var strict = bluemonday.StrictPolicy()

// Strip removes every HTML element and attribute from s, returning plain
// text only.
func Strip(s string) string {
	return strict.Sanitize(s)
}
