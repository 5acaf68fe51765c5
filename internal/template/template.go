// Package template renders {{variable}} placeholders in hook templates.
package template

import "regexp"

var placeholder = regexp.MustCompile(`\{\{(\w+)\}\}`)

// Lookuper resolves a variable name to its value. The boolean is false when
// the variable is unknown or absent.
type Lookuper interface {
	Lookup(name string) (string, bool)
}

// Vars is a Lookuper over a plain map
type Vars map[string]string

// Lookup implements Lookuper
func (v Vars) Lookup(name string) (string, bool) {
	value, ok := v[name]
	return value, ok
}

// Substitute replaces every {{name}} in tmpl with its value from vars.
// Absent or unknown variables become the empty string. Substituted values
// are never scanned again, so a value containing {{x}} is emitted as is.
func Substitute(tmpl string, vars Lookuper) string {
	if vars == nil {
		vars = Vars{}
	}

	return placeholder.ReplaceAllStringFunc(tmpl, func(match string) string {
		name := match[2 : len(match)-2]
		value, ok := vars.Lookup(name)
		if !ok {
			return ""
		}
		return value
	})
}
