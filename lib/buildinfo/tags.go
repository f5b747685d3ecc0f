// Package buildinfo describes the platform adbctl runs on and how it
// was built.
package buildinfo

import (
	"sort"
	"strings"
)

// Tags are the build tags the binary was built with. Files guarded by
// a tag add it in init.
var Tags []string

// GetLinkingAndTags returns "dynamic" for a cgo build, "static"
// otherwise, and the other tags sorted and space separated, or "none".
func GetLinkingAndTags() (linking, tagString string) {
	linking = "static"
	var rest []string
	for _, tag := range Tags {
		if tag == "cgo" {
			linking = "dynamic"
			continue
		}
		rest = append(rest, tag)
	}
	if len(rest) == 0 {
		return linking, "none"
	}
	sort.Strings(rest)
	return linking, strings.Join(rest, " ")
}
