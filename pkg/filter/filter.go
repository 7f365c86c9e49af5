// Package filter matches hierarchy items against a user-supplied spec,
// either a literal name set ("{a,b,c}" or a bare name) or a regular
// expression ("/pattern/flags").
package filter

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tejusbharadwaj/sensorbridge/pkg/models"
)

// Spec is a filter specification parsed exactly once at the API boundary.
// A Spec is either in regex mode or in literal-set mode, never both.
type Spec struct {
	raw      string
	re       *regexp.Regexp
	literals map[string]struct{}
	matchAll bool
}

var regexSpec = regexp.MustCompile(`^/(.*)/([a-z]*)$`)

// Parse classifies raw as a regex or a literal set. A spec of the form
// "/pattern/flags" compiles as a regex (flags i, m and s map to Go inline
// flags); anything else is a literal set, "{a,b,c}" style braces and comma
// separation optional. An empty set matches everything.
func Parse(raw string) (Spec, error) {
	if m := regexSpec.FindStringSubmatch(raw); m != nil {
		pattern := m[1]
		if flags := parseFlags(m[2]); flags != "" {
			pattern = "(?" + flags + ")" + pattern
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return Spec{}, fmt.Errorf("invalid filter regex %q: %w", raw, err)
		}
		return Spec{raw: raw, re: re}, nil
	}

	body := strings.TrimPrefix(raw, "{")
	body = strings.TrimSuffix(body, "}")
	if strings.TrimSpace(body) == "" {
		return Spec{raw: raw, matchAll: true}, nil
	}

	literals := make(map[string]struct{})
	for _, name := range strings.Split(body, ",") {
		literals[name] = struct{}{}
	}

	return Spec{raw: raw, literals: literals}, nil
}

// Match reports whether a single name satisfies the spec, ignoring
// inversion.
func (s Spec) Match(name string) bool {
	switch {
	case s.matchAll:
		return true
	case s.re != nil:
		return s.re.MatchString(name)
	default:
		_, ok := s.literals[name]
		return ok
	}
}

// IsRegex reports whether the spec was classified as a regular expression.
func (s Spec) IsRegex() bool { return s.re != nil }

// Literals returns the literal match set, nil in regex or match-all mode.
func (s Spec) Literals() []string {
	if s.literals == nil {
		return nil
	}
	out := make([]string, 0, len(s.literals))
	for name := range s.literals {
		out = append(out, name)
	}
	return out
}

func (s Spec) String() string { return s.raw }

// Apply returns the items accepted by spec, in input order. Items that
// cannot be classified to a hierarchy level are excluded unconditionally,
// even when invert is set. The input slice is never mutated.
func Apply(items []models.HierarchyItem, spec Spec, invert bool) []models.HierarchyItem {
	out := make([]models.HierarchyItem, 0, len(items))
	for _, item := range items {
		name, ok := compareField(item)
		if !ok {
			continue
		}
		if spec.Match(name) != invert {
			out = append(out, item)
		}
	}
	return out
}

// compareField selects the name to filter on by hierarchy depth: the
// deepest non-empty identity field wins.
func compareField(item models.HierarchyItem) (string, bool) {
	switch {
	case item.Group != "" && item.Device == "":
		return item.Group, true
	case item.Device != "" && item.Sensor == "":
		return item.Device, true
	case item.Sensor != "" && item.Name == "":
		return item.Sensor, true
	case item.Name != "":
		return item.Name, true
	default:
		return "", false
	}
}

func parseFlags(flags string) string {
	var out strings.Builder
	for _, f := range flags {
		switch f {
		case 'i', 'm', 's':
			out.WriteRune(f)
		}
	}
	return out.String()
}
