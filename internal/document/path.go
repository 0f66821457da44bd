package document

import (
	"strconv"
	"strings"
)

// Path addresses a value in the document tree, one segment per level.
// Array elements are addressed by their decimal index.
type Path []string

// ParsePath splits dotted notation ("elements.a.attrs.color") into a Path.
func ParsePath(s string) Path {
	if s == "" {
		return nil
	}
	return Path(strings.Split(s, "."))
}

// P builds a Path from segments.
func P(segments ...string) Path {
	return Path(segments)
}

func (p Path) String() string {
	return strings.Join(p, ".")
}

// IsRoot reports whether p addresses the whole document.
func (p Path) IsRoot() bool { return len(p) == 0 }

// Parent returns the path of the containing value.
func (p Path) Parent() Path {
	if len(p) == 0 {
		return nil
	}
	return p[:len(p)-1:len(p)-1]
}

// Last returns the final segment, or "" for the root.
func (p Path) Last() string {
	if len(p) == 0 {
		return ""
	}
	return p[len(p)-1]
}

// Child returns a new path with segments appended.
func (p Path) Child(segments ...string) Path {
	out := make(Path, 0, len(p)+len(segments))
	out = append(out, p...)
	return append(out, segments...)
}

// Index parses the final segment as an array index.
func (p Path) Index() (int, bool) {
	n, err := strconv.Atoi(p.Last())
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// query renders the path in gjson/sjson syntax, escaping metacharacters.
func (p Path) query() string {
	var sb strings.Builder
	for i, seg := range p {
		if i > 0 {
			sb.WriteByte('.')
		}
		for _, r := range seg {
			switch r {
			case '.', '*', '?', '|', '#', '@', '\\', '!', '=', '<', '>', '%':
				sb.WriteByte('\\')
			}
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func (p Path) valid() bool {
	for _, seg := range p {
		if seg == "" {
			return false
		}
	}
	return true
}
