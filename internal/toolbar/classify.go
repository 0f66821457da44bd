package toolbar

import "github.com/bethropolis/infograph/internal/element"

// Kind is the classification of a selection.
type Kind int

const (
	KindNone Kind = iota
	KindText
	KindIcon
	KindGeometry
	KindMixed
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindIcon:
		return "icon"
	case KindGeometry:
		return "geometry"
	case KindMixed:
		return "mixed"
	default:
		return "none"
	}
}

// Classify checks every element for the text, icon and geometry
// capabilities. A selection showing exactly one capability is of that kind;
// anything else, including elements with none, is mixed.
func Classify(selection []element.Element) Kind {
	if len(selection) == 0 {
		return KindNone
	}
	var text, icon, geometry bool
	for _, el := range selection {
		if text && icon && geometry {
			break
		}
		if _, ok := el.(element.TextEditable); ok {
			text = true
		}
		if _, ok := el.(element.Iconic); ok {
			icon = true
		}
		if _, ok := el.(element.Geometric); ok {
			geometry = true
		}
	}

	switch {
	case text && !icon && !geometry:
		return KindText
	case icon && !text && !geometry:
		return KindIcon
	case geometry && !text && !icon:
		return KindGeometry
	default:
		return KindMixed
	}
}

// MergeAttributes keeps a key only when every element has it with one
// identical value. Mixed selections merge to nothing.
func MergeAttributes(kind Kind, selection []element.Element) map[string]string {
	merged := make(map[string]string)
	if kind == KindMixed || len(selection) == 0 {
		return merged
	}
	for k, v := range selection[0].Attributes() {
		merged[k] = v
	}
	for _, el := range selection[1:] {
		attrs := el.Attributes()
		for k, v := range merged {
			if other, ok := attrs[k]; !ok || other != v {
				delete(merged, k)
			}
		}
		if len(merged) == 0 {
			break
		}
	}
	return merged
}
