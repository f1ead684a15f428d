package relation

import (
	"fmt"
	"strings"
)

// Kind names the role one person takes towards another.
type Kind int

const (
	Parent Kind = iota
	Child
	Spouse
	Sibling
	// Parents is the two-parent form: both named people become parents.
	Parents
)

var kindNames = map[Kind]string{
	Parent:  "parent",
	Child:   "child",
	Spouse:  "spouse",
	Sibling: "sibling",
	Parents: "parents",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind accepts the kind names case-insensitively.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown relation type %q (want parent, child, sibling, spouse or parents)", s)
}

// Wrapper for a relation of the selected person to be used in bubbles/list
type RelationItem struct {
	Label     string // parent, child, spouse, previous spouse, sibling, cousin, grandparent
	OtherName string
	Details   string
}

func (r RelationItem) Title() string {
	icon := "⚪"
	switch r.Label {
	case "parent", "grandparent":
		icon = "🔵"
	case "child", "grandchild":
		icon = "🟢"
	case "spouse":
		icon = "🔴"
	case "previous spouse":
		icon = "🟤"
	case "sibling", "cousin":
		icon = "🟡"
	}
	return fmt.Sprintf("%s %s (%s)", icon, r.OtherName, r.Label)
}
func (r RelationItem) Description() string { return r.Details }
func (r RelationItem) FilterValue() string { return r.OtherName + " " + r.Label }
