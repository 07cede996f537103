package reviews

import (
	"strings"

	"github.com/tidwall/gjson"
)

// Kind classifies a node of a captured payload tree
type Kind int

const (
	Scalar Kind = iota
	List
	Object
)

func (k Kind) String() string {
	switch k {
	case List:
		return "list"
	case Object:
		return "object"
	default:
		return "scalar"
	}
}

// RecordPrefix marks the identifier that opens every review record
const RecordPrefix = "Ch"

// KindOf reports whether n is a list, an object or a scalar
func KindOf(n gjson.Result) Kind {
	switch {
	case n.IsArray():
		return List
	case n.IsObject():
		return Object
	default:
		return Scalar
	}
}

// IsRecord reports whether n has the shape of a review record: a list longer
// than three whose head is a "Ch" identifier followed by a list.
func IsRecord(n gjson.Result) bool {
	if KindOf(n) != List {
		return false
	}
	elems := n.Array()
	if len(elems) <= 3 {
		return false
	}
	head := elems[0]
	if head.Type != gjson.String || !strings.HasPrefix(head.Str, RecordPrefix) {
		return false
	}
	return KindOf(elems[1]) == List
}
