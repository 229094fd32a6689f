package index

import (
	"fmt"
	"math"
	"strings"
	"time"

	json2 "github.com/go-json-experiment/json"
)

// Key is any value an index can bucket rows by. See normalizeKey for the
// accepted kinds.
type Key = any

// RowID identifies a stored row, independently of any index.
type RowID = int64

// Tuple is a composite (multi column) key.
type Tuple []any

type unbound struct{}

func (unbound) String() string { return "<unbound>" }

// Unbound marks an open side of a KeyRange. Inside a Tuple bound it stands
// for -inf (lower bound) or +inf (upper bound) for that component.
var Unbound Key = unbound{}

func isUnbound(k Key) bool {
	_, ok := k.(unbound)
	return ok
}

// kind ranks, also the cross kind order
const (
	kindNil = iota
	kindBool
	kindNumber
	kindString
	kindTime
	kindTuple
	kindUnbound
)

func kindOf(k Key) int {
	switch k.(type) {
	case nil:
		return kindNil
	case bool:
		return kindBool
	case float64, notANumber:
		return kindNumber
	case string:
		return kindString
	case time.Time:
		return kindTime
	case Tuple:
		return kindTuple
	case unbound:
		return kindUnbound
	}
	panic(fmt.Sprintf("index: key %T was not normalized", k))
}

// notANumber is the canonical NaN key. It is a number that sorts before
// every other number and equals itself.
type notANumber struct{}

func (notANumber) String() string { return "NaN" }

func (notANumber) MarshalJSON() ([]byte, error) { return []byte(`"NaN"`), nil }

// NaN is the normalized form of every NaN value.
var NaN Key = notANumber{}

// normalizeKey maps any accepted value to its canonical form: integers and
// floats become float64 (-0 becomes 0, NaN becomes NaN), times are UTC
// without monotonic reading, []any becomes Tuple. Anything else is stored
// as its fmt representation.
func normalizeKey(k Key) Key {
	switch v := k.(type) {
	case nil, bool, string, unbound, notANumber:
		return v
	case float64:
		return normalizeFloat(v)
	case int:
		return float64(v)
	case int8:
		return float64(v)
	case int16:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	case uint:
		return float64(v)
	case uint8:
		return float64(v)
	case uint16:
		return float64(v)
	case uint32:
		return float64(v)
	case uint64:
		return float64(v)
	case float32:
		return normalizeFloat(float64(v))
	case time.Time:
		return v.UTC().Round(0)
	case Tuple:
		out := make(Tuple, len(v))
		for i, c := range v {
			out[i] = normalizeKey(c)
		}
		return out
	case []any:
		return normalizeKey(Tuple(v))
	case fmt.Stringer:
		return v.String()
	}
	return fmt.Sprint(k)
}

func normalizeFloat(f float64) Key {
	if math.IsNaN(f) {
		return NaN
	}
	if f == 0 {
		return float64(0)
	}
	return f
}

// hashKey returns a comparable value usable as a Go map key. Scalars are
// their own hash; tuples are encoded with their component kinds so that
// "1" and 1 never collide.
func hashKey(k Key) any {
	t, ok := k.(Tuple)
	if !ok {
		return k
	}
	tagged := make([]any, 0, len(t))
	for _, c := range t {
		if inner, ok := c.(Tuple); ok {
			tagged = append(tagged, []any{kindTuple, hashKey(inner)})
			continue
		}
		kind := kindOf(c)
		switch v := c.(type) {
		case time.Time:
			c = v.UnixNano()
		case unbound:
			c = nil
		case notANumber:
			c = "NaN"
		}
		tagged = append(tagged, []any{kind, c})
	}
	b, err := json2.Marshal(tagged, json2.Deterministic(true))
	if err != nil {
		return "tuple:" + fmt.Sprint(tagged...)
	}
	return "tuple:" + string(b)
}

// CompareValues orders two keys by their natural (ascending) order and
// returns -1, 0 or 1. Both keys are normalized first.
func CompareValues(a, b Key) int {
	return compareNormalized(normalizeKey(a), normalizeKey(b))
}

func compareNormalized(a, b Key) int {
	ka, kb := kindOf(a), kindOf(b)
	if ka != kb {
		return cmpInt(ka, kb)
	}

	if ka == kindNumber {
		_, aNaN := a.(notANumber)
		_, bNaN := b.(notANumber)
		switch {
		case aNaN && bNaN:
			return 0
		case aNaN:
			return -1
		case bNaN:
			return 1
		}
	}

	switch va := a.(type) {
	case nil, unbound:
		return 0
	case bool:
		vb := b.(bool)
		if va == vb {
			return 0
		}
		if !va {
			return -1
		}
		return 1
	case float64:
		vb := b.(float64)
		switch {
		case va < vb:
			return -1
		case va > vb:
			return 1
		}
		return 0
	case string:
		return strings.Compare(va, b.(string))
	case time.Time:
		return va.Compare(b.(time.Time))
	case Tuple:
		vb := b.(Tuple)
		for i := 0; i < len(va) && i < len(vb); i++ {
			if c := compareNormalized(va[i], vb[i]); c != 0 {
				return c
			}
		}
		return cmpInt(len(va), len(vb))
	}
	return 0
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
