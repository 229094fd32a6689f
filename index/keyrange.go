package index

import (
	"encoding/json"
	"fmt"
)

// KeyRange is an interval over the key space. A side set to Unbound is
// open. Bounds are expressed in natural value order regardless of the
// direction of the index that evaluates them.
type KeyRange struct {
	From        Key
	To          Key
	ExcludeFrom bool
	ExcludeTo   bool
}

var allRange = &KeyRange{From: Unbound, To: Unbound}

// All returns the shared unbounded range. It must not be modified.
func All() *KeyRange {
	return allRange
}

// NewKeyRange builds a range, pass Unbound for an open side.
func NewKeyRange(from, to Key, excludeFrom, excludeTo bool) *KeyRange {
	return &KeyRange{
		From:        normalizeKey(from),
		To:          normalizeKey(to),
		ExcludeFrom: excludeFrom,
		ExcludeTo:   excludeTo,
	}
}

// Only matches exactly one key.
func Only(key Key) *KeyRange {
	return NewKeyRange(key, key, false, false)
}

// LowerBound matches every key above key (or equal, unless exclude).
func LowerBound(key Key, exclude bool) *KeyRange {
	return NewKeyRange(key, Unbound, exclude, false)
}

// UpperBound matches every key below key (or equal, unless exclude).
func UpperBound(key Key, exclude bool) *KeyRange {
	return NewKeyRange(Unbound, key, false, exclude)
}

func (r *KeyRange) IsAll() bool {
	return isUnbound(r.From) && isUnbound(r.To)
}

// IsOnly reports whether the range matches a single key.
func (r *KeyRange) IsOnly() bool {
	if hasUnbound(r.From) || hasUnbound(r.To) || r.ExcludeFrom || r.ExcludeTo {
		return false
	}
	return CompareValues(r.From, r.To) == 0
}

// hasUnbound is true for Unbound and for tuples with an Unbound component.
func hasUnbound(k Key) bool {
	if isUnbound(k) {
		return true
	}
	if t, ok := k.(Tuple); ok {
		for _, c := range t {
			if hasUnbound(c) {
				return true
			}
		}
	}
	return false
}

// Contains tests key against both bounds in natural value order.
func (r *KeyRange) Contains(key Key) bool {
	return r.normalized().contains(normalizeKey(key))
}

func (r *KeyRange) normalized() *KeyRange {
	if r == allRange {
		return r
	}
	return &KeyRange{
		From:        normalizeKey(r.From),
		To:          normalizeKey(r.To),
		ExcludeFrom: r.ExcludeFrom,
		ExcludeTo:   r.ExcludeTo,
	}
}

// contains expects a normalized receiver and key.
func (r *KeyRange) contains(key Key) bool {
	c := compareToBound(key, r.From, false)
	if c < 0 || (c == 0 && r.ExcludeFrom) {
		return false
	}
	c = compareToBound(key, r.To, true)
	if c > 0 || (c == 0 && r.ExcludeTo) {
		return false
	}
	return true
}

// compareToBound compares key with one side of a range. Unbound (also as a
// tuple component) is -inf for a lower side and +inf for an upper side.
func compareToBound(key, bound Key, upper bool) int {
	if isUnbound(bound) {
		if upper {
			return -1
		}
		return 1
	}
	kt, ok := key.(Tuple)
	bt, ok2 := bound.(Tuple)
	if !ok || !ok2 {
		return compareNormalized(key, bound)
	}
	for i := 0; i < len(kt) && i < len(bt); i++ {
		if c := compareToBound(kt[i], bt[i], upper); c != 0 {
			return c
		}
	}
	return cmpInt(len(kt), len(bt))
}

// Complement returns the ranges that together match every key this range
// does not. Used to express `!=` predicates.
func (r *KeyRange) Complement() []*KeyRange {
	result := []*KeyRange{}
	if !isUnbound(r.From) {
		result = append(result, UpperBound(r.From, !r.ExcludeFrom))
	}
	if !isUnbound(r.To) {
		result = append(result, LowerBound(r.To, !r.ExcludeTo))
	}
	return result
}

func (r *KeyRange) String() string {
	left, right := "[", "]"
	if r.ExcludeFrom {
		left = "("
	}
	if r.ExcludeTo {
		right = ")"
	}
	return fmt.Sprintf("%s%v, %v%s", left, r.From, r.To, right)
}

type keyRangeJSON struct {
	From        *json.RawMessage `json:"from,omitempty"`
	To          *json.RawMessage `json:"to,omitempty"`
	ExcludeFrom bool             `json:"exclude_from,omitempty"`
	ExcludeTo   bool             `json:"exclude_to,omitempty"`
}

// MarshalJSON omits unbound sides.
func (r *KeyRange) MarshalJSON() ([]byte, error) {
	out := keyRangeJSON{
		ExcludeFrom: r.ExcludeFrom,
		ExcludeTo:   r.ExcludeTo,
	}
	for _, side := range []struct {
		key Key
		dst **json.RawMessage
	}{{r.From, &out.From}, {r.To, &out.To}} {
		if isUnbound(side.key) {
			continue
		}
		b, err := json.Marshal(side.key)
		if err != nil {
			return nil, fmt.Errorf("marshal bound: %w", err)
		}
		raw := json.RawMessage(b)
		*side.dst = &raw
	}
	return json.Marshal(out)
}

// UnmarshalJSON treats an absent side as unbound. An explicit null is a
// null key.
func (r *KeyRange) UnmarshalJSON(data []byte) error {
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	*r = KeyRange{From: Unbound, To: Unbound}

	for name, raw := range fields {
		var err error
		switch name {
		case "from":
			r.From, err = decodeBound(raw)
		case "to":
			r.To, err = decodeBound(raw)
		case "exclude_from":
			err = json.Unmarshal(raw, &r.ExcludeFrom)
		case "exclude_to":
			err = json.Unmarshal(raw, &r.ExcludeTo)
		}
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

func decodeBound(raw json.RawMessage) (Key, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return normalizeKey(v), nil
}
