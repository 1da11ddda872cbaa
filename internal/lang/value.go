package lang

import (
	"fmt"
	"regexp"
	"strings"
)

// Kind identifies the runtime type of a Value.
type Kind int

const (
	KindUndefined Kind = iota
	KindNull
	KindEmptyConst
	KindBool
	KindNumber
	KindString
	KindSequence
	KindSet
	KindRegex
)

// Value is the tagged union every expression evaluates to: boolean, number,
// string, ordered sequence, set, the Undefined sentinel, or a regex object.
// null, empty, and false are first-class constants distinct from each other.
type Value struct {
	Kind  Kind
	Bool  bool
	Num   float64
	Str   string
	Items []Value
	Regex *regexp.Regexp
}

func Undefined() Value        { return Value{Kind: KindUndefined} }
func Null() Value             { return Value{Kind: KindNull} }
func EmptyConst() Value       { return Value{Kind: KindEmptyConst} }
func Bool(b bool) Value       { return Value{Kind: KindBool, Bool: b} }
func Number(n float64) Value  { return Value{Kind: KindNumber, Num: n} }
func String(s string) Value   { return Value{Kind: KindString, Str: s} }
func Sequence(v []Value) Value { return Value{Kind: KindSequence, Items: v} }
func Set(v []Value) Value     { return Value{Kind: KindSet, Items: v} }
func RegexValue(re *regexp.Regexp) Value { return Value{Kind: KindRegex, Regex: re} }

func (v Value) length() (int, bool) {
	switch v.Kind {
	case KindSequence, KindSet:
		return len(v.Items), true
	case KindString:
		return len(v.Str), true
	default:
		return 0, false
	}
}

// Equal implements the "=" equality rule: Undefined never equals anything
// (including itself), empty matches any zero-length sequence/set/string,
// null and false are distinct constants compared structurally.
func Equal(a, b Value) bool {
	if a.Kind == KindUndefined || b.Kind == KindUndefined {
		return false
	}
	if a.Kind == KindEmptyConst || b.Kind == KindEmptyConst {
		other := a
		if a.Kind == KindEmptyConst {
			other = b
		}
		if other.Kind == KindEmptyConst {
			return true
		}
		n, ok := other.length()
		return ok && n == 0
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindNull:
		return true
	case KindBool:
		return a.Bool == b.Bool
	case KindNumber:
		return a.Num == b.Num
	case KindString:
		return a.Str == b.Str
	case KindSequence, KindSet:
		if len(a.Items) != len(b.Items) {
			return false
		}
		for i := range a.Items {
			if !Equal(a.Items[i], b.Items[i]) {
				return false
			}
		}
		return true
	case KindRegex:
		return a.Regex != nil && b.Regex != nil && a.Regex.String() == b.Regex.String()
	}
	return false
}

// Identical implements "is": Undefined is equal only to Undefined; every
// other pairing falls back to Equal's structural comparison (without the
// empty-matches-zero-length-container widening, since "is" is an identity
// check between constants, not a container comparison).
func Identical(a, b Value) bool {
	if a.Kind == KindUndefined || b.Kind == KindUndefined {
		return a.Kind == KindUndefined && b.Kind == KindUndefined
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindNull, KindEmptyConst:
		return true
	case KindBool:
		return a.Bool == b.Bool
	case KindNumber:
		return a.Num == b.Num
	case KindString:
		return a.Str == b.Str
	case KindSequence, KindSet:
		return Equal(a, b)
	case KindRegex:
		return Equal(a, b)
	}
	return false
}

// Less reports whether a < b, and whether the two values were orderable at
// all (Number vs Number, String vs String). Undefined and mismatched kinds
// are never orderable.
func Less(a, b Value) (less bool, orderable bool) {
	if a.Kind == KindUndefined || b.Kind == KindUndefined {
		return false, false
	}
	if a.Kind != b.Kind {
		return false, false
	}
	switch a.Kind {
	case KindNumber:
		return a.Num < b.Num, true
	case KindString:
		return a.Str < b.Str, true
	default:
		return false, false
	}
}

// Render produces a human-readable form of v suitable for failure-trail
// messages: strings are single-quoted, sequences/sets are bracketed.
func Render(v Value) string {
	switch v.Kind {
	case KindUndefined:
		return "Undefined"
	case KindNull:
		return "null"
	case KindEmptyConst:
		return "empty"
	case KindBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case KindNumber:
		return trimFloat(v.Num)
	case KindString:
		return "'" + v.Str + "'"
	case KindSequence, KindSet:
		parts := make([]string, len(v.Items))
		for i, it := range v.Items {
			parts[i] = Render(it)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindRegex:
		if v.Regex != nil {
			return "/" + v.Regex.String() + "/"
		}
		return "//"
	default:
		return "?"
	}
}

func trimFloat(n float64) string {
	s := fmt.Sprintf("%g", n)
	return s
}
