// SPDX-License-Identifier: EPL-2.0

package transition

import (
	"fmt"
	"strconv"
	"time"
)

// Kind tags the type held by a Value.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindDuration
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindDuration:
		return "duration"
	default:
		return "invalid"
	}
}

// Scalar lists the Go types a parameter may hold.
type Scalar interface {
	bool | int | float64 | string | time.Duration
}

// Value is a tagged parameter value. Only the field selected by kind is
// meaningful.
type Value struct {
	kind Kind
	num  int64
	f    float64
	s    string
}

// ValueOf wraps v with the Kind matching its type.
func ValueOf[T Scalar](v T) Value {
	switch x := any(v).(type) {
	case bool:
		var n int64
		if x {
			n = 1
		}
		return Value{kind: KindBool, num: n}
	case int:
		return Value{kind: KindInt, num: int64(x)}
	case float64:
		return Value{kind: KindFloat, f: x}
	case string:
		return Value{kind: KindString, s: x}
	case time.Duration:
		return Value{kind: KindDuration, num: int64(x)}
	}
	return Value{}
}

// kindOf returns the Kind a T is stored under.
func kindOf[T Scalar]() Kind {
	var zero T
	return ValueOf(zero).kind
}

// Get unwraps v as a T. It reports false when v holds another kind.
func Get[T Scalar](v Value) (T, bool) {
	var out T
	if v.kind != kindOf[T]() {
		return out, false
	}

	switch p := any(&out).(type) {
	case *bool:
		*p = v.num != 0
	case *int:
		*p = int(v.num)
	case *float64:
		*p = v.f
	case *string:
		*p = v.s
	case *time.Duration:
		*p = time.Duration(v.num)
	}
	return out, true
}

// Kind returns the tag.
func (v Value) Kind() Kind { return v.kind }

func (v Value) String() string {
	switch v.kind {
	case KindBool:
		return strconv.FormatBool(v.num != 0)
	case KindInt:
		return strconv.FormatInt(v.num, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindString:
		return v.s
	case KindDuration:
		return time.Duration(v.num).String()
	default:
		return fmt.Sprintf("%%!(%s)", v.kind)
	}
}
