package importer

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Kind identifies which variant a Value holds.
type Kind int

const (
	KindMissing Kind = iota
	KindNull
	KindString
	KindNumber
	KindBool
	KindSequence
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindMissing:
		return "missing"
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindSequence:
		return "sequence"
	case KindObject:
		return "object"
	}
	return "unknown"
}

// Value is a loosely typed input value as found in an import document.
// The zero Value is KindMissing.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
	seq  []Value
	obj  map[string]Value
}

// Missing, Null, String, Number, Bool, Sequence and Object construct Values.
func Missing() Value             { return Value{} }
func Null() Value                { return Value{kind: KindNull} }
func String(s string) Value      { return Value{kind: KindString, str: s} }
func Number(f float64) Value     { return Value{kind: KindNumber, num: f} }
func Bool(b bool) Value          { return Value{kind: KindBool, b: b} }
func Sequence(vs ...Value) Value { return Value{kind: KindSequence, seq: vs} }
func Object(m map[string]Value) Value {
	if m == nil {
		m = map[string]Value{}
	}
	return Value{kind: KindObject, obj: m}
}

// FromAny converts a value produced by encoding/json or yaml.v3 decoding.
func FromAny(v any) Value {
	switch x := v.(type) {
	case nil:
		return Null()
	case Value:
		return x
	case string:
		return String(x)
	case bool:
		return Bool(x)
	case float64:
		return Number(x)
	case float32:
		return Number(float64(x))
	case int:
		return Number(float64(x))
	case int64:
		return Number(float64(x))
	case int32:
		return Number(float64(x))
	case uint:
		return Number(float64(x))
	case uint64:
		return Number(float64(x))
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return String(x.String())
		}
		return Number(f)
	case time.Time:
		// Typed decoders may hand over timestamps; keep them as ISO strings.
		return String(x.UTC().Format(ISOLayout))
	case []any:
		seq := make([]Value, len(x))
		for i, e := range x {
			seq[i] = FromAny(e)
		}
		return Sequence(seq...)
	case map[string]any:
		obj := make(map[string]Value, len(x))
		for k, e := range x {
			obj[k] = FromAny(e)
		}
		return Object(obj)
	case map[any]any:
		obj := make(map[string]Value, len(x))
		for k, e := range x {
			obj[fmt.Sprint(k)] = FromAny(e)
		}
		return Object(obj)
	}
	return String(fmt.Sprint(v))
}

// Kind returns the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsObject reports whether v is a structured object.
func (v Value) IsObject() bool { return v.kind == KindObject }

// Truthy follows loose truthiness: missing, null, the empty string, zero,
// NaN and false are falsy; sequences and objects are always truthy.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindString:
		return v.str != ""
	case KindNumber:
		return v.num != 0 && !math.IsNaN(v.num)
	case KindBool:
		return v.b
	case KindSequence, KindObject:
		return true
	}
	return false
}

// Field returns the named field of an object, or Missing.
func (v Value) Field(name string) Value {
	if v.kind != KindObject {
		return Missing()
	}
	return v.obj[name]
}

// Fields returns the fields of an object, or nil. The map must not be
// modified.
func (v Value) Fields() map[string]Value {
	if v.kind != KindObject {
		return nil
	}
	return v.obj
}

// Str returns the string payload and whether v is a string.
func (v Value) Str() (string, bool) {
	return v.str, v.kind == KindString
}

// Num returns the numeric payload and whether v is a number.
func (v Value) Num() (float64, bool) {
	return v.num, v.kind == KindNumber
}

// Items returns the elements of a sequence, or nil.
func (v Value) Items() []Value {
	if v.kind != KindSequence {
		return nil
	}
	return v.seq
}

// Text coerces v to its string form the way a loose String() conversion
// would: shortest number form, "true"/"false", "null", comma-joined
// sequences and "[object Object]" for objects.
func (v Value) Text() string {
	switch v.kind {
	case KindMissing:
		return "undefined"
	case KindNull:
		return "null"
	case KindString:
		return v.str
	case KindNumber:
		return formatNumber(v.num)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindSequence:
		parts := make([]string, len(v.seq))
		for i, e := range v.seq {
			// Nested null/missing elements join as empty strings.
			if e.kind == KindNull || e.kind == KindMissing {
				continue
			}
			parts[i] = e.Text()
		}
		return strings.Join(parts, ",")
	case KindObject:
		return "[object Object]"
	}
	return ""
}

// Any converts v back into plain Go values.
func (v Value) Any() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return v.num
	case KindBool:
		return v.b
	case KindSequence:
		out := make([]any, len(v.seq))
		for i, e := range v.seq {
			out[i] = e.Any()
		}
		return out
	case KindObject:
		out := make(map[string]any, len(v.obj))
		for k, e := range v.obj {
			if e.kind == KindMissing {
				continue
			}
			out[k] = e.Any()
		}
		return out
	}
	return nil
}

func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
