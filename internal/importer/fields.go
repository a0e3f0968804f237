package importer

import (
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/starford/namohub/internal/classify"
)

// decodeTitle returns the trimmed title when the field is a string, else "".
func decodeTitle(rec Value) string {
	s, ok := rec.Field("title").Str()
	if !ok {
		return ""
	}
	return trimSpace(s)
}

// trimSpace trims the ECMAScript whitespace set: unicode.IsSpace without
// U+0085, plus the byte order mark.
func trimSpace(s string) string {
	return strings.TrimFunc(s, isTrimSpace)
}

func isTrimSpace(r rune) bool {
	if r == '\ufeff' {
		return true
	}
	return r != '\u0085' && unicode.IsSpace(r)
}

// decodeContent returns the content verbatim when the field is a string, else "".
func decodeContent(rec Value) string {
	s, _ := rec.Field("content").Str()
	return s
}

// textOr returns the string form of a truthy field, else def.
func textOr(rec Value, name, def string) string {
	v := rec.Field(name)
	if !v.Truthy() {
		return def
	}
	return v.Text()
}

// completenessOr returns a truthy numeric completeness (or numeric string)
// rounded and clamped to [0,100]. Falsy values and anything non-numeric fall
// back to def.
func completenessOr(rec Value, def int) int {
	v := rec.Field("completeness")
	if !v.Truthy() {
		return def
	}
	var f float64
	switch v.Kind() {
	case KindNumber:
		f, _ = v.Num()
	case KindString:
		s, _ := v.Str()
		parsed, err := strconv.ParseFloat(trimSpace(s), 64)
		if err != nil {
			return def
		}
		f = parsed
	default:
		return def
	}
	switch {
	case math.IsNaN(f):
		return def
	case f > 100:
		return 100
	case f < 0:
		return 0
	}
	return classify.Clamp(int(math.Round(f)))
}

// decodeTags accepts a sequence (elements stringified) or a comma-separated
// string. Pieces are trimmed and empty ones dropped; order is kept.
func decodeTags(rec Value) []string {
	v := rec.Field("tags")
	var raw []string
	switch v.Kind() {
	case KindSequence:
		for _, e := range v.Items() {
			raw = append(raw, e.Text())
		}
	case KindString:
		s, _ := v.Str()
		raw = strings.Split(s, ",")
	}
	out := make([]string, 0, len(raw))
	for _, t := range raw {
		if t = trimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
