package decode

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/starford/namohub/internal/importer"
)

func TestRecords_JSONArray(t *testing.T) {
	recs, err := Records([]byte(`[{"title":"One","completeness":40}, null]`), FormatAuto)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("len = %d, want 2", len(recs))
	}
	if recs[0].Field("title").Text() != "One" {
		t.Errorf("title = %q", recs[0].Field("title").Text())
	}
	if n, ok := recs[0].Field("completeness").Num(); !ok || n != 40 {
		t.Errorf("completeness = %v (%v)", n, ok)
	}
	if recs[1].Kind() != importer.KindNull {
		t.Errorf("kind = %v, want null", recs[1].Kind())
	}
}

func TestRecords_YAMLArray(t *testing.T) {
	doc := "- title: One\n  content: step one\n  tags: [a, b]\n  createdAt: 2024-01-02T03:04:05Z\n- just a string\n"
	recs, err := Records([]byte(doc), FormatAuto)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("len = %d, want 2", len(recs))
	}
	if got := recs[0].Field("tags").Text(); got != "a,b" {
		t.Errorf("tags = %q", got)
	}
	if got := recs[0].Field("createdAt").Text(); got != "2024-01-02T03:04:05Z" {
		t.Errorf("createdAt = %q", got)
	}
	if recs[1].IsObject() {
		t.Error("second record should not be an object")
	}
}

func TestRecords_YAMLScalarsKeepSourceText(t *testing.T) {
	doc := "- title: 2024-01-02\n" +
		"  createdAt: 2024-01-02T10:04:05+07:00\n" +
		"  completeness: 40\n" +
		"  author: ~\n" +
		"  id: '17'\n" +
		"  nature: yes\n"
	recs, err := Records([]byte(doc), FormatYAML)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rec := recs[0]
	if s, ok := rec.Field("title").Str(); !ok || s != "2024-01-02" {
		t.Errorf("title = %q (string %v), want verbatim date", s, ok)
	}
	if s, ok := rec.Field("createdAt").Str(); !ok || s != "2024-01-02T10:04:05+07:00" {
		t.Errorf("createdAt = %q (string %v), want verbatim timestamp", s, ok)
	}
	if n, ok := rec.Field("completeness").Num(); !ok || n != 40 {
		t.Errorf("completeness = %v (%v)", n, ok)
	}
	if k := rec.Field("author").Kind(); k != importer.KindNull {
		t.Errorf("author kind = %v, want null", k)
	}
	if s, ok := rec.Field("id").Str(); !ok || s != "17" {
		t.Errorf("quoted id = %q (string %v)", s, ok)
	}
	// yaml.v3 follows YAML 1.2: "yes" is a string, not a bool.
	if s, ok := rec.Field("nature").Str(); !ok || s != "yes" {
		t.Errorf("nature = %q (string %v)", s, ok)
	}
}

func TestRecords_YAMLAnchorsAndMerges(t *testing.T) {
	doc := "- &base\n" +
		"  title: Base\n" +
		"  domain: Research\n" +
		"- <<: *base\n" +
		"  title: Derived\n" +
		"- *base\n"
	recs, err := Records([]byte(doc), FormatYAML)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("len = %d, want 3", len(recs))
	}
	if got := recs[1].Field("title").Text(); got != "Derived" {
		t.Errorf("merged title = %q, want explicit key to win", got)
	}
	if got := recs[1].Field("domain").Text(); got != "Research" {
		t.Errorf("merged domain = %q", got)
	}
	if got := recs[2].Field("title").Text(); got != "Base" {
		t.Errorf("alias title = %q", got)
	}
}

func TestRecords_YAMLSelfReferenceRejected(t *testing.T) {
	doc := "- &loop\n  title: x\n  self: *loop\n"
	_, err := Records([]byte(doc), FormatYAML)
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("err = %v, want ErrMalformed", err)
	}
}

func TestRecords_YAMLAliasBomb(t *testing.T) {
	var b strings.Builder
	b.WriteString("a0: &a0 [x, x, x, x, x, x, x, x, x, x]\n")
	for i := 1; i < 9; i++ {
		fmt.Fprintf(&b, "a%d: &a%d [", i, i)
		for j := 0; j < 10; j++ {
			if j > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "*a%d", i-1)
		}
		b.WriteString("]\n")
	}
	b.WriteString("items: [*a8]\n")
	_, err := Records([]byte(b.String()), FormatYAML)
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("err = %v, want ErrMalformed", err)
	}
}

func TestRecords_EmptyArrays(t *testing.T) {
	for _, in := range []string{"[]", "[]\n# nothing here\n"} {
		recs, err := Records([]byte(in), FormatAuto)
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", in, err)
		}
		if recs == nil || len(recs) != 0 {
			t.Errorf("%q: recs = %v, want empty non-nil", in, recs)
		}
	}
}

func TestRecords_NotArray(t *testing.T) {
	for _, in := range []string{`{"title":"x"}`, `42`, `"str"`, "title: x\n"} {
		_, err := Records([]byte(in), FormatAuto)
		if !errors.Is(err, ErrNotArray) {
			t.Errorf("%q: err = %v, want ErrNotArray", in, err)
		}
	}
}

func TestRecords_Malformed(t *testing.T) {
	for _, in := range []string{"", "   ", "[1, 2", "hello world"} {
		_, err := Records([]byte(in), FormatAuto)
		if !errors.Is(err, ErrMalformed) {
			t.Errorf("%q: err = %v, want ErrMalformed", in, err)
		}
	}
}

func TestRecords_ForcedJSONRejectsYAML(t *testing.T) {
	_, err := Records([]byte("- a\n- b\n"), FormatJSON)
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("err = %v, want ErrMalformed", err)
	}
}

func TestFormatFromName(t *testing.T) {
	cases := map[string]Format{
		"items.yaml":       FormatYAML,
		"items.YML":        FormatYAML,
		"application/json": FormatJSON,
		"data.json":        FormatJSON,
		"text/plain":       FormatAuto,
	}
	for in, want := range cases {
		if got := FormatFromName(in); got != want {
			t.Errorf("FormatFromName(%q) = %q, want %q", in, got, want)
		}
	}
}
