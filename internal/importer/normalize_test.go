package importer

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/namohub/internal/classify"
	"github.com/starford/namohub/internal/models"
)

var fixedNow = time.Date(2024, 3, 5, 10, 30, 0, 123_000_000, time.UTC)

func testNormalizer() *Normalizer {
	seq := 0
	return New(
		WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("id-%d", seq)
		}),
		WithClock(func() time.Time { return fixedNow }),
	)
}

// parse decodes a JSON array literal into records.
func parse(t *testing.T, doc string) []Value {
	t.Helper()
	var raw []any
	require.NoError(t, json.Unmarshal([]byte(doc), &raw))
	vals := make([]Value, len(raw))
	for i, r := range raw {
		vals[i] = FromAny(r)
	}
	return vals
}

func TestNormalize_BasicBatch(t *testing.T) {
	recs := parse(t, `[
		{"title": "One", "content": "Some content", "tags": "a, b"},
		{"title": "", "content": ""}
	]`)
	out := testNormalizer().Normalize(recs)

	require.Len(t, out.Normalized, 2)
	assert.Equal(t, []string{"Item 2 is missing title."}, out.Errors)
	assert.Equal(t, []string{"Item 2 is missing content."}, out.Warnings)
	assert.Equal(t, []string{"a", "b"}, out.Normalized[0].Tags)
	assert.Equal(t, "Untitled", out.Normalized[1].Title)
	assert.Equal(t, "", out.Normalized[1].Content)
	assert.Equal(t, VerdictRejected, out.Verdict())
}

func TestNormalize_Defaults(t *testing.T) {
	out := testNormalizer().Normalize(parse(t, `[{"title": "  Spaced  ", "content": "deploy the api"}]`))
	require.Len(t, out.Normalized, 1)
	it := out.Normalized[0]

	assert.Equal(t, "id-1", it.ID)
	assert.Equal(t, "Spaced", it.Title)
	assert.Equal(t, "Unknown", it.Author)
	assert.Equal(t, models.NatureSolution, it.Nature)
	assert.Equal(t, models.DomainTechnical, it.Domain)
	assert.Equal(t, models.StatusReviewed, it.Status)
	assert.Equal(t, 5, it.Completeness)
	assert.Equal(t, []string{}, it.Tags)
	assert.Equal(t, "2024-03-05T10:30:00.123Z", it.CreatedAt)
	assert.Empty(t, out.Errors)
	assert.Empty(t, out.Warnings)
	assert.Equal(t, VerdictClean, out.Verdict())
}

func TestNormalize_ExplicitFieldsWin(t *testing.T) {
	out := testNormalizer().Normalize(parse(t, `[{
		"id": "keep-me", "title": "T", "author": "Ada", "content": "step result",
		"nature": "Blueprint", "domain": "Research", "status": "Final",
		"completeness": 42, "createdAt": "2020-01-01T00:00:00.000Z"
	}]`))
	it := out.Normalized[0]
	assert.Equal(t, "keep-me", it.ID)
	assert.Equal(t, "Ada", it.Author)
	assert.Equal(t, models.NatureBlueprint, it.Nature)
	assert.Equal(t, models.DomainResearch, it.Domain)
	assert.Equal(t, models.StatusFinal, it.Status)
	assert.Equal(t, 42, it.Completeness)
	assert.Equal(t, "2020-01-01T00:00:00.000Z", it.CreatedAt)
}

func TestNormalize_NonObjectsSkipped(t *testing.T) {
	recs := parse(t, `[null, {"title": "ok", "content": "x"}, 7, "str", true]`)
	recs = append(recs, Missing())
	out := testNormalizer().Normalize(recs)

	require.Len(t, out.Normalized, 1)
	assert.Equal(t, []string{
		"Item 1 is not an object.",
		"Item 3 is not an object.",
		"Item 4 is not an object.",
		"Item 5 is not an object.",
		"Item 6 is not an object.",
	}, out.Errors)
	assert.Equal(t, "ok", out.Normalized[0].Title)
}

func TestNormalize_SequenceRecordHasNoFields(t *testing.T) {
	out := testNormalizer().Normalize(parse(t, `[[1, 2], {"title": "ok", "content": "x"}, []]`))

	require.Len(t, out.Normalized, 3)
	assert.Equal(t, []string{"Item 1 is missing title.", "Item 3 is missing title."}, out.Errors)
	assert.Equal(t, []string{"Item 1 is missing content.", "Item 3 is missing content."}, out.Warnings)

	seq := out.Normalized[0]
	assert.Equal(t, "id-1", seq.ID)
	assert.Equal(t, "Untitled", seq.Title)
	assert.Equal(t, "Unknown", seq.Author)
	assert.Equal(t, 5, seq.Completeness)
	assert.Equal(t, []string{}, seq.Tags)
	assert.Equal(t, VerdictRejected, out.Verdict())
}

func TestNormalize_TitleTrimsECMAScriptWhitespace(t *testing.T) {
	out := testNormalizer().Normalize(parse(t, `[
		{"title": "\ufeff", "content": "x"},
		{"title": "\u00a0\u3000 Plan \ufeff\n", "content": "x"},
		{"title": "\u0085", "content": "x"}
	]`))

	require.Len(t, out.Normalized, 3)
	assert.Equal(t, "Untitled", out.Normalized[0].Title)
	assert.Equal(t, "Plan", out.Normalized[1].Title)
	assert.Equal(t, "\u0085", out.Normalized[2].Title)
	assert.Equal(t, []string{"Item 1 is missing title."}, out.Errors)
}

func TestNormalize_ZeroCompletenessIsOverwritten(t *testing.T) {
	out := testNormalizer().Normalize(parse(t, `[{"title": "t", "content": "a problem", "completeness": 0}]`))
	assert.Equal(t, 25, out.Normalized[0].Completeness)
}

func TestNormalize_CompletenessCoercion(t *testing.T) {
	cases := []struct {
		raw  string
		want int
	}{
		{`150`, 100},
		{`-3`, 0},
		{`-0.2`, 0},
		{`0.3`, 0},
		{`"0"`, 0},
		{`" 42 "`, 42},
		{`"60"`, 60},
		{`"lots"`, 5},
		{`true`, 5},
		{`12.6`, 13},
		{`""`, 5},
	}
	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			doc := fmt.Sprintf(`[{"title": "t", "content": "x", "completeness": %s}]`, tc.raw)
			out := testNormalizer().Normalize(parse(t, doc))
			assert.Equal(t, tc.want, out.Normalized[0].Completeness)
		})
	}
}

func TestNormalize_Tags(t *testing.T) {
	cases := []struct {
		raw  string
		want []string
	}{
		{`[" x ", "", 3, "y"]`, []string{"x", "3", "y"}},
		{`"one,, two ,"`, []string{"one", "two"}},
		{`{"a": 1}`, []string{}},
		{`12`, []string{}},
		{`[true, null]`, []string{"true", "null"}},
	}
	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			doc := fmt.Sprintf(`[{"title": "t", "content": "x", "tags": %s}]`, tc.raw)
			out := testNormalizer().Normalize(parse(t, doc))
			assert.Equal(t, tc.want, out.Normalized[0].Tags)
		})
	}
}

func TestNormalize_NonStringTitleAndContent(t *testing.T) {
	out := testNormalizer().Normalize(parse(t, `[{"title": 12, "content": ["a"]}]`))
	assert.Equal(t, "Untitled", out.Normalized[0].Title)
	assert.Equal(t, "", out.Normalized[0].Content)
	assert.Len(t, out.Errors, 1)
	assert.Len(t, out.Warnings, 1)
}

func TestNormalize_FalsyFieldsFallBack(t *testing.T) {
	out := testNormalizer().Normalize(parse(t, `[{
		"id": "", "title": "t", "author": null, "content": "market research",
		"nature": false, "domain": 0, "status": "", "createdAt": null
	}]`))
	it := out.Normalized[0]
	assert.Equal(t, "id-1", it.ID)
	assert.Equal(t, "Unknown", it.Author)
	assert.Equal(t, models.NatureBlueprint, it.Nature)
	assert.Equal(t, models.DomainBusiness, it.Domain)
	assert.Equal(t, models.StatusDraft, it.Status)
	assert.Equal(t, "2024-03-05T10:30:00.123Z", it.CreatedAt)
}

func TestNormalize_TruthyNonStringIDIsStringified(t *testing.T) {
	out := testNormalizer().Normalize(parse(t, `[{"id": 17, "title": "t", "content": "c"}]`))
	assert.Equal(t, "17", out.Normalized[0].ID)
}

func TestNormalize_ContentNotTrimmed(t *testing.T) {
	out := testNormalizer().Normalize(parse(t, `[{"title": "t", "content": "  padded  "}]`))
	assert.Equal(t, "  padded  ", out.Normalized[0].Content)
	assert.Empty(t, out.Warnings)
}

func TestNormalize_Empty(t *testing.T) {
	out := testNormalizer().Normalize(nil)
	assert.Equal(t, VerdictEmpty, out.Verdict())
	assert.NotNil(t, out.Normalized)
	assert.NotNil(t, out.Errors)
	assert.NotNil(t, out.Warnings)
}

func TestNormalize_CustomClassifier(t *testing.T) {
	rules := classify.DefaultRules()
	rules.SolutionKeywords = nil
	n := New(WithClassifier(classify.New(rules)))
	out := n.Normalize(parse(t, `[{"title": "t", "content": "step"}]`))
	assert.Equal(t, models.NatureBlueprint, out.Normalized[0].Nature)
}

func TestNormalize_Idempotent(t *testing.T) {
	n := testNormalizer()
	first := n.Normalize(parse(t, `[
		{"title": "One", "content": "Some content", "tags": "a, b"},
		{"title": "Two", "content": "the problem and the result", "completeness": 0, "tags": [1, " z "]},
		{"id": "x", "title": "Three", "content": "sales", "status": "Final", "completeness": 300}
	]`))
	require.Empty(t, first.Errors)
	require.Empty(t, first.Warnings)

	second := n.Normalize(Records(first.Normalized))
	assert.Empty(t, second.Errors)
	assert.Empty(t, second.Warnings)
	assert.Equal(t, first.Normalized, second.Normalized)
}

func TestNormalizeAny(t *testing.T) {
	out := testNormalizer().NormalizeAny([]any{
		map[string]any{"title": "a", "content": "b", "tags": []any{"t"}},
		nil,
	})
	assert.Len(t, out.Normalized, 1)
	assert.Equal(t, []string{"Item 2 is not an object."}, out.Errors)
}

func TestOutcome_JSONShape(t *testing.T) {
	out := testNormalizer().Normalize(parse(t, `[{"title": "t", "content": "c"}]`))
	data, err := json.Marshal(out)
	require.NoError(t, err)

	var generic map[string]any
	require.NoError(t, json.Unmarshal(data, &generic))
	assert.Contains(t, generic, "normalized")
	assert.Equal(t, []any{}, generic["errors"])
	assert.Equal(t, []any{}, generic["warnings"])

	items := generic["normalized"].([]any)
	first := items[0].(map[string]any)
	assert.Equal(t, "2024-03-05T10:30:00.123Z", first["createdAt"])
}
