package mcpserver

// ItemFormatContract describes the item record format accepted by
// import_items and produced by the export endpoint.
const ItemFormatContract = `# namohub Item Format Contract

An import document is a JSON (or YAML) array of item objects. The whole
collection is replaced by the import; nothing is merged.

## Fields

- ` + "`title`" + ` (string, required): trimmed. Missing or blank rejects the import.
- ` + "`content`" + ` (string): kept as-is. Missing gives empty content and a warning.
- ` + "`id`" + ` (string): a fresh unique id when missing.
- ` + "`author`" + ` (string): empty when missing.
- ` + "`nature`" + ` (Blueprint | Solution): classifier verdict on content when missing.
- ` + "`domain`" + ` (Technical | Business | Process | Research): classifier verdict when missing.
- ` + "`status`" + ` (Draft | Reviewed | Final): Draft when missing.
- ` + "`completeness`" + ` (number, 0-100): classifier score when missing. 0 counts as missing.
- ` + "`tags`" + ` (array, or comma-separated string): empty list when missing.
- ` + "`createdAt`" + ` (ISO-8601 string): import time when missing.

Apart from title and content, a falsy value (null, empty string, 0, false)
counts as missing.

## Rules

1. Every array element must be an object; any other value rejects the import.
2. A record without a non-blank string ` + "`title`" + ` rejects the import.
3. A record without string ` + "`content`" + ` is kept with empty content and a warning.
4. Any rejected record aborts the whole import; the collection is left unchanged.
5. Unknown fields are dropped.

## Classifier (default rules)

- nature is Solution when the content mentions step, result, deploy, api or code.
- domain is the first match of market|roi|sales (Business), process|workflow|policy
  (Process), research|benchmark (Research), otherwise Technical.
- completeness adds problem +20, step +30, result +30, then +20 for content longer
  than 200 characters or +5 otherwise, capped at 100.

## Example

` + "```" + `json
[
  {
    "title": "Deploy checklist",
    "content": "step 1: deploy the api",
    "author": "ana",
    "tags": ["ops", "release"]
  },
  {
    "title": "Q3 market sizing",
    "content": "problem: estimate sales for the new region",
    "status": "Reviewed"
  }
]
` + "```" + `
`
