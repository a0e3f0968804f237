// Package decode turns an import document (JSON or YAML) into importer records.
package decode

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/starford/namohub/internal/importer"
)

// Format selects the document syntax.
type Format string

const (
	FormatAuto Format = ""
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

var (
	// ErrMalformed is returned when the document cannot be parsed.
	ErrMalformed = errors.New("invalid JSON")
	// ErrNotArray is returned when the top-level value is not a sequence.
	ErrNotArray = errors.New("expected an array of items")
)

// FormatFromName guesses the format from a file name or content type.
func FormatFromName(name string) Format {
	name = strings.ToLower(name)
	switch {
	case strings.HasSuffix(name, ".yaml"), strings.HasSuffix(name, ".yml"), strings.Contains(name, "yaml"):
		return FormatYAML
	case strings.HasSuffix(name, ".json"), strings.Contains(name, "json"):
		return FormatJSON
	}
	return FormatAuto
}

// Records parses data and returns its top-level sequence as records.
// In auto mode valid JSON is read as JSON and anything else as YAML.
func Records(data []byte, format Format) ([]importer.Value, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrMalformed)
	}

	var (
		doc importer.Value
		err error
	)
	switch format {
	case FormatJSON:
		doc, err = parseJSON(data)
	case FormatYAML:
		doc, err = parseYAML(data)
	default:
		if json.Valid(data) {
			doc, err = parseJSON(data)
		} else {
			doc, err = parseYAML(data)
			if err == nil {
				// Bare YAML scalars are almost always mistyped JSON.
				switch doc.Kind() {
				case importer.KindSequence, importer.KindObject:
				default:
					err = fmt.Errorf("%w: unrecognised document", ErrMalformed)
				}
			}
		}
	}
	if err != nil {
		return nil, err
	}

	if doc.Kind() != importer.KindSequence {
		return nil, ErrNotArray
	}
	out := doc.Items()
	if out == nil {
		out = []importer.Value{}
	}
	return out, nil
}

func parseJSON(data []byte) (importer.Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return importer.Value{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if dec.More() {
		return importer.Value{}, fmt.Errorf("%w: trailing data", ErrMalformed)
	}
	return importer.FromAny(doc), nil
}

// maxYAMLNodes bounds alias expansion of a single document.
const maxYAMLNodes = 1 << 20

// parseYAML walks the node tree instead of unmarshalling into any, so
// timestamps and other non-JSON scalar types keep their source text.
func parseYAML(data []byte) (importer.Value, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return importer.Value{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	w := &nodeWalker{active: map[*yaml.Node]bool{}}
	v, err := w.value(&root)
	if err != nil {
		return importer.Value{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return v, nil
}

type nodeWalker struct {
	active map[*yaml.Node]bool // aliases being expanded
	nodes  int
}

func (w *nodeWalker) value(n *yaml.Node) (importer.Value, error) {
	if w.nodes++; w.nodes > maxYAMLNodes {
		return importer.Value{}, errors.New("document too large after alias expansion")
	}
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return importer.Null(), nil
		}
		return w.value(n.Content[0])
	case yaml.AliasNode:
		return w.alias(n)
	case yaml.SequenceNode:
		seq := make([]importer.Value, len(n.Content))
		for i, c := range n.Content {
			v, err := w.value(c)
			if err != nil {
				return importer.Value{}, err
			}
			seq[i] = v
		}
		return importer.Sequence(seq...), nil
	case yaml.MappingNode:
		obj := map[string]importer.Value{}
		if err := w.mapping(obj, n); err != nil {
			return importer.Value{}, err
		}
		return importer.Object(obj), nil
	case yaml.ScalarNode:
		return scalarValue(n)
	}
	return importer.Null(), nil
}

func (w *nodeWalker) alias(n *yaml.Node) (importer.Value, error) {
	if w.active[n] {
		return importer.Value{}, fmt.Errorf("alias %q refers to itself", n.Value)
	}
	w.active[n] = true
	defer delete(w.active, n)
	return w.value(n.Alias)
}

// mapping copies the pairs of a mapping node into obj. Explicit keys win
// over keys pulled in through "<<" merges.
func (w *nodeWalker) mapping(obj map[string]importer.Value, n *yaml.Node) error {
	var merges []*yaml.Node
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		if key.ShortTag() == "!!merge" {
			merges = append(merges, val)
			continue
		}
		v, err := w.value(val)
		if err != nil {
			return err
		}
		obj[key.Value] = v
	}
	for _, m := range merges {
		srcs := []*yaml.Node{m}
		if m.Kind == yaml.SequenceNode {
			srcs = m.Content
		}
		for _, src := range srcs {
			v, err := w.value(src)
			if err != nil {
				return err
			}
			if !v.IsObject() {
				continue
			}
			for k, fv := range v.Fields() {
				if _, ok := obj[k]; !ok {
					obj[k] = fv
				}
			}
		}
	}
	return nil
}

// scalarValue maps null, bool, int and float scalars to their typed
// values. Every other tag, !!timestamp included, stays verbatim text.
func scalarValue(n *yaml.Node) (importer.Value, error) {
	switch n.ShortTag() {
	case "!!null":
		return importer.Null(), nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return importer.Value{}, err
		}
		return importer.Bool(b), nil
	case "!!int", "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return importer.Value{}, err
		}
		return importer.Number(f), nil
	}
	return importer.String(n.Value), nil
}
