package article

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hpungsan/folio/internal/errors"
)

// frontMatterMarker opens and closes the metadata block. It must sit alone on its line.
const frontMatterMarker = "---"

// requiredFields are checked in this order, so the first missing one is reported.
var requiredFields = []string{"title", "date", "tags"}

// yamlLinePattern extracts the line number yaml.v3 embeds in its error messages.
var yamlLinePattern = regexp.MustCompile(`line (\d+)`)

// frontMatter is the decoded metadata block.
type frontMatter struct {
	Title string
	Date  Date
	Tags  []string
	Extra map[string]any
}

// splitFrontMatter locates the metadata block in lines.
// It returns the block lines and the index of the first body line.
func splitFrontMatter(lines []string) ([]string, int, *errors.FolioError) {
	if len(lines) == 0 || !isMarker(lines[0]) {
		return nil, 0, errors.NewMalformedFrontMatter(1, "source must begin with a front-matter block opened by "+frontMatterMarker)
	}
	for i := 1; i < len(lines); i++ {
		if isMarker(lines[i]) {
			return lines[1:i], i + 1, nil
		}
	}
	return nil, 0, errors.NewMalformedFrontMatter(1, "front-matter block opened on line 1 is never closed")
}

func isMarker(line string) bool {
	return strings.TrimRight(line, " \t") == frontMatterMarker
}

// decodeFrontMatter validates the block. The block starts on source line 2.
func decodeFrontMatter(block []string) (*frontMatter, *errors.FolioError) {
	const firstLine = 2

	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(strings.Join(block, "\n")), &doc); err != nil {
		return nil, errors.NewMalformedFrontMatter(yamlErrorLine(err, firstLine), "invalid YAML: "+err.Error())
	}

	var mapping *yaml.Node
	switch {
	case doc.Kind == 0:
		// Empty block: every required field is missing.
		mapping = &yaml.Node{Kind: yaml.MappingNode}
	case doc.Kind == yaml.DocumentNode && len(doc.Content) == 1 && doc.Content[0].Kind == yaml.MappingNode:
		mapping = doc.Content[0]
	default:
		return nil, errors.NewMalformedFrontMatter(firstLine, "front matter must be a mapping of key: value pairs")
	}

	fields := make(map[string][2]*yaml.Node, len(mapping.Content)/2)
	var order []string
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		key, value := mapping.Content[i], mapping.Content[i+1]
		if key.Kind != yaml.ScalarNode {
			return nil, errors.NewMalformedFrontMatter(key.Line+firstLine-1, "front-matter keys must be plain strings")
		}
		if _, dup := fields[key.Value]; dup {
			return nil, errors.NewMalformedFrontMatter(key.Line+firstLine-1, fmt.Sprintf("key %q is defined more than once", key.Value))
		}
		fields[key.Value] = [2]*yaml.Node{key, value}
		order = append(order, key.Value)
	}

	for _, name := range requiredFields {
		if _, ok := fields[name]; !ok {
			return nil, errors.NewMissingField(1, name)
		}
	}

	fm := &frontMatter{}

	title := fields["title"][1]
	if !isStringScalar(title) || strings.TrimSpace(title.Value) == "" {
		return nil, errors.NewInvalidField(title.Line+firstLine-1, "title", "must be a non-empty string")
	}
	fm.Title = strings.TrimSpace(title.Value)

	date := fields["date"][1]
	if date.Kind != yaml.ScalarNode {
		return nil, errors.NewInvalidDate(date.Line+firstLine-1, describeNode(date))
	}
	parsed, err := ParseDate(strings.TrimSpace(date.Value))
	if err != nil {
		return nil, errors.NewInvalidDate(date.Line+firstLine-1, date.Value)
	}
	fm.Date = parsed

	tags := fields["tags"][1]
	if tags.Kind != yaml.SequenceNode {
		return nil, errors.NewInvalidField(tags.Line+firstLine-1, "tags", "must be a list of strings")
	}
	raw := make([]string, 0, len(tags.Content))
	for _, item := range tags.Content {
		if !isStringScalar(item) || strings.TrimSpace(item.Value) == "" {
			return nil, errors.NewInvalidField(item.Line+firstLine-1, "tags", "must contain only non-empty strings")
		}
		raw = append(raw, strings.TrimSpace(item.Value))
	}
	fm.Tags = normalizeTags(raw)

	for _, name := range order {
		if name == "title" || name == "date" || name == "tags" {
			continue
		}
		value := fields[name][1]
		v, bad, err := extraValue(value)
		if err != nil {
			return nil, errors.NewInvalidField(bad.Line+firstLine-1, name, err.Error())
		}
		if fm.Extra == nil {
			fm.Extra = make(map[string]any)
		}
		fm.Extra[name] = v
	}

	return fm, nil
}

// extraValue converts an extra front-matter value into plain Go values that
// encoding/json accepts: nested mappings get string keys, aliases are followed,
// and non-finite floats are refused. On failure it returns the offending node.
func extraValue(n *yaml.Node) (any, *yaml.Node, error) {
	switch n.Kind {
	case yaml.AliasNode:
		if n.Alias == nil {
			return nil, n, fmt.Errorf("has an unresolved alias %q", n.Value)
		}
		return extraValue(n.Alias)
	case yaml.MappingNode:
		m := make(map[string]any, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			key := n.Content[i]
			if key.Kind != yaml.ScalarNode {
				return nil, key, fmt.Errorf("must use plain keys in nested mappings")
			}
			v, bad, err := extraValue(n.Content[i+1])
			if err != nil {
				return nil, bad, err
			}
			m[key.Value] = v
		}
		return m, nil, nil
	case yaml.SequenceNode:
		items := make([]any, 0, len(n.Content))
		for _, item := range n.Content {
			v, bad, err := extraValue(item)
			if err != nil {
				return nil, bad, err
			}
			items = append(items, v)
		}
		return items, nil, nil
	}

	var v any
	if err := n.Decode(&v); err != nil {
		return nil, n, fmt.Errorf("cannot be decoded: %v", err)
	}
	switch x := v.(type) {
	case float64:
		if math.IsInf(x, 0) || math.IsNaN(x) {
			return nil, n, fmt.Errorf("must be a finite number, got %s", n.Value)
		}
	case string, bool, int, int64, uint64, nil:
	default:
		// Explicit !!timestamp and similar tags keep their source text.
		return n.Value, nil, nil
	}
	return v, nil, nil
}

// extraNode builds the YAML node for an extra value. Floats carry a decimal
// point or exponent so they decode as floats again.
func extraNode(v any) (*yaml.Node, error) {
	switch x := v.(type) {
	case map[string]any:
		n := &yaml.Node{Kind: yaml.MappingNode}
		for _, k := range sortedKeys(x) {
			child, err := extraNode(x[k])
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}, child)
		}
		return n, nil
	case []any:
		n := &yaml.Node{Kind: yaml.SequenceNode}
		for _, item := range x {
			child, err := extraNode(item)
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, child)
		}
		return n, nil
	case float64:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: formatFloat(x)}, nil
	case nil:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	}

	var n yaml.Node
	if err := n.Encode(v); err != nil {
		return nil, err
	}
	return &n, nil
}

func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return ".inf"
	case math.IsInf(f, -1):
		return "-.inf"
	case math.IsNaN(f):
		return ".nan"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// isStringScalar accepts any non-null scalar; numbers used as titles or tags keep their text.
func isStringScalar(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.Tag != "!!null"
}

func describeNode(n *yaml.Node) string {
	switch n.Kind {
	case yaml.SequenceNode:
		return "<list>"
	case yaml.MappingNode:
		return "<mapping>"
	}
	return n.Value
}

// yamlErrorLine converts a yaml.v3 error position into a source line.
func yamlErrorLine(err error, firstLine int) int {
	m := yamlLinePattern.FindStringSubmatch(err.Error())
	if m == nil {
		return firstLine
	}
	n, convErr := strconv.Atoi(m[1])
	if convErr != nil || n < 1 {
		return firstLine
	}
	return n + firstLine - 1
}

// encodeFrontMatter renders the metadata block in canonical form, markers included.
func encodeFrontMatter(a *Article) (string, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}

	addPair := func(key string, value *yaml.Node) {
		root.Content = append(root.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: key}, value)
	}

	addPair("title", quoted(a.Title))
	addPair("date", quoted(a.Date.String()))

	tags := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
	for _, t := range normalizeTags(a.Tags) {
		tags.Content = append(tags.Content, quoted(t))
	}
	addPair("tags", tags)

	for _, key := range sortedKeys(a.Extra) {
		value, err := extraNode(a.Extra[key])
		if err != nil {
			return "", fmt.Errorf("encode front-matter key %q: %w", key, err)
		}
		addPair(key, value)
	}

	out, err := yaml.Marshal(root)
	if err != nil {
		return "", fmt.Errorf("encode front matter: %w", err)
	}
	return frontMatterMarker + "\n" + string(out) + frontMatterMarker + "\n", nil
}

func quoted(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Style: yaml.DoubleQuotedStyle, Value: s}
}
