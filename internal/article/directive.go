package article

import (
	"regexp"
	"strings"
)

// directivePattern matches a whole-line self-closing tag such as <Video videoID="abc" />.
// Groups: tag name, attribute list.
var directivePattern = regexp.MustCompile(`^\s*<([A-Za-z][A-Za-z0-9]*)((?:\s+[A-Za-z_][A-Za-z0-9_.:-]*\s*=\s*(?:"[^"]*"|'[^']*'))*)\s*/>\s*$`)

// attrPattern matches one name="value" or name='value' attribute.
var attrPattern = regexp.MustCompile(`([A-Za-z_][A-Za-z0-9_.:-]*)\s*=\s*(?:"([^"]*)"|'([^']*)')`)

// parseDirective reports whether line is a directive tag and returns its name and
// parameters. Whether the name is recognized is decided by the caller.
func parseDirective(line string) (string, map[string]string, bool) {
	m := directivePattern.FindStringSubmatch(line)
	if m == nil {
		return "", nil, false
	}
	attrs := m[2]
	params := make(map[string]string)
	for _, idx := range attrPattern.FindAllStringSubmatchIndex(attrs, -1) {
		key := attrs[idx[2]:idx[3]]
		// idx[4] is -1 when the single-quoted alternative matched.
		if idx[4] >= 0 {
			params[key] = attrs[idx[4]:idx[5]]
		} else {
			params[key] = attrs[idx[6]:idx[7]]
		}
	}
	return m[1], params, true
}

// formatDirective renders a directive tag with parameters in key order.
func formatDirective(name string, params map[string]string) string {
	var b strings.Builder
	b.WriteString("<")
	b.WriteString(name)
	for _, key := range sortedKeys(params) {
		value := params[key]
		b.WriteString(" ")
		b.WriteString(key)
		b.WriteString("=")
		if strings.Contains(value, `"`) && !strings.Contains(value, "'") {
			b.WriteString("'" + value + "'")
		} else {
			b.WriteString(`"` + strings.ReplaceAll(value, `"`, "&quot;") + `"`)
		}
	}
	b.WriteString(" />")
	return b.String()
}
