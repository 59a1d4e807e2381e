package conversion

import "strings"

var (
	textEscaper = strings.NewReplacer(
		`\`, `\\`,
		";", `\;`,
		",", `\,`,
		"\r\n", `\n`,
		"\n", `\n`,
	)
	textUnescaper = strings.NewReplacer(
		`\\`, `\`,
		`\;`, ";",
		`\,`, ",",
		`\n`, "\n",
		`\N`, "\n",
	)
)

// EscapeText escapes s as an iCalendar TEXT value.
func EscapeText(s string) string {
	return textEscaper.Replace(s)
}

// UnescapeText decodes an iCalendar TEXT value.
func UnescapeText(s string) string {
	return textUnescaper.Replace(s)
}

// SplitText splits a multi-valued TEXT value on unescaped commas and unescapes each element.
func SplitText(s string) []string {
	if s == "" {
		return nil
	}
	var (
		parts []string
		cur   strings.Builder
	)
	for i := 0; i < len(s); i++ {
		switch {
		case s[i] == '\\' && i+1 < len(s):
			cur.WriteByte(s[i])
			cur.WriteByte(s[i+1])
			i++
		case s[i] == ',':
			parts = append(parts, UnescapeText(cur.String()))
			cur.Reset()
		default:
			cur.WriteByte(s[i])
		}
	}
	return append(parts, UnescapeText(cur.String()))
}

// JoinText escapes and joins values into one multi-valued TEXT value.
func JoinText(values []string) string {
	escaped := make([]string, len(values))
	for i, v := range values {
		escaped[i] = EscapeText(v)
	}
	return strings.Join(escaped, ",")
}
