package note

import (
	"strings"

	"golang.org/x/net/html"
)

// blockElements end a line of text when flattened.
var blockElements = map[string]bool{
	"br": true, "div": true, "h1": true, "h2": true, "h3": true, "h4": true, "h5": true,
	"h6": true, "li": true, "p": true, "pre": true, "tr": true,
}

// IsRichText reports whether body looks like an HTML document or fragment.
func IsRichText(body string) bool {
	s := strings.TrimSpace(body)
	if !strings.HasPrefix(s, "<") {
		return false
	}
	z := html.NewTokenizer(strings.NewReader(s))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return false
		case html.StartTagToken, html.SelfClosingTagToken, html.DoctypeToken:
			return true
		}
	}
}

// PlainText flattens an HTML note body into text, one line per block element. Content of head,
// script and style elements is dropped.
func PlainText(body string) string {
	var (
		b    strings.Builder
		skip int
	)
	z := html.NewTokenizer(strings.NewReader(body))
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			// io.EOF or a tokenizer error; either way the text so far is all there is.
			return strings.TrimSpace(b.String())
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			switch tag := string(name); {
			case tag == "head" || tag == "script" || tag == "style":
				if tt == html.StartTagToken {
					skip++
				}
			case tag == "br":
				b.WriteByte('\n')
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			switch {
			case tag == "head" || tag == "script" || tag == "style":
				if skip > 0 {
					skip--
				}
			case blockElements[tag] && skip == 0:
				if !strings.HasSuffix(b.String(), "\n") {
					b.WriteByte('\n')
				}
			}
		}
	}
}
