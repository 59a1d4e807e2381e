package conversion_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kolabformat/kolabformat/pkg/conversion"
)

func TestEscapeText(t *testing.T) {
	testCases := []struct {
		plain, escaped string
	}{
		{"plain", "plain"},
		{"a,b;c", `a\,b\;c`},
		{"line1\nline2", `line1\nline2`},
		{`back\slash`, `back\\slash`},
	}
	for _, tc := range testCases {
		t.Run(tc.plain, func(t *testing.T) {
			assert.Equal(t, tc.escaped, conversion.EscapeText(tc.plain))
			assert.Equal(t, tc.plain, conversion.UnescapeText(tc.escaped))
		})
	}
}

func TestSplitText(t *testing.T) {
	assert.Nil(t, conversion.SplitText(""))
	assert.Equal(t, []string{"a", "b,c", "d"}, conversion.SplitText(`a,b\,c,d`))
	assert.Equal(t, `a,b\,c`, conversion.JoinText([]string{"a", "b,c"}))
}
