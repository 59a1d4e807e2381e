package stringutil_test

import (
	"net/mail"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kolabformat/kolabformat/pkg/stringutil"
)

func TestMailto(t *testing.T) {
	assert.Equal(t, "mailto:jane@example.org", stringutil.Mailto("jane@example.org"))
	assert.Equal(t, "jane@example.org", stringutil.StripMailto("MAILTO:jane@example.org"))
	assert.Equal(t, "jane@example.org", stringutil.StripMailto("jane@example.org"))
}

func TestMailtoAddressRoundTrip(t *testing.T) {
	testCases := []struct {
		name, email string
	}{
		{"", "jane@example.org"},
		{"Jane Doe", "jane@example.org"},
		{"Doe, Jane", "jane@example.org"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			uri := stringutil.MailtoAddress(tc.name, tc.email)
			name, email := stringutil.ParseMailtoAddress(uri)
			assert.Equal(t, tc.name, name)
			assert.Equal(t, tc.email, email)
		})
	}
}

func TestParseMailtoAddressFallback(t *testing.T) {
	name, email := stringutil.ParseMailtoAddress("mailto:not an address")
	assert.Equal(t, "", name)
	assert.Equal(t, "not an address", email)
}

func TestStringAddressList(t *testing.T) {
	input := []*mail.Address{
		{Name: "Fred B. Fish", Address: "fred@fish.org"},
		{Name: "User", Address: "user@domain.org"},
	}
	want := []string{`"Fred B. Fish" <fred@fish.org>`, `"User" <user@domain.org>`}
	assert.Equal(t, want, stringutil.StringAddressList(input))
}

func TestHashFolderName(t *testing.T) {
	assert.Equal(t, "474ba67bdb289c6263b36dfd8a7bed6c85b04943", stringutil.HashFolderName("james"))
	assert.NotEqual(t, stringutil.HashFolderName("user/jane/Calendar"),
		stringutil.HashFolderName("shared/Calendar"))
}
