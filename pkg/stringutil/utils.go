package stringutil

import (
	"crypto/sha1"
	"fmt"
	"io"
	"net/mail"
	"net/url"
	"strings"
)

const mailtoPrefix = "mailto:"

// HashFolderName accepts a folder name and hashes it. The file store uses this as the directory
// to house the folder.
func HashFolderName(folder string) string {
	h := sha1.New()
	if _, err := io.WriteString(h, folder); err != nil {
		// This shouldn't ever happen
		return ""
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}

// Mailto returns the mailto: URI of an email address.
func Mailto(email string) string {
	return mailtoPrefix + email
}

// StripMailto returns the address of a mailto: URI. Values without the scheme are returned
// unchanged.
func StripMailto(uri string) string {
	if len(uri) >= len(mailtoPrefix) && strings.EqualFold(uri[:len(mailtoPrefix)], mailtoPrefix) {
		return uri[len(mailtoPrefix):]
	}
	return uri
}

// StringAddress formats a name and email address as an RFC 5322 address.
func StringAddress(name, email string) string {
	if name == "" {
		return email
	}
	return (&mail.Address{Name: name, Address: email}).String()
}

// MailtoAddress encodes a named address as a mailto: URI, percent-encoding the display form.
func MailtoAddress(name, email string) string {
	return mailtoPrefix + url.PathEscape(StringAddress(name, email))
}

// ParseMailtoAddress is the inverse of MailtoAddress. Unparsable values are returned as a bare
// address.
func ParseMailtoAddress(uri string) (name, email string) {
	s := StripMailto(uri)
	if dec, err := url.PathUnescape(s); err == nil {
		s = dec
	}
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return "", s
	}
	return addr.Name, addr.Address
}

// StringAddressList converts a list of addresses to a list of strings
func StringAddressList(addrs []*mail.Address) []string {
	s := make([]string, len(addrs))
	for i, a := range addrs {
		if a != nil {
			s[i] = a.String()
		}
	}
	return s
}
