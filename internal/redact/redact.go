// Package redact strips credentials and personal data from strings before
// they reach the logs. SMTP and database errors routinely echo connection
// strings and recipient addresses.
package redact

import (
	"net/url"
	"regexp"
	"strings"
)

// Placeholders substituted for redacted fragments.
const (
	CredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	KeyPlaceholder        = "[REDACTED_KEY]"
	EmailPlaceholder      = "[REDACTED_EMAIL]"
)

type rule struct {
	pattern     *regexp.Regexp
	placeholder string
}

// Order matters: connection strings go before the email rule, since
// user:pass@host looks like an address.
var rules = []rule{
	{regexp.MustCompile(`(?i)(postgres|postgresql|smtp|smtps)://[^@\s]+@`), CredentialPlaceholder},
	{regexp.MustCompile(`(?i)(password|passwd|pwd)([=:\s]?['"]?)[^'"&\s]{3,}`), CredentialPlaceholder},
	{regexp.MustCompile(`(?i)(api[_-]?key|token|secret)(['"\s:=]+)[A-Za-z0-9_\-.~+/]{8,}`), KeyPlaceholder},
	{regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`), EmailPlaceholder},
}

// String redacts credentials, keys and email addresses in input.
func String(input string) string {
	if input == "" {
		return input
	}
	for _, r := range rules {
		input = r.pattern.ReplaceAllString(input, r.placeholder)
	}
	return input
}

// Error redacts err's message. A nil error yields "".
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}

// Email masks the local part of an address, keeping its first character and
// the domain: "jane@example.com" becomes "j***@example.com".
func Email(addr string) string {
	at := strings.LastIndex(addr, "@")
	if at <= 0 {
		return EmailPlaceholder
	}
	return addr[:1] + "***" + addr[at:]
}

// URL hides the password in a connection URL. Unparseable input is fully
// redacted.
func URL(raw string) string {
	if raw == "" {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" {
		return CredentialPlaceholder
	}
	return u.Redacted()
}
