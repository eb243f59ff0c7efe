// Package mail sends reminder emails over SMTP using go-mail. Templates are
// embedded: subject and plain text use text/template, the HTML body uses
// html/template.
package mail
