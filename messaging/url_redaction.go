package messaging

import (
	"net/url"
	"strings"
)

// #nosec G101 -- placeholder, not a credential
const redactedURL = "amqp://***:***@<host>/<vhost>"

// redactURL masks the password of a broker URL so it can be logged. The
// username, host and vhost are kept. Anything that does not parse as an
// amqp(s) URL with a host collapses to a placeholder.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || raw == "" || u.Host == "" {
		return redactedURL
	}
	if u.Scheme != "amqp" && u.Scheme != "amqps" {
		return redactedURL
	}

	user := "***"
	if u.User != nil && u.User.Username() != "" {
		user = u.User.Username()
	}

	var b strings.Builder
	b.WriteString(u.Scheme + "://" + user + ":***@" + u.Host)
	if u.RawPath != "" {
		b.WriteString(u.RawPath)
	} else {
		b.WriteString(u.Path)
	}
	if u.RawQuery != "" {
		b.WriteString("?" + u.RawQuery)
	}
	return b.String()
}
