package mailer

import (
	"fmt"
	"html/template"
	"strings"
	"time"
)

var resetTemplate = template.Must(template.New("reset").Parse(`<html>
<body>
  <p>Hello{{if .Name}} {{.Name}}{{end}},</p>
  <p>We received a request to reset the password for your membership portal account.</p>
  <p><a href="{{.Link}}">Reset your password</a></p>
  <p>This link expires in {{.Expiry}}. If you did not request a reset, you can ignore this email.</p>
</body>
</html>`))

// RenderResetEmail produces the password-reset email body. The reset token is
// appended to the configured link base as a query parameter.
func RenderResetEmail(name, linkBase, token string, ttl time.Duration) (string, error) {
	sep := "?"
	if strings.Contains(linkBase, "?") {
		sep = "&"
	}
	data := struct {
		Name   string
		Link   string
		Expiry string
	}{
		Name:   name,
		Link:   fmt.Sprintf("%s%stoken=%s", linkBase, sep, token),
		Expiry: formatTTL(ttl),
	}

	var b strings.Builder
	if err := resetTemplate.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}

func formatTTL(ttl time.Duration) string {
	if ttl >= time.Hour && ttl%time.Hour == 0 {
		hours := int(ttl / time.Hour)
		if hours == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", hours)
	}
	return fmt.Sprintf("%d minutes", int(ttl/time.Minute))
}
