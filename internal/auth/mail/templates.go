package mail

import (
	"embed"
	"fmt"
	"html/template"
	"strings"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// LinkData feeds the account email templates.
type LinkData struct {
	FullName string
	Link     string
}

// RenderConfirmation builds the email-confirmation message body.
func RenderConfirmation(data LinkData) (string, error) {
	return render("confirm_email.html", data)
}

// RenderPasswordReset builds the password-reset message body.
func RenderPasswordReset(data LinkData) (string, error) {
	return render("reset_password.html", data)
}

func render(name string, data any) (string, error) {
	var sb strings.Builder
	if err := templates.ExecuteTemplate(&sb, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return sb.String(), nil
}
