package auth

import (
	"context"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/a-h/templ"
)

type SignUpData struct {
	Action      string
	LoginPath   string
	Username    string
	Email       string
	FieldErrors map[string]string
}

type LoginData struct {
	Action     string
	SignUpPath string
	Username   string
	Next       string
	Error      string
}

// SignUpForm renders the account creation form. Passwords are never echoed
// back.
func SignUpForm(data SignUpData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<section class="auth-page"><h1>Sign Up</h1>`)
		fmt.Fprintf(&b, `<form method="post" action="%s" class="auth-form">`, html.EscapeString(data.Action))
		writeField(&b, "username", "Username", "text", data.Username, `maxlength="150" autocomplete="username" required`, data.FieldErrors)
		writeField(&b, "email", "Email", "email", data.Email, `autocomplete="email" required`, data.FieldErrors)
		writeField(&b, "password1", "Password", "password", "", `autocomplete="new-password" required`, data.FieldErrors)
		writeField(&b, "password2", "Password confirmation", "password", "", `autocomplete="new-password" required`, data.FieldErrors)
		b.WriteString(`<button type="submit" class="btn-primary">Sign Up</button></form>`)
		fmt.Fprintf(&b, `<p>Already have an account? <a href="%s">Log in</a></p></section>`, html.EscapeString(data.LoginPath))
		_, err := io.WriteString(w, b.String())
		return err
	})
}

func LoginForm(data LoginData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<section class="auth-page"><h1>Log In</h1>`)
		if data.Error != "" {
			fmt.Fprintf(&b, `<div class="booking-notice" role="alert">%s</div>`, html.EscapeString(data.Error))
		}
		fmt.Fprintf(&b, `<form method="post" action="%s" class="auth-form">`, html.EscapeString(data.Action))
		if data.Next != "" {
			fmt.Fprintf(&b, `<input type="hidden" name="next" value="%s">`, html.EscapeString(data.Next))
		}
		writeField(&b, "username", "Username", "text", data.Username, `autocomplete="username" required`, nil)
		writeField(&b, "password", "Password", "password", "", `autocomplete="current-password" required`, nil)
		b.WriteString(`<button type="submit" class="btn-primary">Log In</button></form>`)
		fmt.Fprintf(&b, `<p>New here? <a href="%s">Create an account</a></p></section>`, html.EscapeString(data.SignUpPath))
		_, err := io.WriteString(w, b.String())
		return err
	})
}

func writeField(b *strings.Builder, name, label, inputType, value, attrs string, fieldErrors map[string]string) {
	fmt.Fprintf(b, `<div class="form-field"><label for="field_%s">%s</label>`, name, html.EscapeString(label))
	fmt.Fprintf(b, `<input id="field_%s" name="%s" type="%s" value="%s" class="form-control" %s>`,
		name, name, inputType, html.EscapeString(value), attrs)
	if msg := fieldErrors[name]; msg != "" {
		fmt.Fprintf(b, `<p class="field-error">%s</p>`, html.EscapeString(msg))
	}
	b.WriteString(`</div>`)
}
