package layouts

import (
	"context"
	"html"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/codr1/Escapade/internal/api/authz"
)

const htmxScript = `<script src="https://unpkg.com/htmx.org@2.0.4" crossorigin="anonymous"></script>`

// Base wraps content in the site shell.
func Base(title string, content templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		title = strings.TrimSpace(title)
		if title == "" {
			title = "Escape Room"
		}

		var head strings.Builder
		head.WriteString(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		head.WriteString(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		head.WriteString(`<title>`)
		head.WriteString(html.EscapeString(title))
		head.WriteString(`</title>`)
		head.WriteString(`<link rel="stylesheet" href="/static/css/booking.css">`)
		head.WriteString(htmxScript)
		head.WriteString(`</head><body>`)
		head.WriteString(navHTML(authz.UserFromContext(ctx)))
		head.WriteString(`<main class="container">`)
		if _, err := io.WriteString(w, head.String()); err != nil {
			return err
		}

		if content != nil {
			if err := content.Render(ctx, w); err != nil {
				return err
			}
		}

		_, err := io.WriteString(w, `</main></body></html>`)
		return err
	})
}

// navHTML links the account pages for the signed-in user.
func navHTML(user *authz.AuthUser) string {
	var b strings.Builder
	b.WriteString(`<nav class="site-nav"><a href="/booking">Book</a>`)
	if user == nil {
		b.WriteString(`<a href="/login">Log in</a><a href="/signup">Sign up</a></nav>`)
		return b.String()
	}
	b.WriteString(`<a href="/my-bookings">My bookings</a>`)
	if user.IsStaff {
		b.WriteString(`<a href="/staff/bookings">All bookings</a>`)
	}
	b.WriteString(`<form method="post" action="/logout" class="logout-form"><span>`)
	b.WriteString(html.EscapeString(user.Username))
	b.WriteString(`</span><button type="submit">Log out</button></form></nav>`)
	return b.String()
}
