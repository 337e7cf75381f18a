package http

import (
	"bytes"
	"html/template"
	"log/slog"
	"net/http"
)

type loginPageData struct {
	Error       string
	Email       string
	CallbackURL string
}

type dashboardPageData struct {
	Name         string
	Email        string
	ProfileImage string
}

var loginTemplate = template.Must(template.New("login").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Seller sign in</title>
</head>
<body>
<main>
<h1>Seller sign in</h1>
{{if .Error}}<p role="alert">{{.Error}}</p>{{end}}
<form method="post" action="/api/auth/signin">
<input type="hidden" name="callback_url" value="{{.CallbackURL}}">
<label>Email <input type="email" name="email" value="{{.Email}}" autocomplete="username" required></label>
<label>Password <input type="password" name="password" autocomplete="current-password" required></label>
<button type="submit">Sign in</button>
</form>
</main>
</body>
</html>
`))

var dashboardTemplate = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Seller dashboard</title>
</head>
<body>
<header>
{{if .ProfileImage}}<img src="{{.ProfileImage}}" alt="" width="40" height="40">{{end}}
<p>Welcome back, {{if .Name}}{{.Name}}{{else}}{{.Email}}{{end}}</p>
<form method="post" action="/api/auth/signout"><button type="submit">Sign out</button></form>
</header>
<main>
<ul>
<li><a href="/dashboard/api/overview">Overview</a></li>
<li><a href="/dashboard/api/revenue">Revenue</a></li>
<li><a href="/dashboard/api/analytics?range=daily">Analytics</a></li>
<li><a href="/dashboard/api/orders">Orders</a></li>
<li><a href="/dashboard/api/products?status=pending">Pending products</a></li>
<li><a href="/dashboard/api/catalog/categories">Categories</a></li>
</ul>
</main>
</body>
</html>
`))

// renderPage executes tmpl into a buffer first so a template failure still
// yields a clean 500.
func renderPage(w http.ResponseWriter, r *http.Request, logger *slog.Logger, status int, tmpl *template.Template, data any) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		logger.ErrorContext(r.Context(), "render page failed",
			slog.String("template", tmpl.Name()),
			slog.String("error", err.Error()),
		)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
