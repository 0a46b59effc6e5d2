package http

import "html/template"

// Page templates are compiled in; rendering is deliberately minimal and
// styling is left to whoever serves static assets in front of this app.
const pages = `
{{define "layout_head"}}<!DOCTYPE html><html><head><title>Secrets</title></head><body>{{end}}
{{define "layout_foot"}}</body></html>{{end}}

{{define "home"}}{{template "layout_head"}}
<h1>Secrets</h1>
<p>Whisper anonymously.</p>
<a href="/register">Register</a> <a href="/login">Login</a>
{{template "layout_foot"}}{{end}}

{{define "login"}}{{template "layout_head"}}
<h1>Login</h1>
<form action="/login" method="POST">
  <label>Username <input type="text" name="username"></label>
  <label>Password <input type="password" name="password"></label>
  <button type="submit">Login</button>
</form>
<a href="/auth/google">Sign in with Google</a>
{{template "layout_foot"}}{{end}}

{{define "register"}}{{template "layout_head"}}
<h1>Register</h1>
<form action="/register" method="POST">
  <label>Username <input type="text" name="username"></label>
  <label>Password <input type="password" name="password"></label>
  <button type="submit">Register</button>
</form>
<a href="/auth/google">Sign up with Google</a>
{{template "layout_foot"}}{{end}}

{{define "secrets"}}{{template "layout_head"}}
<h1>You've Discovered My Secret!</h1>
{{if .Username}}<p>Welcome back, {{.Username}}.</p>{{end}}
<a href="/submit">Submit a secret</a> <a href="/logout">Log out</a>
{{template "layout_foot"}}{{end}}

{{define "submit"}}{{template "layout_head"}}
<h1>Share a secret</h1>
<form action="/submit" method="POST">
  <textarea name="secret" rows="3" cols="40"></textarea>
  <button type="submit">Submit</button>
</form>
{{template "layout_foot"}}{{end}}
`

func pageTemplates() *template.Template {
	return template.Must(template.New("pages").Parse(pages))
}
