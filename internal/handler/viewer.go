package handler

import (
	"embed"
	"net/http"
)

//go:embed web/*.html
var pages embed.FS

// IndexHandler serves the single page viewer.
func IndexHandler(w http.ResponseWriter, r *http.Request) {
	servePage(w, r, "web/index.html")
}

// LoginPageHandler serves the password form.
func LoginPageHandler(w http.ResponseWriter, r *http.Request) {
	servePage(w, r, "web/login.html")
}

func servePage(w http.ResponseWriter, r *http.Request, name string) {
	body, err := pages.ReadFile(name)
	if err != nil {
		NotFoundHandler(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(body)
}
