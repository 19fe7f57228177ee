package controllers

import (
	"bytes"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/render"
	"github.com/gorilla/mux"
)

// pages renders the HTML templates shared by the controllers.
type pages struct {
	templates map[string]*template.Template
	logger    *slog.Logger
}

// render executes the page into a buffer first so a template failure still
// produces a clean 500.
func (p *pages) render(w http.ResponseWriter, r *http.Request, name string, status int, data interface{}) {
	t, ok := p.templates[name]
	if !ok {
		p.logger.Error("template not found", "template", name)
		p.sendError(w, r, http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		p.logger.Error("failed to render template", "template", name, "error", err)
		p.sendError(w, r, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func (p *pages) sendError(w http.ResponseWriter, r *http.Request, status int) {
	http.Error(w, http.StatusText(status), status)
}

// serverError logs err and answers 500.
func (p *pages) serverError(w http.ResponseWriter, r *http.Request, err error) {
	p.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	p.sendError(w, r, http.StatusInternalServerError)
}

// pathID reads the {id} route variable. Values that do not fit a uint report false.
func pathID(r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 0)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}

// errorJSON writes {"error": message} with the given status.
func errorJSON(w http.ResponseWriter, r *http.Request, status int, message string) {
	render.Status(r, status)
	render.JSON(w, r, render.M{"error": message})
}

// Health answers liveness probes.
func Health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, render.M{"status": "ok"})
}
