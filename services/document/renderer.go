// Package document renders permit documents.
package document

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"time"
)

//go:embed templates/*.html
var templates embed.FS

// PermitData is everything printed on a permit.
type PermitData struct {
	Number           string
	BookingID        string
	FacilityName     string
	FacilityLocation string
	RequesterName    string
	RequesterEmail   string
	Purpose          string
	Notes            string
	Participants     int
	Start            time.Time
	End              time.Time
	IssuedAt         time.Time
	IssuedBy         string
}

type Renderer interface {
	Render(ctx context.Context, data PermitData) ([]byte, error)
	// Extension is the file suffix of rendered documents, e.g. ".html".
	Extension() string
}

type HTMLRenderer struct {
	tmpl *template.Template
	loc  *time.Location
}

// NewHTMLRenderer formats times in loc.
func NewHTMLRenderer(loc *time.Location) (*HTMLRenderer, error) {
	if loc == nil {
		loc = time.UTC
	}
	tmpl, err := template.New("permit.html").Funcs(template.FuncMap{
		"formatTime": func(t time.Time) string { return t.In(loc).Format("02 Jan 2006 15:04 MST") },
	}).ParseFS(templates, "templates/permit.html")
	if err != nil {
		return nil, fmt.Errorf("parse permit template: %w", err)
	}
	return &HTMLRenderer{tmpl: tmpl, loc: loc}, nil
}

func (r *HTMLRenderer) Render(ctx context.Context, data PermitData) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render permit %s: %w", data.Number, err)
	}
	return buf.Bytes(), nil
}

func (r *HTMLRenderer) Extension() string {
	return ".html"
}
