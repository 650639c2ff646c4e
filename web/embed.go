// Package web embebe las plantillas HTML y los assets estaticos de la app.
package web

import (
	"embed"
	"html/template"
	"io/fs"
	"time"
)

//go:embed templates/*.html static/*
var content embed.FS

var funcs = template.FuncMap{
	"date": func(t time.Time) string {
		return t.UTC().Format("Jan 2, 2006")
	},
	"clock": func(t time.Time) string {
		return t.UTC().Format("2006-01-02 15:04")
	},
}

// Templates parsea todas las paginas; cada una se referencia por su nombre de archivo.
func Templates() (*template.Template, error) {
	return template.New("").Funcs(funcs).ParseFS(content, "templates/*.html")
}

// Static devuelve el FS con los archivos servidos bajo /static.
func Static() fs.FS {
	sub, err := fs.Sub(content, "static")
	if err != nil {
		panic("web: failed to create static sub filesystem: " + err.Error())
	}
	return sub
}
