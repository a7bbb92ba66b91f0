package webui

import (
	"embed"
	"html/template"
)

//go:embed templates/*
var embedFS embed.FS

var viewerTemplates *template.Template

func init() {
	var err error

	viewerTemplates, err = template.ParseFS(embedFS, "templates/base.html", "templates/viewer.html")
	if err != nil {
		panic("Failed to parse viewer templates: " + err.Error())
	}
}

// GetViewerTemplates returns the compiled viewer templates
func GetViewerTemplates() *template.Template {
	return viewerTemplates
}
