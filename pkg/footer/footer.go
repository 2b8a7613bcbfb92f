package footer

import (
	"bytes"
	"html/template"
)

// Link describes an entry displayed next to the footer branding.
type Link struct {
	Label string
	URL   string
}

// Config captures the markup and style hooks required to render the footer.
type Config struct {
	ElementID    string
	BaseClass    string
	InnerClass   string
	BrandClass   string
	BrandText    string
	BrandURL     string
	VersionClass string
	VersionLabel string
	Version      string
	LinkClass    string
	Links        []Link
}

var footerTemplate = template.Must(template.New("footer").Option("missingkey=error").Parse(`<footer id="{{.ElementID}}" class="{{.BaseClass}}">
  <div class="{{.InnerClass}}">
    <a class="{{.BrandClass}}" href="{{.BrandURL}}" target="_blank" rel="noopener noreferrer">{{.BrandText}}</a>
    {{- if .Version}}
    <span class="{{.VersionClass}}" data-package-version="{{.Version}}">{{.VersionLabel}} {{.Version}}</span>
    {{- end}}
    {{- range .Links}}
    <a class="{{$.LinkClass}}" href="{{.URL}}" target="_blank" rel="noopener noreferrer">{{.Label}}</a>
    {{- end}}
  </div>
</footer>`))

// Render returns the footer HTML for the provided configuration.
func Render(config Config) (template.HTML, error) {
	var buffer bytes.Buffer
	if err := footerTemplate.Execute(&buffer, config); err != nil {
		return "", err
	}
	return template.HTML(buffer.String()), nil
}
