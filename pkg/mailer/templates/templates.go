package templates

import (
	"bytes"
	"embed"
	"fmt"
	htmpl "html/template"
	"reflect"
	"strings"
	texttpl "text/template"
	"time"
)

//go:embed *.tmpl
var files embed.FS

// NewReport is the admin alert for a freshly submitted report.
const NewReport = "new_report"

// Both sets are parsed once at init; a broken template fails the process at startup.
var (
	textSet = texttpl.Must(texttpl.New("").Funcs(texttpl.FuncMap(funcs())).ParseFS(files, "*.subject.tmpl", "*.text.tmpl"))
	htmlSet = htmpl.Must(htmpl.New("").Funcs(htmpl.FuncMap(funcs())).ParseFS(files, "*.html.tmpl"))
)

func funcs() map[string]any {
	return map[string]any{
		"formatTime": func(t time.Time, layout string) string { return t.UTC().Format(layout) },
		"upper":      strings.ToUpper,
		"default":    fallback,
		"coord":      func(f float64) string { return fmt.Sprintf("%.5f", f) },
	}
}

// fallback backs the "default" pipe: {{ .Value | default "x" }}.
func fallback(def, value any) any {
	if s, ok := value.(string); ok {
		if strings.TrimSpace(s) == "" {
			return def
		}
		return s
	}
	rv := reflect.ValueOf(value)
	if !rv.IsValid() || rv.IsZero() {
		return def
	}
	return value
}

// Render executes <name>.subject.tmpl, <name>.text.tmpl and <name>.html.tmpl with data.
func Render(name string, data any) (subject, text, html string, err error) {
	var buf bytes.Buffer
	exec := func(run func() error, file string) (string, error) {
		buf.Reset()
		if err := run(); err != nil {
			return "", fmt.Errorf("render %s: %w", file, err)
		}
		return buf.String(), nil
	}

	if subject, err = exec(func() error { return textSet.ExecuteTemplate(&buf, name+".subject.tmpl", data) }, name+".subject.tmpl"); err != nil {
		return "", "", "", err
	}
	if text, err = exec(func() error { return textSet.ExecuteTemplate(&buf, name+".text.tmpl", data) }, name+".text.tmpl"); err != nil {
		return "", "", "", err
	}
	if html, err = exec(func() error { return htmlSet.ExecuteTemplate(&buf, name+".html.tmpl", data) }, name+".html.tmpl"); err != nil {
		return "", "", "", err
	}
	return strings.TrimSpace(subject), text, html, nil
}
