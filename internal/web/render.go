package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"path"
	"time"

	md2docx "github.com/alnah/go-md2docx"
	"github.com/alnah/go-md2docx/internal/logging"
	"github.com/alnah/go-md2docx/internal/store"
)

// displayDateLayout is the default date presentation on portal pages.
const displayDateLayout = "02.01.2006"

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/portal.css
var portalCSS []byte

var templates = template.Must(template.New("portal").Funcs(template.FuncMap{
	"urlpath": store.EscapePath,
}).ParseFS(templateFS, "templates/*.html"))

// indexData feeds templates/index.html.
type indexData struct {
	Query         store.Query
	Organizations []string
	Types         []string
	Statuses      []string
	Documents     []documentRow
}

type documentRow struct {
	RelPath string
	Title   string
	Meta    md2docx.Meta
	Date    string
}

// documentData feeds templates/document.html and version.html.
type documentData struct {
	Title       string
	RelPath     string
	Requisites  []metaRow
	Approval    []string
	Body        template.HTML
	Attachments []attachmentRow
	History     []historyRow
	Version     int
	Stamp       string
}

type metaRow struct{ Label, Value string }

type attachmentRow struct {
	Name string
	URL  string
	Kind store.AttachmentKind
	Size string
}

type historyRow struct {
	Version int
	Stamp   string
	Author  string
	Comment string
}

// render executes a page template into a buffer first so a template
// failure never leaks a half-written page to the client.
func (s *Server) render(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		logging.Error("rendering template", "template", name, "error", err)
		http.Error(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// errorPage renders a minimal styled error page for browser-facing
// routes. API routes use writeError instead.
func errorPage(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="ru">
<head><meta charset="utf-8"><title>%d</title><link rel="stylesheet" href="/static/portal.css"></head>
<body class="error-page"><main><h1>%s</h1><p><a href="/">← К списку документов</a></p></main></body>
</html>
`, status, template.HTMLEscapeString(msg))
}

func (s *Server) handleStylesheet(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(portalCSS)
}

// frontMatterDateLayouts are the date spellings accepted in document
// front matter.
var frontMatterDateLayouts = []string{"2006-01-02", "02.01.2006", "02/01/2006", "2006/01/02"}

// displayDate reformats a front matter date for presentation. Values
// that do not parse pass through unchanged.
func (s *Server) displayDate(value string) string {
	for _, layout := range frontMatterDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format(s.dateLayout)
		}
	}
	return value
}

// displayStamp reformats an RFC 3339 version timestamp for page display.
func (s *Server) displayStamp(stamp string) string {
	if t, err := time.Parse(time.RFC3339, stamp); err == nil {
		return t.Format(s.dateLayout + " 15:04")
	}
	return stamp
}

// requisiteRows lists the non-empty metadata fields in the order they
// appear on the requisites block of a page.
func (s *Server) requisiteRows(m md2docx.Meta) []metaRow {
	rows := make([]metaRow, 0, 7)
	add := func(label, value string) {
		if value != "" {
			rows = append(rows, metaRow{Label: label, Value: value})
		}
	}
	add("Организация", m.Organization)
	add("Подразделение", m.Department)
	add("Тип документа", m.Type)
	add("Номер", m.Number)
	add("Дата", s.displayDate(m.Date))
	add("Статус", m.Status)
	add("Автор", m.Author)
	return rows
}

func attachmentRows(doc store.Document) []attachmentRow {
	if len(doc.Attachments) == 0 {
		return nil
	}
	dir := path.Dir(doc.RelPath)
	rows := make([]attachmentRow, 0, len(doc.Attachments))
	for _, att := range doc.Attachments {
		rows = append(rows, attachmentRow{
			Name: att.Name,
			URL:  store.AttachmentURLBase + store.EscapePath(path.Join(dir, att.RelPath)),
			Kind: att.Kind,
			Size: humanSize(att.Size),
		})
	}
	return rows
}

// historyRows lists recorded versions newest first for page display.
func (s *Server) historyRows(rel string) []historyRow {
	if s.tracker == nil {
		return nil
	}
	records, err := s.tracker.History(rel)
	if err != nil {
		logging.Warn("reading document history", "path", rel, "error", err)
		return nil
	}
	rows := make([]historyRow, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		rec := records[i]
		rows = append(rows, historyRow{
			Version: rec.Version,
			Stamp:   s.displayStamp(rec.Timestamp),
			Author:  rec.Author,
			Comment: rec.Comment,
		})
	}
	return rows
}

// humanSize renders a byte count for the attachment list.
func humanSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f МБ", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f КБ", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d Б", n)
	}
}
