package md2docx

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
)

// metaRow is one label/value row of the page header table.
type metaRow struct {
	Label string
	Value string
}

// pageData feeds the portal page template.
type pageData struct {
	Title         string
	CSS           template.CSS
	ApprovalLines []string
	Rows          []metaRow
	Content       template.HTML
}

// pageBuilder wraps a rendered HTML body fragment into a complete page.
type pageBuilder interface {
	BuildPage(ctx context.Context, htmlBody string, doc Document) (string, error)
}

// templatePageBuilder renders the page template with the document CSS and
// the metadata header table. Assets are resolved through the loader on
// every call, so a changed custom style takes effect without rebuilding
// the service.
type templatePageBuilder struct {
	loader        AssetLoader
	style         string
	technicalData bool
}

func newTemplatePageBuilder(loader AssetLoader, style string, technicalData bool) *templatePageBuilder {
	return &templatePageBuilder{loader: loader, style: style, technicalData: technicalData}
}

// BuildPage executes the page template. The body fragment is trusted
// pipeline output and passes through unescaped; metadata values are
// escaped by the template engine.
func (b *templatePageBuilder) BuildPage(ctx context.Context, htmlBody string, doc Document) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	css, err := b.loader.LoadStyle(b.style)
	if err != nil {
		return "", err
	}
	tmplSrc, err := b.loader.LoadTemplate(DefaultTemplate)
	if err != nil {
		return "", err
	}
	tmpl, err := template.New(DefaultTemplate).Parse(tmplSrc)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPageRender, err)
	}

	data := pageData{
		Title:         doc.Meta.DisplayTitle(),
		CSS:           template.CSS(css),
		ApprovalLines: doc.Approval,
		Content:       template.HTML(htmlBody),
	}
	if b.technicalData {
		data.Rows = metaRows(doc.Meta)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("%w: %v", ErrPageRender, err)
	}
	return buf.String(), nil
}

// metaRows builds the header table rows for the present fields, in the
// fixed document-card order. Dates are shown in the dotted day-first form;
// a date no layout recognizes is shown verbatim.
func metaRows(m Meta) []metaRow {
	rows := make([]metaRow, 0, 6)
	add := func(label, value string) {
		if value != "" {
			rows = append(rows, metaRow{Label: label, Value: value})
		}
	}
	add("Организация:", m.Organization)
	add("Отдел:", m.Department)
	add("Тип документа:", m.Type)
	add("Номер:", m.Number)
	add("Дата:", formatDocDate(m.Date, displayDateLayout))
	add("Статус:", m.Status)
	return rows
}

// Compile-time interface check.
var _ pageBuilder = (*templatePageBuilder)(nil)
