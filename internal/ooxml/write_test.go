package ooxml

import (
	"archive/zip"
	"bytes"
	"io"
	"strings"
	"testing"
	"time"
)

func TestDocumentRoundTrip(t *testing.T) {
	t.Parallel()

	doc := NewDocument()
	doc.SetTitle("Регламент работы")
	doc.SetCreator("ООО Ромашка")
	doc.SetCreated(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC))

	title := doc.AddParagraph(HeadingStyle(1))
	title.AddRun("Регламент работы", false, false)
	title.SetJustification("center")

	para := doc.AddParagraph("")
	para.AddRun("Важно:", true, false)
	para.AddRun(" тест", false, false)

	item := doc.AddParagraph(StyleListBullet)
	item.SetNumbering(NumBullet, 0)
	item.AddRun("первый пункт", false, false)

	table := doc.AddTable(2)
	header := table.AddRow()
	header.SetCell(0, "Этап", true)
	header.SetCell(1, "Срок", true)
	row := table.AddRow()
	row.SetCell(0, "Разработка", false)
	row.SetCell(1, "2 недели", false)

	data, err := doc.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error = %v", err)
	}

	r, err := Read(data)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	props := r.Properties()
	if props.Title != "Регламент работы" {
		t.Errorf("Title = %q, want %q", props.Title, "Регламент работы")
	}
	if props.Creator != "ООО Ромашка" {
		t.Errorf("Creator = %q, want %q", props.Creator, "ООО Ромашка")
	}
	if got := props.Created.Format("2006-01-02"); got != "2024-03-15" {
		t.Errorf("Created = %q, want %q", got, "2024-03-15")
	}
	if props.Modified.IsZero() {
		t.Error("Modified is zero, want mirror of created date")
	}

	paras := r.Paragraphs()
	if len(paras) != 3 {
		t.Fatalf("len(Paragraphs()) = %d, want 3", len(paras))
	}
	if paras[0].StyleName != "Heading 1" {
		t.Errorf("title StyleName = %q, want %q", paras[0].StyleName, "Heading 1")
	}
	if !paras[0].Centered {
		t.Error("title paragraph not centered")
	}
	if paras[1].Text != "Важно: тест" {
		t.Errorf("paragraph text = %q, want %q", paras[1].Text, "Важно: тест")
	}
	if len(paras[1].Runs) != 2 {
		t.Fatalf("len(Runs) = %d, want 2", len(paras[1].Runs))
	}
	if !paras[1].Runs[0].Bold || paras[1].Runs[0].Text != "Важно:" {
		t.Errorf("first run = %+v, want bold %q", paras[1].Runs[0], "Важно:")
	}
	if paras[1].Runs[1].Bold || paras[1].Runs[1].Text != " тест" {
		t.Errorf("second run = %+v, want plain %q", paras[1].Runs[1], " тест")
	}
	if paras[2].StyleName != "List Bullet" {
		t.Errorf("item StyleName = %q, want %q", paras[2].StyleName, "List Bullet")
	}

	tables := r.Tables()
	if len(tables) != 1 {
		t.Fatalf("len(Tables()) = %d, want 1", len(tables))
	}
	want := [][]string{{"Этап", "Срок"}, {"Разработка", "2 недели"}}
	for i, row := range want {
		for j, cell := range row {
			if tables[0].Rows[i][j] != cell {
				t.Errorf("table cell [%d][%d] = %q, want %q", i, j, tables[0].Rows[i][j], cell)
			}
		}
	}
}

func TestHeadingStyle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		level int
		want  string
	}{
		{level: 1, want: "Heading1"},
		{level: 2, want: "Heading2"},
		{level: 4, want: "Heading4"},
		{level: 5, want: "Heading4"},
		{level: 9, want: "Heading4"},
		{level: 0, want: "Heading1"},
	}

	for _, tt := range tests {
		if got := HeadingStyle(tt.level); got != tt.want {
			t.Errorf("HeadingStyle(%d) = %q, want %q", tt.level, got, tt.want)
		}
	}
}

func TestAddRunPreservesEdgeSpace(t *testing.T) {
	t.Parallel()

	doc := NewDocument()
	doc.AddParagraph("").AddRun(" тест ", false, false)

	data, err := doc.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error = %v", err)
	}
	body := extractPart(t, data, "word/document.xml")
	if !strings.Contains(body, `xml:space="preserve"`) {
		t.Error("document part missing xml:space=\"preserve\" on padded run text")
	}

	r, err := Read(data)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got := r.Paragraphs()[0].Text; got != " тест " {
		t.Errorf("round-tripped text = %q, want %q", got, " тест ")
	}
}

func TestAddRunSplitsNewlines(t *testing.T) {
	t.Parallel()

	doc := NewDocument()
	doc.AddParagraph(StyleListBullet).AddRun("Организация: X\nОтдел: Y", false, false)

	data, err := doc.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error = %v", err)
	}
	r, err := Read(data)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got := r.Paragraphs()[0].Text; got != "Организация: X\nОтдел: Y" {
		t.Errorf("text = %q, want line break preserved", got)
	}
}

func TestEmptyParagraphRoundTrip(t *testing.T) {
	t.Parallel()

	doc := NewDocument()
	doc.AddParagraph("").AddRun("первый", false, false)
	doc.AddEmptyParagraph()
	doc.AddParagraph("").AddRun("второй", false, false)

	data, err := doc.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error = %v", err)
	}
	r, err := Read(data)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	paras := r.Paragraphs()
	if len(paras) != 3 {
		t.Fatalf("len(Paragraphs()) = %d, want 3", len(paras))
	}
	if paras[1].Text != "" {
		t.Errorf("middle paragraph text = %q, want empty", paras[1].Text)
	}
}

func TestTableMissingCellRendersEmpty(t *testing.T) {
	t.Parallel()

	doc := NewDocument()
	table := doc.AddTable(2)
	row := table.AddRow()
	row.SetCell(0, "только первая", false)

	data, err := doc.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error = %v", err)
	}
	r, err := Read(data)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	rows := r.Tables()[0].Rows
	if len(rows[0]) != 2 {
		t.Fatalf("row width = %d, want 2", len(rows[0]))
	}
	if rows[0][1] != "" {
		t.Errorf("unset cell = %q, want empty", rows[0][1])
	}
}

func TestSetCellIgnoresOutOfRange(t *testing.T) {
	t.Parallel()

	doc := NewDocument()
	table := doc.AddTable(1)
	row := table.AddRow()
	row.SetCell(5, "мимо", false)
	row.SetCell(-1, "мимо", false)

	if len(row.Cells) != 1 {
		t.Fatalf("len(Cells) = %d, want 1", len(row.Cells))
	}
	if len(row.Cells[0].Paragraphs[0].Runs) != 0 {
		t.Error("out-of-range SetCell modified an existing cell")
	}
}

func TestBytesWritesAllParts(t *testing.T) {
	t.Parallel()

	doc := NewDocument()
	doc.AddParagraph("").AddRun("содержимое", false, false)

	data, err := doc.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error = %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("zip.NewReader() error = %v", err)
	}

	want := []string{
		"[Content_Types].xml",
		"_rels/.rels",
		"docProps/core.xml",
		"docProps/app.xml",
		"word/document.xml",
		"word/_rels/document.xml.rels",
		"word/styles.xml",
		"word/numbering.xml",
	}
	have := make(map[string]bool, len(zr.File))
	for _, f := range zr.File {
		have[f.Name] = true
	}
	for _, name := range want {
		if !have[name] {
			t.Errorf("container missing part %s", name)
		}
	}
}

func TestCorePartOmitsUnsetDates(t *testing.T) {
	t.Parallel()

	doc := NewDocument()
	doc.SetTitle("Без даты")
	doc.AddParagraph("").AddRun("текст", false, false)

	data, err := doc.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error = %v", err)
	}
	core := extractPart(t, data, "docProps/core.xml")
	if strings.Contains(core, "dcterms:created") {
		t.Error("core part contains created date for a document without one")
	}

	r, err := Read(data)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if !r.Properties().Created.IsZero() {
		t.Errorf("Created = %v, want zero", r.Properties().Created)
	}
}

func TestWriteTo(t *testing.T) {
	t.Parallel()

	doc := NewDocument()
	doc.AddParagraph("").AddRun("текст", false, false)

	var buf bytes.Buffer
	n, err := doc.WriteTo(&buf)
	if err != nil {
		t.Fatalf("WriteTo() error = %v", err)
	}
	if n != int64(buf.Len()) {
		t.Errorf("WriteTo() = %d, want %d", n, buf.Len())
	}
	if _, err := Read(buf.Bytes()); err != nil {
		t.Errorf("Read() of WriteTo output error = %v", err)
	}
}

// extractPart returns one file from a zip container as a string.
func extractPart(t *testing.T, data []byte, name string) string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("zip.NewReader() error = %v", err)
	}
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("opening %s: %v", name, err)
		}
		defer rc.Close()
		content, err := io.ReadAll(rc)
		if err != nil {
			t.Fatalf("reading %s: %v", name, err)
		}
		return string(content)
	}
	t.Fatalf("part %s not found", name)
	return ""
}
