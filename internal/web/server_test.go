package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	md2docx "github.com/alnah/go-md2docx"
	"github.com/alnah/go-md2docx/internal/backup"
	"github.com/alnah/go-md2docx/internal/history"
	"github.com/alnah/go-md2docx/internal/store"
)

const regulationDoc = `---
title: Регламент закупок
type: Регламент
number: Р-042
date: 2024-03-15
status: Действует
---

# Общие положения

Настоящий регламент определяет порядок проведения тендеров.
`

const charterDoc = `---
title: Устав компании
status: Действует
---

# УТВЕРЖДАЮ

Генеральный директор
А. Б. Волков

# Устав

Текст устава. См. [регламент](doc:Р-042).
`

type portalFixture struct {
	srv     *Server
	store   *store.Store
	tracker *history.Tracker
	backups *backup.Manager
	docsDir string
}

func newPortalFixture(t *testing.T) *portalFixture {
	t.Helper()
	root := t.TempDir()
	docsDir := filepath.Join(root, "documents")

	writeDoc(t, docsDir, "Холдинг/Закупки/регламент.md", regulationDoc)
	writeDoc(t, docsDir, "Холдинг/устав.md", charterDoc)
	writeDoc(t, docsDir, "Холдинг/Закупки/приложения/схема.png", "diagram-bytes")

	st, err := store.New(docsDir)
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	tracker, err := history.New(docsDir, filepath.Join(root, "version_history"), 10)
	if err != nil {
		t.Fatalf("history.New: %v", err)
	}
	backups, err := backup.New(filepath.Join(root, "backups"), 5, docsDir)
	if err != nil {
		t.Fatalf("backup.New: %v", err)
	}

	pool := md2docx.NewServicePool(1)
	t.Cleanup(func() { _ = pool.Close() })

	srv, err := NewServer(st, pool, WithHistory(tracker), WithBackups(backups))
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return &portalFixture{srv: srv, store: st, tracker: tracker, backups: backups, docsDir: docsDir}
}

func writeDoc(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func (f *portalFixture) get(t *testing.T, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	f.srv.mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

// trackRegulation records one version of the regulation fixture.
func (f *portalFixture) trackRegulation(t *testing.T) {
	t.Helper()
	rel := "Холдинг/Закупки/регламент.md"
	doc, err := f.store.Get(context.Background(), rel)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if _, _, err := f.tracker.Track(context.Background(), rel, doc.Meta, "Иванова", "первая версия"); err != nil {
		t.Fatalf("Track: %v", err)
	}
}

func TestNewServerValidation(t *testing.T) {
	pool := md2docx.NewServicePool(1)
	t.Cleanup(func() { _ = pool.Close() })
	st, err := store.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if _, err := NewServer(nil, pool); err == nil {
		t.Error("NewServer(nil store) should fail")
	}
	if _, err := NewServer(st, nil); err == nil {
		t.Error("NewServer(nil pool) should fail")
	}
}

func TestIndexPage(t *testing.T) {
	f := newPortalFixture(t)

	rec := f.get(t, "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	page := rec.Body.String()
	for _, want := range []string{"Регламент закупок", "Устав компании", "Все организации", "Холдинг", "15.03.2024"} {
		if !strings.Contains(page, want) {
			t.Errorf("index page missing %q", want)
		}
	}
}

func TestIndexPageFiltered(t *testing.T) {
	f := newPortalFixture(t)

	rec := f.get(t, "/?type="+url.QueryEscape("Регламент")+"&q="+url.QueryEscape("тендеров"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	page := rec.Body.String()
	if !strings.Contains(page, "Регламент закупок") {
		t.Error("filtered page should keep the regulation")
	}
	if strings.Contains(page, "/document/"+store.EscapePath("Холдинг/устав.md")) {
		t.Error("filtered page should drop the charter")
	}
}

func TestDocumentPage(t *testing.T) {
	f := newPortalFixture(t)
	f.trackRegulation(t)

	rec := f.get(t, "/document/"+store.EscapePath("Холдинг/Закупки/регламент.md"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body)
	}
	page := rec.Body.String()
	for _, want := range []string{
		"Регламент закупок",
		"Общие положения",
		"Р-042",
		"15.03.2024",
		"/export/docx/",
		"Приложения",
		"схема.png",
		"История версий",
		"/version/1/",
	} {
		if !strings.Contains(page, want) {
			t.Errorf("document page missing %q", want)
		}
	}
}

func TestDocumentPageApprovalAndLinks(t *testing.T) {
	f := newPortalFixture(t)

	rec := f.get(t, "/document/"+store.EscapePath("Холдинг/устав.md"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body)
	}
	page := rec.Body.String()
	for _, want := range []string{"УТВЕРЖДАЮ", "Генеральный директор", "А. Б. Волков"} {
		if !strings.Contains(page, want) {
			t.Errorf("charter page missing %q", want)
		}
	}
	wantHref := `href="` + store.DocumentURLBase + store.EscapePath("Холдинг/Закупки/регламент.md") + `"`
	if !strings.Contains(page, wantHref) {
		t.Errorf("doc: link not rewritten, want %s", wantHref)
	}
}

func TestDocumentPageNotFound(t *testing.T) {
	f := newPortalFixture(t)

	rec := f.get(t, "/document/"+store.EscapePath("нет.md"))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Документ не найден") {
		t.Error("404 page missing the error message")
	}
}

func TestVersionPage(t *testing.T) {
	f := newPortalFixture(t)
	f.trackRegulation(t)
	rel := store.EscapePath("Холдинг/Закупки/регламент.md")

	rec := f.get(t, "/version/1/"+rel)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body)
	}
	page := rec.Body.String()
	for _, want := range []string{"Версия 1", "Регламент закупок", "К текущей версии"} {
		if !strings.Contains(page, want) {
			t.Errorf("version page missing %q", want)
		}
	}

	if rec := f.get(t, "/version/9/"+rel); rec.Code != http.StatusNotFound {
		t.Errorf("missing version status = %d, want 404", rec.Code)
	}
	if rec := f.get(t, "/version/abc/"+rel); rec.Code != http.StatusBadRequest {
		t.Errorf("bad version status = %d, want 400", rec.Code)
	}
}

func TestAttachmentServing(t *testing.T) {
	f := newPortalFixture(t)

	rec := f.get(t, "/attachment/"+store.EscapePath("Холдинг/Закупки/приложения/схема.png"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Body.String(); got != "diagram-bytes" {
		t.Errorf("attachment body = %q", got)
	}

	if rec := f.get(t, "/attachment/"+store.EscapePath("Холдинг/нет.png")); rec.Code != http.StatusNotFound {
		t.Errorf("missing attachment status = %d, want 404", rec.Code)
	}
}

func TestExportMarkdown(t *testing.T) {
	f := newPortalFixture(t)

	rec := f.get(t, "/export/md/"+store.EscapePath("Холдинг/Закупки/регламент.md"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body)
	}
	if got := rec.Header().Get("Content-Disposition"); !strings.Contains(got, "attachment; filename*=UTF-8''") {
		t.Errorf("Content-Disposition = %q", got)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Регламент закупок") || !strings.Contains(body, "# Общие положения") {
		t.Errorf("markdown export incomplete: %s", body)
	}
}

func TestExportDOCX(t *testing.T) {
	f := newPortalFixture(t)

	rec := f.get(t, "/export/docx/"+store.EscapePath("Холдинг/Закупки/регламент.md"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body)
	}
	if got := rec.Header().Get("Content-Type"); got != docxMIME {
		t.Errorf("Content-Type = %q", got)
	}
	if body := rec.Body.Bytes(); len(body) < 2 || body[0] != 'P' || body[1] != 'K' {
		t.Error("DOCX export is not a zip archive")
	}
}

func TestExportHTML(t *testing.T) {
	f := newPortalFixture(t)

	rec := f.get(t, "/export/html/"+store.EscapePath("Холдинг/Закупки/регламент.md"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "<!DOCTYPE html") || !strings.Contains(body, "Общие положения") {
		t.Error("HTML export is not a standalone page")
	}
}

func TestExportPDFDisabled(t *testing.T) {
	f := newPortalFixture(t)

	rec := f.get(t, "/export/pdf/"+store.EscapePath("Холдинг/Закупки/регламент.md"))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Экспорт в PDF отключён") {
		t.Error("503 page missing the message")
	}
}

func TestHealth(t *testing.T) {
	f := newPortalFixture(t)

	rec := f.get(t, "/healthz")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("health body = %s", rec.Body)
	}
}

func TestStylesheet(t *testing.T) {
	f := newPortalFixture(t)

	rec := f.get(t, "/static/portal.css")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "text/css; charset=utf-8" {
		t.Errorf("Content-Type = %q", got)
	}
	if !strings.Contains(rec.Body.String(), ".document-body") {
		t.Error("stylesheet looks empty")
	}
}

func TestRecoverPanics(t *testing.T) {
	h := recoverPanics(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestHumanSize(t *testing.T) {
	cases := []struct {
		n    int64
		want string
	}{
		{512, "512 Б"},
		{2048, "2.0 КБ"},
		{3 << 20, "3.0 МБ"},
	}
	for _, c := range cases {
		if got := humanSize(c.n); got != c.want {
			t.Errorf("humanSize(%d) = %q, want %q", c.n, got, c.want)
		}
	}
}
