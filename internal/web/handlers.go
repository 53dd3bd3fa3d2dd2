package web

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	md2docx "github.com/alnah/go-md2docx"
	"github.com/alnah/go-md2docx/internal/history"
	"github.com/alnah/go-md2docx/internal/logging"
	"github.com/alnah/go-md2docx/internal/store"
)

const docxMIME = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data, err := s.buildIndex(r.Context(), queryFromRequest(r))
	if err != nil {
		logging.Error("loading document tree", "error", err)
		errorPage(w, http.StatusInternalServerError, "Не удалось загрузить документы")
		return
	}
	s.render(w, http.StatusOK, "index.html", data)
}

func (s *Server) buildIndex(ctx context.Context, q store.Query) (indexData, error) {
	docs, err := s.store.Filter(ctx, q)
	if err != nil {
		return indexData{}, err
	}
	orgs, err := s.store.Organizations(ctx)
	if err != nil {
		return indexData{}, err
	}
	types, err := s.store.Types(ctx)
	if err != nil {
		return indexData{}, err
	}
	statuses, err := s.store.Statuses(ctx)
	if err != nil {
		return indexData{}, err
	}

	rows := make([]documentRow, 0, len(docs))
	for _, doc := range docs {
		rows = append(rows, documentRow{
			RelPath: doc.RelPath,
			Title:   doc.Meta.DisplayTitle(),
			Meta:    doc.Meta,
			Date:    s.displayDate(doc.Meta.Date),
		})
	}
	return indexData{
		Query:         q,
		Organizations: orgs,
		Types:         types,
		Statuses:      statuses,
		Documents:     rows,
	}, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// lookup fetches the document named by the path wildcard, rendering an
// error page when it cannot be served.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (store.Document, bool) {
	rel := r.PathValue("path")
	doc, err := s.store.Get(r.Context(), rel)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			errorPage(w, http.StatusNotFound, "Документ не найден: "+rel)
		case errors.Is(err, store.ErrInvalidPath):
			errorPage(w, http.StatusBadRequest, "Недопустимый путь")
		default:
			logging.Error("loading document", "path", rel, "error", err)
			errorPage(w, http.StatusInternalServerError, "Не удалось загрузить документ")
		}
		return store.Document{}, false
	}
	return doc, true
}

// renderBody converts a document body to HTML and rewrites its
// references for portal serving.
func (s *Server) renderBody(ctx context.Context, doc store.Document) (string, error) {
	if strings.TrimSpace(doc.Body) == "" {
		return "", nil
	}
	svc := s.pool.Acquire()
	defer s.pool.Release(svc)

	body, err := svc.ToHTML(ctx, doc.Document)
	if err != nil {
		return "", err
	}
	return s.store.RewriteLinks(ctx, body, doc)
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.lookup(w, r)
	if !ok {
		return
	}
	body, err := s.renderBody(r.Context(), doc)
	if err != nil {
		logging.Error("converting document", "path", doc.RelPath, "error", err)
		errorPage(w, http.StatusInternalServerError, "Не удалось обработать документ")
		return
	}

	s.render(w, http.StatusOK, "document.html", documentData{
		Title:       doc.Meta.DisplayTitle(),
		RelPath:     doc.RelPath,
		Requisites:  s.requisiteRows(doc.Meta),
		Approval:    doc.Approval,
		Body:        template.HTML(body),
		Attachments: attachmentRows(doc),
		History:     s.historyRows(doc.RelPath),
	})
}

func (s *Server) handleVersionPage(w http.ResponseWriter, r *http.Request) {
	if s.tracker == nil {
		errorPage(w, http.StatusNotFound, "История версий отключена")
		return
	}
	version, err := strconv.Atoi(r.PathValue("version"))
	if err != nil || version < 1 {
		errorPage(w, http.StatusBadRequest, "Некорректный номер версии")
		return
	}
	rel := r.PathValue("path")
	rec, content, err := s.tracker.Version(rel, version)
	if err != nil {
		switch {
		case errors.Is(err, history.ErrVersionNotFound):
			errorPage(w, http.StatusNotFound, fmt.Sprintf("Версия %d не найдена", version))
		case errors.Is(err, history.ErrInvalidPath):
			errorPage(w, http.StatusBadRequest, "Недопустимый путь")
		default:
			logging.Error("reading version", "path", rel, "version", version, "error", err)
			errorPage(w, http.StatusInternalServerError, "Не удалось прочитать версию")
		}
		return
	}

	doc, err := s.store.Parse(content, rec.FilePath)
	if err != nil {
		logging.Error("parsing version snapshot", "path", rel, "version", version, "error", err)
		errorPage(w, http.StatusInternalServerError, "Не удалось обработать версию")
		return
	}
	body, err := s.renderBody(r.Context(), doc)
	if err != nil {
		logging.Error("converting version snapshot", "path", rel, "version", version, "error", err)
		errorPage(w, http.StatusInternalServerError, "Не удалось обработать версию")
		return
	}

	s.render(w, http.StatusOK, "version.html", documentData{
		Title:      doc.Meta.DisplayTitle(),
		RelPath:    rec.FilePath,
		Requisites: s.requisiteRows(doc.Meta),
		Approval:   doc.Approval,
		Body:       template.HTML(body),
		Version:    rec.Version,
		Stamp:      s.displayStamp(rec.Timestamp),
	})
}

func (s *Server) handleAttachment(w http.ResponseWriter, r *http.Request) {
	rel := r.PathValue("path")
	file, err := s.store.AttachmentFile(rel)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			errorPage(w, http.StatusNotFound, "Файл не найден: "+rel)
		case errors.Is(err, store.ErrInvalidPath):
			errorPage(w, http.StatusBadRequest, "Недопустимый путь")
		default:
			logging.Error("resolving attachment", "path", rel, "error", err)
			errorPage(w, http.StatusInternalServerError, "Не удалось открыть файл")
		}
		return
	}
	// ServeFile keeps a Content-Type set by the handler, so sniff with
	// mimetype first for extensions Go's table does not know.
	if mt, err := mimetype.DetectFile(file); err == nil {
		w.Header().Set("Content-Type", mt.String())
	}
	http.ServeFile(w, r, file)
}

func (s *Server) handleExportDOCX(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.lookup(w, r)
	if !ok {
		return
	}
	svc := s.pool.Acquire()
	defer s.pool.Release(svc)

	data, err := svc.ToDOCX(r.Context(), doc.Document)
	if err != nil {
		s.exportError(w, doc.RelPath, err)
		return
	}
	serveDownload(w, exportName(doc, ".docx"), docxMIME, data)
}

func (s *Server) handleExportHTML(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.lookup(w, r)
	if !ok {
		return
	}
	svc := s.pool.Acquire()
	defer s.pool.Release(svc)

	page, err := svc.ToPage(r.Context(), doc.Document)
	if err != nil {
		s.exportError(w, doc.RelPath, err)
		return
	}
	serveDownload(w, exportName(doc, ".html"), "text/html; charset=utf-8", []byte(page))
}

func (s *Server) handleExportMarkdown(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.lookup(w, r)
	if !ok {
		return
	}
	svc := s.pool.Acquire()
	defer s.pool.Release(svc)

	encoded, err := svc.EncodeDocument(doc.Document)
	if err != nil {
		s.exportError(w, doc.RelPath, err)
		return
	}
	serveDownload(w, exportName(doc, ".md"), "text/markdown; charset=utf-8", []byte(encoded))
}

func (s *Server) handleExportPDF(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.lookup(w, r)
	if !ok {
		return
	}
	svc := s.pool.Acquire()
	defer s.pool.Release(svc)

	data, err := svc.ToPDF(r.Context(), doc.Document)
	if err != nil {
		if errors.Is(err, md2docx.ErrPDFUnavailable) {
			errorPage(w, http.StatusServiceUnavailable, "Экспорт в PDF отключён")
			return
		}
		s.exportError(w, doc.RelPath, err)
		return
	}
	serveDownload(w, exportName(doc, ".pdf"), "application/pdf", data)
}

func (s *Server) exportError(w http.ResponseWriter, rel string, err error) {
	if errors.Is(err, md2docx.ErrEmptyMarkdown) {
		errorPage(w, http.StatusUnprocessableEntity, "Документ пуст")
		return
	}
	logging.Error("exporting document", "path", rel, "error", err)
	errorPage(w, http.StatusInternalServerError, "Не удалось выполнить экспорт")
}

// exportName derives the download file name from the document path.
func exportName(doc store.Document, ext string) string {
	base := path.Base(doc.RelPath)
	return strings.TrimSuffix(base, path.Ext(base)) + ext
}

func serveDownload(w http.ResponseWriter, name, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", "attachment; filename*=UTF-8''"+url.PathEscape(name))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
}

func queryFromRequest(r *http.Request) store.Query {
	return store.Query{
		Organization: r.URL.Query().Get("organization"),
		Department:   r.URL.Query().Get("department"),
		Type:         r.URL.Query().Get("type"),
		Status:       r.URL.Query().Get("status"),
		Search:       r.URL.Query().Get("q"),
	}
}
