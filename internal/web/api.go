package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path"
	"strconv"
	"strings"

	md2docx "github.com/alnah/go-md2docx"
	"github.com/alnah/go-md2docx/internal/backup"
	"github.com/alnah/go-md2docx/internal/history"
	"github.com/alnah/go-md2docx/internal/logging"
	"github.com/alnah/go-md2docx/internal/store"
)

// maxImportSize caps uploaded DOCX files at 32 MiB.
const maxImportSize = 32 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("encoding response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// documentSummary is the list form of a document: path and metadata
// without the body.
type documentSummary struct {
	Path        string             `json:"path"`
	Title       string             `json:"title"`
	Meta        md2docx.Meta       `json:"metadata"`
	Attachments []store.Attachment `json:"attachments,omitempty"`
}

type versionPayload struct {
	history.Record
	Content string `json:"content"`
}

type backupPayload struct {
	Name      string   `json:"name"`
	Size      int64    `json:"size"`
	Timestamp string   `json:"timestamp,omitempty"`
	Comment   string   `json:"comment,omitempty"`
	Contents  []string `json:"contents,omitempty"`
}

func (s *Server) handleOrganizations(w http.ResponseWriter, r *http.Request) {
	orgs, err := s.store.Organizations(r.Context())
	if err != nil {
		logging.Error("listing organizations", "error", err)
		writeError(w, http.StatusInternalServerError, "Не удалось загрузить документы")
		return
	}
	writeJSON(w, http.StatusOK, nonNil(orgs))
}

func (s *Server) handleDepartments(w http.ResponseWriter, r *http.Request) {
	organization := r.URL.Query().Get("organization")
	departments, err := s.store.Departments(r.Context(), organization)
	if err != nil {
		logging.Error("listing departments", "organization", organization, "error", err)
		writeError(w, http.StatusInternalServerError, "Не удалось загрузить документы")
		return
	}
	writeJSON(w, http.StatusOK, nonNil(departments))
}

func (s *Server) handleDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.store.Filter(r.Context(), queryFromRequest(r))
	if err != nil {
		logging.Error("filtering documents", "error", err)
		writeError(w, http.StatusInternalServerError, "Не удалось загрузить документы")
		return
	}
	summaries := make([]documentSummary, 0, len(docs))
	for _, doc := range docs {
		summaries = append(summaries, documentSummary{
			Path:        doc.RelPath,
			Title:       doc.Meta.DisplayTitle(),
			Meta:        doc.Meta,
			Attachments: doc.Attachments,
		})
	}
	writeJSON(w, http.StatusOK, summaries)
}

// handleImport accepts a multipart DOCX upload, converts it back to
// Markdown, and saves it into the document tree. Optional form fields:
// path (target relative path), author, comment.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportSize)
	if err := r.ParseMultipartForm(maxImportSize); err != nil {
		writeError(w, http.StatusBadRequest, "Некорректная форма загрузки")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Не передан файл документа")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Не удалось прочитать файл")
		return
	}

	rel := strings.TrimSpace(r.FormValue("path"))
	if rel == "" {
		base := path.Base(header.Filename)
		rel = strings.TrimSuffix(base, path.Ext(base)) + ".md"
	}

	svc := s.pool.Acquire()
	defer s.pool.Release(svc)

	doc, err := svc.FromDOCX(r.Context(), data)
	if err != nil {
		if errors.Is(err, md2docx.ErrUnsupportedInput) {
			writeError(w, http.StatusBadRequest, "Файл не является документом DOCX")
			return
		}
		logging.Error("importing document", "name", header.Filename, "error", err)
		writeError(w, http.StatusInternalServerError, "Не удалось обработать документ")
		return
	}
	encoded, err := svc.EncodeDocument(doc)
	if err != nil {
		logging.Error("encoding imported document", "path", rel, "error", err)
		writeError(w, http.StatusInternalServerError, "Не удалось сохранить документ")
		return
	}
	saved, err := s.store.Save(r.Context(), rel, encoded)
	if err != nil {
		if errors.Is(err, store.ErrInvalidPath) {
			writeError(w, http.StatusBadRequest, "Недопустимый путь")
			return
		}
		logging.Error("saving imported document", "path", rel, "error", err)
		writeError(w, http.StatusInternalServerError, "Не удалось сохранить документ")
		return
	}

	if s.tracker != nil {
		comment := strings.TrimSpace(r.FormValue("comment"))
		if comment == "" {
			comment = "импорт из DOCX"
		}
		author := strings.TrimSpace(r.FormValue("author"))
		if _, _, err := s.tracker.Track(r.Context(), saved.RelPath, saved.Meta, author, comment); err != nil {
			logging.Warn("tracking imported document", "path", saved.RelPath, "error", err)
		}
	}

	logging.Info("document imported", "path", saved.RelPath, "size", len(data))
	writeJSON(w, http.StatusCreated, documentSummary{
		Path:  saved.RelPath,
		Title: saved.Meta.DisplayTitle(),
		Meta:  saved.Meta,
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.tracker == nil {
		writeError(w, http.StatusNotFound, "История версий отключена")
		return
	}
	rel := r.PathValue("path")
	records, err := s.tracker.History(rel)
	if err != nil {
		if errors.Is(err, history.ErrInvalidPath) {
			writeError(w, http.StatusBadRequest, "Недопустимый путь")
			return
		}
		logging.Error("reading history", "path", rel, "error", err)
		writeError(w, http.StatusInternalServerError, "Не удалось прочитать историю")
		return
	}
	writeJSON(w, http.StatusOK, nonNil(records))
}

func (s *Server) handleVersionJSON(w http.ResponseWriter, r *http.Request) {
	if s.tracker == nil {
		writeError(w, http.StatusNotFound, "История версий отключена")
		return
	}
	version, err := strconv.Atoi(r.PathValue("version"))
	if err != nil || version < 1 {
		writeError(w, http.StatusBadRequest, "Некорректный номер версии")
		return
	}
	rel := r.PathValue("path")
	rec, content, err := s.tracker.Version(rel, version)
	if err != nil {
		switch {
		case errors.Is(err, history.ErrVersionNotFound):
			writeError(w, http.StatusNotFound, "Версия не найдена")
		case errors.Is(err, history.ErrInvalidPath):
			writeError(w, http.StatusBadRequest, "Недопустимый путь")
		default:
			logging.Error("reading version", "path", rel, "version", version, "error", err)
			writeError(w, http.StatusInternalServerError, "Не удалось прочитать версию")
		}
		return
	}
	writeJSON(w, http.StatusOK, versionPayload{Record: rec, Content: content})
}

func (s *Server) handleBackupList(w http.ResponseWriter, r *http.Request) {
	if s.backups == nil {
		writeError(w, http.StatusNotFound, "Резервное копирование отключено")
		return
	}
	infos, err := s.backups.List()
	if err != nil {
		logging.Error("listing backups", "error", err)
		writeError(w, http.StatusInternalServerError, "Не удалось прочитать список архивов")
		return
	}
	payload := make([]backupPayload, 0, len(infos))
	for _, info := range infos {
		payload = append(payload, backupInfoPayload(info))
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleBackupCreate(w http.ResponseWriter, r *http.Request) {
	if s.backups == nil {
		writeError(w, http.StatusNotFound, "Резервное копирование отключено")
		return
	}
	// The body is optional; a bare POST creates an uncommented backup.
	var req struct {
		Comment string `json:"comment"`
	}
	_ = json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req)

	info, err := s.backups.Create(r.Context(), strings.TrimSpace(req.Comment))
	if err != nil {
		logging.Error("creating backup", "error", err)
		writeError(w, http.StatusInternalServerError, "Не удалось создать архив")
		return
	}
	logging.Info("backup created", "name", info.Name, "size", info.Size)
	writeJSON(w, http.StatusCreated, backupInfoPayload(info))
}

func backupInfoPayload(info backup.Info) backupPayload {
	contents := make([]string, 0, len(info.Manifest.Directories)+len(info.Manifest.Files))
	contents = append(contents, info.Manifest.Directories...)
	contents = append(contents, info.Manifest.Files...)
	return backupPayload{
		Name:      info.Name,
		Size:      info.Size,
		Timestamp: info.Manifest.Timestamp,
		Comment:   info.Manifest.Comment,
		Contents:  contents,
	}
}

// nonNil keeps empty JSON lists as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
