package store

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"

	"golang.org/x/text/cases"
)

// Query narrows a document listing. Empty fields match everything;
// Search matches case-insensitively against title, number and body.
type Query struct {
	Organization string
	Department   string
	Type         string
	Status       string
	Search       string
}

// Filter loads the document tree and keeps the documents matching q.
func (s *Store) Filter(ctx context.Context, q Query) ([]Document, error) {
	docs, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}

	fold := cases.Fold()
	needle := fold.String(strings.TrimSpace(q.Search))

	matched := make([]Document, 0, len(docs))
	for _, doc := range docs {
		if matchesQuery(doc, q, fold, needle) {
			matched = append(matched, doc)
		}
	}
	return matched, nil
}

func matchesQuery(doc Document, q Query, fold cases.Caser, needle string) bool {
	if q.Organization != "" && doc.Meta.Organization != q.Organization {
		return false
	}
	if q.Department != "" && doc.Meta.Department != q.Department {
		return false
	}
	if q.Type != "" && doc.Meta.Type != q.Type {
		return false
	}
	if q.Status != "" && doc.Meta.Status != q.Status {
		return false
	}
	if needle == "" {
		return true
	}
	hay := fold.String(doc.Meta.Title + "\n" + doc.Meta.Number + "\n" + doc.Body)
	return strings.Contains(hay, needle)
}

// Organizations returns the distinct organization names in the tree.
func (s *Store) Organizations(ctx context.Context) ([]string, error) {
	return s.distinct(ctx, func(d Document) string { return d.Meta.Organization })
}

// Departments returns the distinct department names, optionally limited
// to one organization.
func (s *Store) Departments(ctx context.Context, organization string) ([]string, error) {
	return s.distinct(ctx, func(d Document) string {
		if organization != "" && d.Meta.Organization != organization {
			return ""
		}
		return d.Meta.Department
	})
}

// Types returns the distinct document types in the tree.
func (s *Store) Types(ctx context.Context) ([]string, error) {
	return s.distinct(ctx, func(d Document) string { return d.Meta.Type })
}

// Statuses returns the distinct document statuses in the tree.
func (s *Store) Statuses(ctx context.Context) ([]string, error) {
	return s.distinct(ctx, func(d Document) string { return d.Meta.Status })
}

func (s *Store) distinct(ctx context.Context, key func(Document) string) ([]string, error) {
	docs, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{})
	for _, doc := range docs {
		if v := key(doc); v != "" {
			set[v] = struct{}{}
		}
	}
	values := make([]string, 0, len(set))
	for v := range set {
		values = append(values, v)
	}
	sort.Strings(values)
	return values, nil
}

// FindByNumber locates a document by its registration number. A
// non-empty organization restricts the match to that organization.
func (s *Store) FindByNumber(ctx context.Context, number, organization string) (Document, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return Document{}, fmt.Errorf("%w: empty number", ErrNotFound)
	}
	docs, err := s.Load(ctx)
	if err != nil {
		return Document{}, err
	}
	for _, doc := range docs {
		if doc.Meta.Number != number {
			continue
		}
		if organization != "" && doc.Meta.Organization != organization {
			continue
		}
		return doc, nil
	}
	return Document{}, fmt.Errorf("%w: number %s", ErrNotFound, number)
}

// FindByPath locates a document by a path reference, first relative to
// the document root and then relative to the referring document.
func (s *Store) FindByPath(ctx context.Context, ref, fromRel string) (Document, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return Document{}, fmt.Errorf("%w: empty path", ErrNotFound)
	}
	if doc, err := s.Get(ctx, ref); err == nil {
		return doc, nil
	}
	return s.Get(ctx, path.Join(path.Dir(fromRel), ref))
}

// ResolveLink resolves a doc: reference to the root-relative path of
// the target document. The reference is tried as a registration number
// first and as a path second.
func (s *Store) ResolveLink(ctx context.Context, link, fromRel, organization string) (string, bool) {
	ref := strings.TrimSpace(link)
	ref = strings.TrimPrefix(ref, "doc:")
	if ref == "" {
		return "", false
	}
	if doc, err := s.FindByNumber(ctx, ref, organization); err == nil {
		return doc.RelPath, true
	}
	if doc, err := s.FindByPath(ctx, ref, fromRel); err == nil {
		return doc.RelPath, true
	}
	return "", false
}
