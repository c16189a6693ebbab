package services

import (
	"strings"

	"github.com/madins005/KSM-Education-Home-Journal/models"
	"github.com/madins005/KSM-Education-Home-Journal/storage"
)

// PreviewKind is the viewer the modal should render.
type PreviewKind string

// Preview policy outcomes. Remote cover URLs are never treated as
// embeddable content; anything not provably inline falls back to the
// download hint.
const (
	PreviewDocument    PreviewKind = "document"
	PreviewImage       PreviewKind = "image"
	PreviewUnavailable PreviewKind = "unavailable"
)

// previewableExtensions are the document types the embedded viewer can
// show inline.
var previewableExtensions = map[string]bool{
	"pdf": true,
}

// PreviewResolver locates a record for the preview modal. Depending on
// the page, zero, one or two collection instances are live; whatever is
// missing is answered by a direct storage read.
type PreviewResolver struct {
	store storage.Store
	live  []*Collection
}

// NewPreviewResolver builds a resolver over the given live collections.
func NewPreviewResolver(store storage.Store, live ...*Collection) *PreviewResolver {
	return &PreviewResolver{store: store, live: live}
}

// Resolve finds the record and decides which viewer applies.
func (p *PreviewResolver) Resolve(id string) (models.Record, PreviewKind, error) {
	for _, col := range p.live {
		if col == nil {
			continue
		}
		if record, err := col.FindByID(id); err == nil {
			return record, Classify(&record), nil
		}
	}

	// No live instance holds it; fall back to persisted truth.
	for _, key := range []string{storage.KeyJournals, storage.KeyOpinions} {
		record, err := p.findInStore(key, id)
		if err == nil {
			return record, Classify(&record), nil
		}
	}
	return models.Record{}, PreviewUnavailable, ErrNotFound
}

// Classify applies the content-type policy: an embedded document viewer
// only for inline file data with a previewable extension, an image viewer
// only for an inline (data-URI) cover.
func Classify(r *models.Record) PreviewKind {
	if r.FileData != "" && previewableExtensions[r.FileExtension()] {
		return PreviewDocument
	}
	if strings.HasPrefix(r.CoverImage, "data:image/") {
		return PreviewImage
	}
	return PreviewUnavailable
}

func (p *PreviewResolver) findInStore(key, id string) (models.Record, error) {
	raw, ok := p.store.Get(key)
	if !ok {
		return models.Record{}, ErrNotFound
	}
	records, err := models.DecodeRecords(raw)
	if err != nil {
		return models.Record{}, ErrNotFound
	}
	want := NormalizeID(id)
	for _, r := range records {
		if NormalizeID(r.ID) == want {
			return r, nil
		}
	}
	return models.Record{}, ErrNotFound
}
