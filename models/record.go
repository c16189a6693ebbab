package models

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Categories stored in the record's discriminator field.
const (
	CategoryJournal = "jurnal"
	CategoryOpinion = "opini"
)

// Record is one published journal or opinion entry. Journals and opinions
// share the schema and live under separate storage keys; Category tells
// them apart when both appear in one result set.
type Record struct {
	// ID is the canonical string form of the creation timestamp in
	// milliseconds. All id comparisons are string-normalized; legacy data
	// with numeric ids is converted once at load time.
	ID       string `json:"id"`
	Category string `json:"category,omitempty"`

	Title string `json:"title"`
	// Description is derived from the abstract (first 100 characters,
	// title-cased, plus an ellipsis). Never edited on its own.
	Description  string `json:"description"`
	FullAbstract string `json:"fullAbstract"`

	Author  []string `json:"author"`
	Editors []string `json:"editors,omitempty"`
	Email   string   `json:"email,omitempty"`
	Contact string   `json:"contact,omitempty"`

	CoverImage string `json:"coverImage,omitempty"`
	FileName   string `json:"fileName,omitempty"`
	// FileData is a data-URI of the uploaded document. Empty when the
	// source file exceeded the embed threshold.
	FileData string `json:"fileData,omitempty"`

	Tags []string `json:"tags,omitempty"`

	Views int    `json:"views"`
	Date  string `json:"date,omitempty"`
}

// AuthorLine renders the author list the way every page displays it.
func (r *Record) AuthorLine() string {
	return strings.Join(r.Author, ", ")
}

// FileExtension returns the lower-cased extension of the uploaded file,
// defaulting to "pdf" like the original badges did.
func (r *Record) FileExtension() string {
	if r.FileName == "" {
		return "pdf"
	}
	parts := strings.Split(r.FileName, ".")
	return strings.ToLower(parts[len(parts)-1])
}

// Draft is the shape the submission form glue hands to a collection.
type Draft struct {
	Title    string
	Authors  []string
	Editors  []string
	Email    string
	Contact  string
	Abstract string
	Tags     []string

	FileName string
	FileData string
	FileSize int64

	CoverImage string
	CoverSize  int64
	CoverMIME  string
}

// Patch carries the editable fields of an update. Nil pointers leave the
// stored value untouched.
type Patch struct {
	Title    *string
	Authors  []string
	Abstract *string
	Email    *string
	Contact  *string
	Tags     []string
}

// DecodeRecords parses a serialized collection. Records written by the
// legacy site may use Indonesian field names and numeric ids; both are
// folded into the canonical schema here, so no consumer ever needs
// field-name fallbacks.
func DecodeRecords(raw string) ([]Record, error) {
	var entries []map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, err
	}
	records := make([]Record, 0, len(entries))
	for _, entry := range entries {
		records = append(records, decodeEntry(entry))
	}
	return records, nil
}

// EncodeRecords serializes a collection for a whole-value store write.
func EncodeRecords(records []Record) (string, error) {
	if records == nil {
		records = []Record{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeEntry(entry map[string]json.RawMessage) Record {
	var r Record
	r.ID = decodeID(entry["id"])
	r.Category = decodeString(entry, "category", "kategori")
	r.Title = decodeString(entry, "title", "judul")
	r.Description = decodeString(entry, "description", "deskripsi")
	r.FullAbstract = decodeString(entry, "fullAbstract", "abstract", "abstrak")
	r.Author = decodeStrings(entry, "author", "authors", "penulis", "namaPenulis")
	r.Editors = decodeStrings(entry, "editors", "pengurus")
	r.Email = decodeString(entry, "email")
	r.Contact = decodeString(entry, "contact", "kontak", "phone")
	r.CoverImage = decodeString(entry, "coverImage", "cover")
	r.FileName = decodeString(entry, "fileName")
	r.FileData = decodeString(entry, "fileData", "file")
	r.Tags = decodeStrings(entry, "tags")
	r.Date = decodeString(entry, "date", "uploadDate")

	if raw, ok := entry["views"]; ok {
		var views float64
		if json.Unmarshal(raw, &views) == nil && views > 0 {
			r.Views = int(views)
		}
	}
	return r
}

func decodeID(raw json.RawMessage) string {
	if raw == nil {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return strings.TrimSpace(s)
	}
	var n float64
	if json.Unmarshal(raw, &n) == nil {
		return strconv.FormatInt(int64(n), 10)
	}
	return ""
}

func decodeString(entry map[string]json.RawMessage, keys ...string) string {
	for _, key := range keys {
		raw, ok := entry[key]
		if !ok {
			continue
		}
		var s string
		if json.Unmarshal(raw, &s) == nil && s != "" {
			return s
		}
	}
	return ""
}

// decodeStrings accepts both the canonical []string form and the legacy
// single-string form.
func decodeStrings(entry map[string]json.RawMessage, keys ...string) []string {
	for _, key := range keys {
		raw, ok := entry[key]
		if !ok {
			continue
		}
		var list []string
		if json.Unmarshal(raw, &list) == nil && len(list) > 0 {
			return list
		}
		var single string
		if json.Unmarshal(raw, &single) == nil && single != "" {
			return []string{single}
		}
	}
	return nil
}
