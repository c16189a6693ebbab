package services

import (
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/madins005/KSM-Education-Home-Journal/models"
)

// SortKey selects the ordering of a paginated surface.
type SortKey string

// Supported sort orders.
const (
	SortNewest SortKey = "newest"
	SortOldest SortKey = "oldest"
	SortTitle  SortKey = "title"
)

// PageView is what a rendering adapter receives: the window of records
// plus everything the pager controls need.
type PageView struct {
	Records       []models.Record `json:"records"`
	CurrentPage   int             `json:"currentPage"`
	TotalPages    int             `json:"totalPages"`
	TotalFiltered int             `json:"totalFiltered"`
	TotalRecords  int             `json:"totalRecords"`
	SearchTerm    string          `json:"searchTerm,omitempty"`
	Sort          SortKey         `json:"sort"`
}

// Pagination is a windowed, sorted, filtered view over one collection for
// a single rendering surface. The collection is reloaded from the store on
// every render rather than cached, so the view can never drift from
// persisted truth.
type Pagination struct {
	col      *Collection
	pageSize int
	log      *zap.Logger

	page int
	sort SortKey
	term string
}

// NewPagination creates a surface starting at page 1, newest first.
func NewPagination(col *Collection, pageSize int, log *zap.Logger) *Pagination {
	return &Pagination{col: col, pageSize: pageSize, log: log, page: 1, sort: SortNewest}
}

// SetSearch installs a free-text filter and rewinds to the first page.
func (p *Pagination) SetSearch(term string) {
	p.term = strings.ToLower(strings.TrimSpace(term))
	p.page = 1
}

// SetSort installs the sort order and rewinds to the first page. Unknown
// keys keep the stored order untouched, like the original select control.
func (p *Pagination) SetSort(key SortKey) {
	switch key {
	case SortNewest, SortOldest, SortTitle:
		p.sort = key
		p.page = 1
	}
}

// GoToPage moves to a 1-based page. Out-of-range requests are ignored, not
// errors: pager controls are never built for pages that do not exist, so
// anything else is a stale click.
func (p *Pagination) GoToPage(page int) {
	total := p.totalPages(len(p.filter(p.col.Reload())))
	if page < 1 || page > total {
		return
	}
	p.page = page
}

// CurrentPage returns the 1-based page the surface is on.
func (p *Pagination) CurrentPage() int { return p.page }

// Render recomputes the visible window from freshly loaded records.
// Rendering twice without an intervening mutation yields identical output.
func (p *Pagination) Render() PageView {
	records := p.col.Reload()
	filtered := p.filter(records)
	p.sortRecords(filtered)

	total := p.totalPages(len(filtered))
	start := (p.page - 1) * p.pageSize
	end := start + p.pageSize
	if start > len(filtered) {
		start = len(filtered)
	}
	if end > len(filtered) {
		end = len(filtered)
	}

	return PageView{
		Records:       filtered[start:end],
		CurrentPage:   p.page,
		TotalPages:    total,
		TotalFiltered: len(filtered),
		TotalRecords:  len(records),
		SearchTerm:    p.term,
		Sort:          p.sort,
	}
}

// Delete removes a record through the owning collection, then re-renders.
func (p *Pagination) Delete(id string) (PageView, error) {
	if err := p.col.Remove(id); err != nil {
		return PageView{}, err
	}
	return p.Render(), nil
}

// Update edits a record through the owning collection, then re-renders.
func (p *Pagination) Update(id string, patch *models.Patch) (PageView, error) {
	if _, err := p.col.Update(id, patch); err != nil {
		return PageView{}, err
	}
	return p.Render(), nil
}

// filter keeps records whose title, description, abstract, author line or
// tags contain the search term, case-insensitively.
func (p *Pagination) filter(records []models.Record) []models.Record {
	if p.term == "" {
		return records
	}
	out := make([]models.Record, 0, len(records))
	for _, r := range records {
		haystack := strings.ToLower(strings.Join([]string{
			r.Title,
			r.Description,
			r.FullAbstract,
			strings.Join(r.Author, " "),
			strings.Join(r.Tags, " "),
		}, " "))
		if strings.Contains(haystack, p.term) {
			out = append(out, r)
		}
	}
	return out
}

func (p *Pagination) sortRecords(records []models.Record) {
	switch p.sort {
	case SortNewest:
		sort.SliceStable(records, func(i, j int) bool {
			return idValue(records[i].ID) > idValue(records[j].ID)
		})
	case SortOldest:
		sort.SliceStable(records, func(i, j int) bool {
			return idValue(records[i].ID) < idValue(records[j].ID)
		})
	case SortTitle:
		sort.SliceStable(records, func(i, j int) bool {
			return strings.ToLower(records[i].Title) < strings.ToLower(records[j].Title)
		})
	}
}

func (p *Pagination) totalPages(filtered int) int {
	if filtered == 0 {
		return 0
	}
	return (filtered + p.pageSize - 1) / p.pageSize
}

// idValue parses the canonical string id back to its numeric timestamp
// for age ordering. Unparseable ids sort oldest.
func idValue(id string) int64 {
	n, err := strconv.ParseInt(NormalizeID(id), 10, 64)
	if err != nil {
		return 0
	}
	return n
}
