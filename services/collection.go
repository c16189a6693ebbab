package services

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/madins005/KSM-Education-Home-Journal/models"
	"github.com/madins005/KSM-Education-Home-Journal/storage"
)

// AdminFunc reports whether the current session holds the admin
// capability. Supplied by the page glue, never read from a global.
type AdminFunc func() bool

// ConfirmFunc asks the user a blocking yes/no question before a
// destructive operation.
type ConfirmFunc func(prompt string) bool

// CollectionConfig bundles the policy knobs a collection needs.
type CollectionConfig struct {
	// Key is the storage key this collection exclusively writes.
	Key      string
	Category string
	// MaxEmbedBytes is the size above which uploads keep their metadata
	// but drop the embedded document, trading download availability for
	// store quota headroom.
	MaxEmbedBytes    int64
	MaxCoverBytes    int64
	PlaceholderCover string
}

// Collection is the typed CRUD manager over one persisted record list. It
// is the sole writer of its storage key and owns the canonical in-memory
// copy while active. Two tabs writing concurrently resolve last-write-wins
// with whole-value replacement; that is a documented limitation, not
// something this layer tries to merge.
type Collection struct {
	cfg     CollectionConfig
	store   storage.Store
	bus     *Bus
	isAdmin AdminFunc
	confirm ConfirmFunc
	log     *zap.Logger

	mu      sync.Mutex
	records []models.Record
}

// NewCollection loads the persisted list and returns the manager.
func NewCollection(cfg CollectionConfig, store storage.Store, bus *Bus, isAdmin AdminFunc, confirm ConfirmFunc, log *zap.Logger) *Collection {
	c := &Collection{
		cfg:     cfg,
		store:   store,
		bus:     bus,
		isAdmin: isAdmin,
		confirm: confirm,
		log:     log,
	}
	c.Reload()
	return c
}

// Key returns the storage key this collection owns.
func (c *Collection) Key() string { return c.cfg.Key }

// Reload re-reads the list from the store and returns a copy. A missing
// or corrupt value degrades to an empty collection; the user cannot repair
// stored bytes, so a parse error is never surfaced as a hard failure.
func (c *Collection) Reload() []models.Record {
	raw, ok := c.store.Get(c.cfg.Key)
	var records []models.Record
	if ok {
		parsed, err := models.DecodeRecords(raw)
		if err != nil {
			c.log.Warn("stored collection unreadable, starting empty",
				zap.String("key", c.cfg.Key), zap.Error(err))
		} else {
			records = parsed
		}
	}
	c.mu.Lock()
	c.records = records
	out := c.snapshotLocked()
	c.mu.Unlock()
	return out
}

// All returns a copy of the in-memory list, newest first.
func (c *Collection) All() []models.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Len returns the number of records currently held.
func (c *Collection) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.records)
}

// Add validates and stores a new record, prepending it to the list.
// The id is the creation timestamp in milliseconds; two adds inside the
// same millisecond in one process would collide, which is an accepted
// limitation of the timestamp-as-identifier scheme.
func (c *Collection) Add(draft *models.Draft) (models.Record, error) {
	if verr := ValidateDraft(draft, true, c.cfg.MaxCoverBytes); verr != nil {
		return models.Record{}, verr
	}

	now := time.Now()
	record := models.Record{
		ID:           strconv.FormatInt(now.UnixMilli(), 10),
		Category:     c.cfg.Category,
		Title:        TitleCase(draft.Title),
		FullAbstract: TitleCase(draft.Abstract),
		Description:  DeriveDescription(draft.Abstract),
		Author:       titleCaseAll(nonEmpty(draft.Authors)),
		Editors:      nonEmpty(draft.Editors),
		Email:        strings.TrimSpace(draft.Email),
		Contact:      strings.TrimSpace(draft.Contact),
		CoverImage:   draft.CoverImage,
		FileName:     draft.FileName,
		Tags:         nonEmpty(draft.Tags),
		Date:         DisplayDate(now),
	}
	if record.CoverImage == "" {
		record.CoverImage = c.cfg.PlaceholderCover
	}
	if draft.FileSize <= c.cfg.MaxEmbedBytes {
		record.FileData = draft.FileData
	} else {
		c.log.Info("file exceeds embed threshold, keeping metadata only",
			zap.String("file", draft.FileName), zap.Int64("size", draft.FileSize))
	}

	c.mu.Lock()
	c.records = append([]models.Record{record}, c.records...)
	err := c.persistLocked()
	c.mu.Unlock()
	if err != nil {
		return models.Record{}, err
	}

	c.bus.Publish(c.cfg.Key)
	c.log.Info("record added", zap.String("key", c.cfg.Key), zap.String("id", record.ID), zap.String("title", record.Title))
	return record, nil
}

// Update merges the patch into the record with the given id, applying the
// same normalization as Add. The description is recomputed whenever the
// abstract changes.
func (c *Collection) Update(id string, patch *models.Patch) (models.Record, error) {
	if verr := ValidatePatch(patch); verr != nil {
		return models.Record{}, verr
	}

	c.mu.Lock()
	idx := c.indexOfLocked(id)
	if idx < 0 {
		c.mu.Unlock()
		return models.Record{}, ErrNotFound
	}
	record := &c.records[idx]
	if patch.Title != nil {
		record.Title = TitleCase(*patch.Title)
	}
	if patch.Abstract != nil {
		record.FullAbstract = TitleCase(*patch.Abstract)
		record.Description = DeriveDescription(*patch.Abstract)
	}
	if patch.Authors != nil {
		record.Author = titleCaseAll(nonEmpty(patch.Authors))
	}
	if patch.Email != nil {
		record.Email = strings.TrimSpace(*patch.Email)
	}
	if patch.Contact != nil {
		record.Contact = strings.TrimSpace(*patch.Contact)
	}
	if patch.Tags != nil {
		record.Tags = nonEmpty(patch.Tags)
	}
	updated := *record
	err := c.persistLocked()
	c.mu.Unlock()
	if err != nil {
		return models.Record{}, err
	}

	c.bus.Publish(c.cfg.Key)
	c.log.Info("record updated", zap.String("key", c.cfg.Key), zap.String("id", updated.ID))
	return updated, nil
}

// Remove deletes the record with the given id. It requires the admin
// capability and an interactive confirmation; a declined confirmation is a
// silent no-op.
func (c *Collection) Remove(id string) error {
	if c.isAdmin == nil || !c.isAdmin() {
		return ErrUnauthorized
	}
	if c.confirm != nil && !c.confirm("Delete this record permanently?") {
		c.log.Info("delete cancelled", zap.String("key", c.cfg.Key), zap.String("id", id))
		return nil
	}

	c.mu.Lock()
	idx := c.indexOfLocked(id)
	if idx < 0 {
		c.mu.Unlock()
		return ErrNotFound
	}
	removed := c.records[idx]
	c.records = append(c.records[:idx], c.records[idx+1:]...)
	err := c.persistLocked()
	c.mu.Unlock()
	if err != nil {
		return err
	}

	c.bus.Publish(c.cfg.Key)
	c.log.Info("record deleted", zap.String("key", c.cfg.Key), zap.String("id", removed.ID), zap.String("title", removed.Title))
	return nil
}

// FindByID looks a record up by its id. Ids arriving from URLs are text,
// so the comparison is string-normalized on both sides.
func (c *Collection) FindByID(id string) (models.Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx := c.indexOfLocked(id)
	if idx < 0 {
		return models.Record{}, ErrNotFound
	}
	return c.records[idx], nil
}

// IncrementView bumps a record's view counter, independent of admin
// status. The counter is a read-modify-write of fresh store state so a
// detail page opened in another tab is not overwritten with stale data.
func (c *Collection) IncrementView(id string) (int, error) {
	c.Reload()

	c.mu.Lock()
	idx := c.indexOfLocked(id)
	if idx < 0 {
		c.mu.Unlock()
		return 0, ErrNotFound
	}
	c.records[idx].Views++
	views := c.records[idx].Views
	err := c.persistLocked()
	c.mu.Unlock()
	if err != nil {
		return 0, err
	}
	return views, nil
}

func (c *Collection) indexOfLocked(id string) int {
	want := NormalizeID(id)
	if want == "" {
		return -1
	}
	for i := range c.records {
		if NormalizeID(c.records[i].ID) == want {
			return i
		}
	}
	return -1
}

// persistLocked serializes the whole list and replaces the store value.
func (c *Collection) persistLocked() error {
	raw, err := models.EncodeRecords(c.records)
	if err != nil {
		return err
	}
	if err := c.store.Set(c.cfg.Key, raw); err != nil {
		c.log.Error("store write failed", zap.String("key", c.cfg.Key), zap.Error(err))
		return err
	}
	return nil
}

func (c *Collection) snapshotLocked() []models.Record {
	out := make([]models.Record, len(c.records))
	copy(out, c.records)
	return out
}

// NormalizeID brings any id representation to the canonical string form.
func NormalizeID(id string) string {
	return strings.TrimSpace(id)
}

func titleCaseAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = TitleCase(v)
	}
	return out
}
