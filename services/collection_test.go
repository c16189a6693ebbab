package services

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/madins005/KSM-Education-Home-Journal/models"
	"github.com/madins005/KSM-Education-Home-Journal/storage"
)

type collectionEnv struct {
	store   *storage.MemoryStore
	bus     *Bus
	col     *Collection
	admin   bool
	confirm bool
}

func newCollectionEnv(t *testing.T) *collectionEnv {
	t.Helper()
	env := &collectionEnv{
		store:   storage.NewMemoryStore(),
		confirm: true,
	}
	env.bus = NewBus(zap.NewNop())
	env.col = NewCollection(CollectionConfig{
		Key:              storage.KeyJournals,
		Category:         models.CategoryJournal,
		MaxEmbedBytes:    3 * 1024 * 1024,
		MaxCoverBytes:    2 * 1024 * 1024,
		PlaceholderCover: "https://placeholder.example/cover.png",
	}, env.store, env.bus,
		func() bool { return env.admin },
		func(string) bool { return env.confirm },
		zap.NewNop())
	return env
}

func (e *collectionEnv) mustAdd(t *testing.T, title string) models.Record {
	t.Helper()
	d := validDraft()
	d.Title = title
	record, err := e.col.Add(d)
	require.NoError(t, err)
	return record
}

func TestCollectionAdd(t *testing.T) {
	t.Run("stored record is normalized", func(t *testing.T) {
		env := newCollectionEnv(t)
		record := env.mustAdd(t, "metode PENELITIAN kualitatif")

		assert.Equal(t, "Metode Penelitian Kualitatif", record.Title)
		assert.Equal(t, models.CategoryJournal, record.Category)
		assert.Equal(t, []string{"Siti Rahma"}, record.Author)
		assert.True(t, strings.HasSuffix(record.Description, "..."))
		assert.NotEmpty(t, record.Date)
		assert.NotEmpty(t, record.ID)

		found, err := env.col.FindByID(record.ID)
		require.NoError(t, err)
		assert.Equal(t, record.Title, found.Title)
	})

	t.Run("ids are distinct for sequential adds", func(t *testing.T) {
		env := newCollectionEnv(t)
		first := env.mustAdd(t, "first")
		time.Sleep(2 * time.Millisecond)
		second := env.mustAdd(t, "second")
		assert.NotEqual(t, first.ID, second.ID)
	})

	t.Run("newest record is first", func(t *testing.T) {
		env := newCollectionEnv(t)
		env.mustAdd(t, "older")
		time.Sleep(2 * time.Millisecond)
		env.mustAdd(t, "newer")

		all := env.col.All()
		require.Len(t, all, 2)
		assert.Equal(t, "Newer", all[0].Title)
	})

	t.Run("invalid draft writes nothing", func(t *testing.T) {
		env := newCollectionEnv(t)
		d := validDraft()
		d.Contact = "12345"
		_, err := env.col.Add(d)

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "contact", verr.Field)
		assert.Equal(t, 0, env.col.Len())
		_, ok := env.store.Get(storage.KeyJournals)
		assert.False(t, ok)
	})

	t.Run("oversized file keeps metadata only", func(t *testing.T) {
		env := newCollectionEnv(t)
		d := validDraft()
		d.FileSize = 4 * 1024 * 1024
		record, err := env.col.Add(d)
		require.NoError(t, err)
		assert.Empty(t, record.FileData)
		assert.Equal(t, "paper.pdf", record.FileName)
	})

	t.Run("missing cover gets the placeholder", func(t *testing.T) {
		env := newCollectionEnv(t)
		d := validDraft()
		d.CoverImage = ""
		record, err := env.col.Add(d)
		require.NoError(t, err)
		assert.Equal(t, "https://placeholder.example/cover.png", record.CoverImage)
	})

	t.Run("publishes a change event", func(t *testing.T) {
		env := newCollectionEnv(t)
		fired := 0
		env.bus.Subscribe(storage.KeyJournals, func() { fired++ })
		env.mustAdd(t, "anything")
		assert.Equal(t, 1, fired)
	})
}

func TestCollectionFindByID(t *testing.T) {
	env := newCollectionEnv(t)
	record := env.mustAdd(t, "lookup target")

	t.Run("exact id", func(t *testing.T) {
		found, err := env.col.FindByID(record.ID)
		require.NoError(t, err)
		assert.Equal(t, record.ID, found.ID)
	})

	t.Run("surrounding whitespace is normalized away", func(t *testing.T) {
		found, err := env.col.FindByID("  " + record.ID + " ")
		require.NoError(t, err)
		assert.Equal(t, record.ID, found.ID)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := env.col.FindByID("999")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("empty id", func(t *testing.T) {
		_, err := env.col.FindByID("  ")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestCollectionUpdate(t *testing.T) {
	str := func(s string) *string { return &s }

	t.Run("changing the abstract recomputes the description", func(t *testing.T) {
		env := newCollectionEnv(t)
		record := env.mustAdd(t, "original")

		updated, err := env.col.Update(record.ID, &models.Patch{Abstract: str("abstrak yang baru")})
		require.NoError(t, err)
		assert.Equal(t, "Abstrak Yang Baru", updated.FullAbstract)
		assert.Equal(t, "Abstrak Yang Baru...", updated.Description)
	})

	t.Run("untouched fields survive", func(t *testing.T) {
		env := newCollectionEnv(t)
		record := env.mustAdd(t, "original title")

		updated, err := env.col.Update(record.ID, &models.Patch{Email: str("new@kampus.ac.id")})
		require.NoError(t, err)
		assert.Equal(t, "Original Title", updated.Title)
		assert.Equal(t, "new@kampus.ac.id", updated.Email)
	})

	t.Run("unknown id", func(t *testing.T) {
		env := newCollectionEnv(t)
		_, err := env.col.Update("123", &models.Patch{Title: str("x")})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("invalid patch leaves the record alone", func(t *testing.T) {
		env := newCollectionEnv(t)
		record := env.mustAdd(t, "stays")

		_, err := env.col.Update(record.ID, &models.Patch{Title: str("  ")})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)

		found, err := env.col.FindByID(record.ID)
		require.NoError(t, err)
		assert.Equal(t, "Stays", found.Title)
	})
}

func TestCollectionRemove(t *testing.T) {
	t.Run("requires the admin capability", func(t *testing.T) {
		env := newCollectionEnv(t)
		record := env.mustAdd(t, "protected")

		err := env.col.Remove(record.ID)
		assert.ErrorIs(t, err, ErrUnauthorized)
		assert.Equal(t, 1, env.col.Len())
	})

	t.Run("declined confirmation is a silent no-op", func(t *testing.T) {
		env := newCollectionEnv(t)
		record := env.mustAdd(t, "kept")
		env.admin = true
		env.confirm = false

		err := env.col.Remove(record.ID)
		assert.NoError(t, err)
		assert.Equal(t, 1, env.col.Len())
	})

	t.Run("confirmed admin delete removes and persists", func(t *testing.T) {
		env := newCollectionEnv(t)
		record := env.mustAdd(t, "doomed")
		env.admin = true

		events := 0
		env.bus.Subscribe(storage.KeyJournals, func() { events++ })

		require.NoError(t, env.col.Remove(record.ID))
		assert.Equal(t, 0, env.col.Len())
		assert.Equal(t, 1, events)

		raw, ok := env.store.Get(storage.KeyJournals)
		require.True(t, ok)
		assert.Equal(t, "[]", raw)
	})

	t.Run("unknown id with admin", func(t *testing.T) {
		env := newCollectionEnv(t)
		env.admin = true
		assert.ErrorIs(t, env.col.Remove("123"), ErrNotFound)
	})
}

func TestCollectionIncrementView(t *testing.T) {
	env := newCollectionEnv(t)
	record := env.mustAdd(t, "viewed")

	views, err := env.col.IncrementView(record.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, views)

	views, err = env.col.IncrementView(record.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, views)

	// Persisted, so a fresh load sees it.
	fresh := env.col.Reload()
	require.Len(t, fresh, 1)
	assert.Equal(t, 2, fresh[0].Views)
}

func TestCollectionReload(t *testing.T) {
	t.Run("corrupt store value degrades to empty", func(t *testing.T) {
		env := newCollectionEnv(t)
		env.mustAdd(t, "soon lost")
		require.NoError(t, env.store.Set(storage.KeyJournals, "{{{not json"))

		records := env.col.Reload()
		assert.Empty(t, records)
		assert.Equal(t, 0, env.col.Len())
	})

	t.Run("missing key is an empty collection", func(t *testing.T) {
		env := newCollectionEnv(t)
		assert.Empty(t, env.col.Reload())
	})

	t.Run("picks up an external write", func(t *testing.T) {
		env := newCollectionEnv(t)
		raw, err := models.EncodeRecords([]models.Record{{ID: "42", Title: "From Elsewhere", Author: []string{"A"}}})
		require.NoError(t, err)
		require.NoError(t, env.store.Set(storage.KeyJournals, raw))

		records := env.col.Reload()
		require.Len(t, records, 1)
		assert.Equal(t, "From Elsewhere", records[0].Title)
	})

	t.Run("legacy numeric ids are findable by string", func(t *testing.T) {
		env := newCollectionEnv(t)
		require.NoError(t, env.store.Set(storage.KeyJournals,
			`[{"id": 1748822400000, "judul": "Lama", "penulis": "Siti"}]`))
		env.col.Reload()

		found, err := env.col.FindByID("1748822400000")
		require.NoError(t, err)
		assert.Equal(t, "Lama", found.Title)
	})
}
