// Package storage provides the persistent key-value store the whole site
// state lives in. The contract mirrors browser local storage: synchronous
// string-keyed reads and writes with replace-whole-value semantics, plus a
// change notification that fires in other contexts but never in the
// writer's own.
package storage

// StoreKeys used by the application. Journals and opinions are independent
// collections; statistics is a derived aggregate.
const (
	KeyJournals   = "journals"
	KeyOpinions   = "opinions"
	KeyStatistics = "siteStatistics"
)

// Store is the minimal synchronous key-value contract. There are no
// transactions and no partial updates; Set replaces the whole value.
// Callers are expected to pre-check payload sizes rather than recover from
// quota failures.
type Store interface {
	// Get returns the stored value and whether the key exists.
	Get(key string) (string, bool)
	// Set replaces the value under key.
	Set(key, value string) error
	Close() error
}

// Notifier is implemented by stores that can observe changes made by other
// processes sharing the same physical store. The callback fires only for
// external writes, never for this adapter's own, and carries no payload:
// listeners must re-read the store.
type Notifier interface {
	Watch(fn func(key string))
}
