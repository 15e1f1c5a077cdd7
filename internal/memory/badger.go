package memory

import (
	"encoding/json"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
)

// BadgerStore persists the memory stream in an embedded BadgerDB. Keys are
// nanosecond-timestamp-prefixed so a plain key scan replays the stream in
// append order.
type BadgerStore struct {
	db *badger.DB
}

var _ Persister = (*BadgerStore)(nil)

// OpenBadger opens (or creates) the store at dir.
func OpenBadger(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening memory db: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

// Save writes one record.
func (b *BadgerStore) Save(r *Record) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshaling record: %w", err)
	}
	key := fmt.Sprintf("rec:%020d:%s", r.CreatedAt.UnixNano(), r.ID)
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
}

// LoadAll returns every record in append order.
func (b *BadgerStore) LoadAll() ([]*Record, error) {
	var records []*Record
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchSize = 100
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte("rec:")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var r Record
			valErr := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &r)
			})
			if valErr != nil {
				continue
			}
			rec := r
			records = append(records, &rec)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("loading records: %w", err)
	}
	return records, nil
}

// Close releases the database.
func (b *BadgerStore) Close() error {
	return b.db.Close()
}
