package history

import (
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v2"
)

// BadgerStore is the durable Store used by the harness binary. Each variant
// is one key; values are JSON-encoded records. Writes are synchronous so a
// record is on disk before its variant counts as completed.
type BadgerStore struct {
	db *badger.DB
}

// OpenBadger opens (or creates) a run history database at the given
// directory.
func OpenBadger(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	opts.SyncWrites = true
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open run history at %s: %w", dir, err)
	}
	return &BadgerStore{db: db}, nil
}

func (s *BadgerStore) Get(variant string) (Record, bool, error) {
	var record Record
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(variant))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(value []byte) error {
			return json.Unmarshal(value, &record)
		})
	})
	if err != nil {
		return Record{}, false, fmt.Errorf("failed to read record for %s: %w", variant, err)
	}
	return record, found, nil
}

func (s *BadgerStore) Put(record Record) error {
	value, err := json.Marshal(record)
	if err != nil {
		return err
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(record.Variant), value)
	})
	if err != nil {
		return fmt.Errorf("failed to persist record for %s: %w", record.Variant, err)
	}
	return nil
}

func (s *BadgerStore) All() ([]Record, error) {
	var all []Record
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			var record Record
			err := it.Item().Value(func(value []byte) error {
				return json.Unmarshal(value, &record)
			})
			if err != nil {
				return err
			}
			all = append(all, record)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate run history: %w", err)
	}
	return all, nil
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}
