package bbolt

import (
	"bytes"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/babylonchain/btc-staking-signer/store"
)

// BboltStore implements the Store interface
type BboltStore struct {
	db         *bolt.DB
	bucketName []byte
}

var _ store.Store = (*BboltStore)(nil)

// Put stores the given value for the given key.
// The key must not be empty and the value must not be nil.
func (s *BboltStore) Put(k []byte, v []byte) error {
	if err := checkKeyAndValue(k, v); err != nil {
		return err
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucketName).Put(k, v)
	})
}

// Get retrieves the stored value for the given key.
func (s *BboltStore) Get(k []byte) ([]byte, error) {
	if err := checkKey(k); err != nil {
		return nil, err
	}

	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(s.bucketName).Get(k)
		if v == nil {
			return store.ErrKeyNotFound
		}
		// the slice is only valid inside the transaction
		data = append([]byte{}, v...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return data, nil
}

// Exists checks whether the given key exists in the store.
func (s *BboltStore) Exists(k []byte) (bool, error) {
	if err := checkKey(k); err != nil {
		return false, err
	}

	var exists bool
	err := s.db.View(func(tx *bolt.Tx) error {
		exists = tx.Bucket(s.bucketName).Get(k) != nil
		return nil
	})
	if err != nil {
		return false, err
	}

	return exists, nil
}

func (s *BboltStore) List(keyPrefix []byte) ([]*store.KVPair, error) {
	var kvList []*store.KVPair

	err := s.db.View(func(tx *bolt.Tx) error {
		cursor := tx.Bucket(s.bucketName).Cursor()

		var key, v []byte
		if len(keyPrefix) == 0 {
			key, v = cursor.First()
		} else {
			key, v = cursor.Seek(keyPrefix)
		}

		for ; key != nil && bytes.HasPrefix(key, keyPrefix); key, v = cursor.Next() {
			if err := checkValue(v); err != nil {
				return err
			}
			kvList = append(kvList, &store.KVPair{
				Key:   append([]byte{}, key...),
				Value: append([]byte{}, v...),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return kvList, nil
}

// Delete deletes the stored value for the given key.
// Deleting a non-existing key-value pair does NOT lead to an error.
func (s *BboltStore) Delete(k []byte) error {
	if err := checkKey(k); err != nil {
		return err
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucketName).Delete(k)
	})
}

// Close closes the store.
// It must be called to make sure that all open transactions finish and to release all DB resources.
func (s *BboltStore) Close() error {
	return s.db.Close()
}

// Options are the options for the bbolt store.
type Options struct {
	// Bucket name for storing the key-value pairs.
	// Optional ("default" by default).
	BucketName string
	// Path of the DB file.
	// Optional ("bbolt.db" by default).
	Path string
	// Timeout is how long to wait for the file lock held by another process.
	// Optional (1s by default).
	Timeout time.Duration
}

// DefaultOptions is an Options object with default values.
var DefaultOptions = Options{
	BucketName: "default",
	Path:       "bbolt.db",
	Timeout:    time.Second,
}

// NewBboltStore creates a new bbolt store.
// Note: bbolt uses an exclusive write lock on the database file so it cannot be shared by multiple processes.
//
// You must call the Close() method on the store when you're done working with it.
func NewBboltStore(options Options) (*BboltStore, error) {
	if options.BucketName == "" {
		options.BucketName = DefaultOptions.BucketName
	}
	if options.Path == "" {
		options.Path = DefaultOptions.Path
	}
	if options.Timeout == 0 {
		options.Timeout = DefaultOptions.Timeout
	}

	db, err := bolt.Open(options.Path, 0600, &bolt.Options{Timeout: options.Timeout})
	if err != nil {
		return nil, err
	}

	// In bbolt key/value pairs are stored to and read from buckets.
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(options.BucketName))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &BboltStore{
		db:         db,
		bucketName: []byte(options.BucketName),
	}, nil
}

func checkKey(k []byte) error {
	if len(k) == 0 {
		return store.ErrEmptyKey
	}
	return nil
}

func checkValue(v []byte) error {
	if v == nil {
		return store.ErrNilValue
	}
	return nil
}

func checkKeyAndValue(k []byte, v []byte) error {
	if err := checkKey(k); err != nil {
		return err
	}
	return checkValue(v)
}
