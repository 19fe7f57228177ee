package repositories

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/dgraph-io/badger/v4"
)

// Key prefixes for the entity types stored in Badger
const (
	CategoryKeyPrefix = "category:"
	PostKeyPrefix     = "post:"
	CommentKeyPrefix  = "comment:"

	// Sequence keys for auto-incrementing IDs
	CategorySeqKey = "seq:category"
	PostSeqKey     = "seq:post"
	CommentSeqKey  = "seq:comment"
)

func categoryKey(id uint) []byte {
	return []byte(fmt.Sprintf("%s%d", CategoryKeyPrefix, id))
}

func postKey(id uint) []byte {
	return []byte(fmt.Sprintf("%s%d", PostKeyPrefix, id))
}

// commentPrefix groups the comments of one post so they can be scanned together.
func commentPrefix(postID uint) []byte {
	return []byte(fmt.Sprintf("%s%d:", CommentKeyPrefix, postID))
}

// commentKey zero-pads the comment id so keys sort in insertion order.
func commentKey(postID, id uint) []byte {
	return []byte(fmt.Sprintf("%s%d:%010d", CommentKeyPrefix, postID, id))
}

// getNextID gets the next available ID for a given sequence key
func getNextID(txn *badger.Txn, seqKey string) (uint, error) {
	var id uint64
	item, err := txn.Get([]byte(seqKey))
	if err == badger.ErrKeyNotFound {
		id = 1
	} else if err != nil {
		return 0, fmt.Errorf("failed to get sequence: %w", err)
	} else {
		err = item.Value(func(val []byte) error {
			id, err = strconv.ParseUint(string(val), 10, 64)
			if err != nil {
				return fmt.Errorf("failed to parse sequence: %w", err)
			}
			id++
			return nil
		})
		if err != nil {
			return 0, err
		}
	}

	if err := setSequence(txn, seqKey, uint(id)); err != nil {
		return 0, err
	}
	return uint(id), nil
}

// setSequence stores id as the last value handed out for seqKey.
func setSequence(txn *badger.Txn, seqKey string, id uint) error {
	if err := txn.Set([]byte(seqKey), []byte(strconv.FormatUint(uint64(id), 10))); err != nil {
		return fmt.Errorf("failed to update sequence: %w", err)
	}
	return nil
}

// exists reports whether key is present in the transaction's view.
func exists(txn *badger.Txn, key []byte) (bool, error) {
	_, err := txn.Get(key)
	if err == badger.ErrKeyNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// getEntity loads the value at key into v. It reports false when the key is missing.
func getEntity(txn *badger.Txn, key []byte, v interface{}) (bool, error) {
	item, err := txn.Get(key)
	if err == badger.ErrKeyNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, item.Value(func(val []byte) error {
		return unmarshalEntity(val, v)
	})
}

// setEntity marshals v and stores it at key.
func setEntity(txn *badger.Txn, key []byte, v interface{}) error {
	data, err := marshalEntity(v)
	if err != nil {
		return err
	}
	return txn.Set(key, data)
}

// marshalEntity marshals an entity to JSON
func marshalEntity(v interface{}) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal entity: %w", err)
	}
	return data, nil
}

// unmarshalEntity unmarshals JSON data into an entity
func unmarshalEntity(data []byte, v interface{}) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to unmarshal entity: %w", err)
	}
	return nil
}
