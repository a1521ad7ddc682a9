package bolt

import (
	"context"
	"fmt"

	"github.com/Samandar0813/darsbot/internal/storage"
	"go.etcd.io/bbolt"
)

type usageStore struct {
	db *bbolt.DB
}

func (s *usageStore) Get(ctx context.Context, userID string) (*storage.UsageRecord, error) {
	var record *storage.UsageRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		b := tx.Bucket([]byte(bucketUsage))
		if b == nil {
			return storage.ErrNotFound
		}
		value := b.Get([]byte(userID))
		if value == nil {
			return storage.ErrNotFound
		}
		var rec storage.UsageRecord
		if err := unmarshal(value, &rec); err != nil {
			return err
		}
		record = &rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (s *usageStore) Put(ctx context.Context, record storage.UsageRecord) error {
	data, err := marshal(record)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		b := tx.Bucket([]byte(bucketUsage))
		if b == nil {
			return fmt.Errorf("bucket missing: %s", bucketUsage)
		}
		return b.Put([]byte(record.UserID), data)
	})
}

func (s *usageStore) List(ctx context.Context) ([]storage.UsageRecord, error) {
	records := make([]storage.UsageRecord, 0)
	return records, s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketUsage))
		if b == nil {
			return nil
		}
		return b.ForEach(func(_, v []byte) error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			var rec storage.UsageRecord
			if err := unmarshal(v, &rec); err != nil {
				return err
			}
			records = append(records, rec)
			return nil
		})
	})
}
