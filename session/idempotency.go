package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// BorrowKeyStore remembers which borrowing record a client-supplied
// Idempotency-Key produced, so a resubmitted borrow form gets the original
// record back instead of a conflict.
type BorrowKeyStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewBorrowKeyStore(rdb *redis.Client, ttl time.Duration) *BorrowKeyStore {
	return &BorrowKeyStore{rdb: rdb, ttl: ttl}
}

type BorrowKey struct {
	RecordID    uint  `json:"rid"`
	EquipmentID uint  `json:"eid"`
	IssuedAt    int64 `json:"iat"`
}

var ErrKeyMissing = errors.New("idempotency key not found")

func key(k string) string { return fmt.Sprintf("inv:borrow:idem:%s", k) }

// Remember stores the result for k. An existing entry wins; the returned
// value is whatever is stored after the call.
func (s *BorrowKeyStore) Remember(ctx context.Context, k string, recordID, equipmentID uint) (*BorrowKey, error) {
	bk := BorrowKey{RecordID: recordID, EquipmentID: equipmentID, IssuedAt: time.Now().Unix()}
	b, _ := json.Marshal(bk)
	ok, err := s.rdb.SetNX(ctx, key(k), b, s.ttl).Result()
	if err != nil {
		return nil, err
	}
	if ok {
		return &bk, nil
	}
	return s.Lookup(ctx, k)
}

func (s *BorrowKeyStore) Lookup(ctx context.Context, k string) (*BorrowKey, error) {
	b, err := s.rdb.Get(ctx, key(k)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrKeyMissing
	}
	if err != nil {
		return nil, err
	}
	var bk BorrowKey
	if err := json.Unmarshal(b, &bk); err != nil {
		return nil, err
	}
	return &bk, nil
}

func (s *BorrowKeyStore) Forget(ctx context.Context, k string) error {
	return s.rdb.Del(ctx, key(k)).Err()
}
