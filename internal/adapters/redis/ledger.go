package redis

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"
)

// TransactionLedger remembers which payment transactions already back a
// booking. Claims never expire.
type TransactionLedger struct {
	client *redis.Client
}

func NewTransactionLedger(client *redis.Client) *TransactionLedger {
	return &TransactionLedger{client: client}
}

func txKey(id string) string {
	return "txn:" + id
}

// ClaimTransaction reports false when the transaction was claimed before.
func (l *TransactionLedger) ClaimTransaction(ctx context.Context, txID, owner string) (bool, error) {
	ok, err := l.client.SetNX(ctx, txKey(txID), owner, 0).Result()
	if err != nil {
		return false, errors.Wrap(err, "claim transaction")
	}
	return ok, nil
}

func (l *TransactionLedger) ReleaseTransaction(ctx context.Context, txID string) error {
	return l.client.Del(ctx, txKey(txID)).Err()
}
