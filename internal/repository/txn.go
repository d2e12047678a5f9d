package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
)

// TxnRunner runs a function inside one atomic multi-document transaction.
// Every repository call made with the ctx passed to fn joins that
// transaction. Application errors returned by fn abort the transaction and
// are surfaced unchanged; transient commit conflicts are retried by the
// driver, so fn must re-read whatever it depends on instead of using state
// captured outside the call.
type TxnRunner interface {
	Run(ctx context.Context, fn func(ctx context.Context) error) error
}

type mongoTxnRunner struct {
	client *mongo.Client
}

// NewTxnRunner creates a TxnRunner backed by MongoDB sessions.
func NewTxnRunner(client *mongo.Client) TxnRunner {
	return &mongoTxnRunner{client: client}
}

func (r *mongoTxnRunner) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	sess, err := r.client.StartSession()
	if err != nil {
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}
