package domain

import "context"

// ReaderPort defines the read interface for the change feed
type ReaderPort interface {
	// List returns up to Limit rows ordered by (observed_at, id)
	List(ctx context.Context, in ListInput) (rows []Row, next AfterKey, err error)
}
