package storage

import (
	"context"
	"fmt"
)

// Unavailable stands in for a remote backend whose client or credentials
// were missing at startup. Every call fails with ErrStorageUnavailable.
type Unavailable struct {
	Backend string
	Reason  string
}

func (u *Unavailable) Name() string { return u.Backend + " (unavailable)" }

func (u *Unavailable) err() error {
	return fmt.Errorf("%s: %s: %w", u.Backend, u.Reason, ErrStorageUnavailable)
}

func (u *Unavailable) Put(context.Context, string, []byte, string) error {
	return u.err()
}

func (u *Unavailable) Get(context.Context, string) ([]byte, error) {
	return nil, u.err()
}

func (u *Unavailable) GetVersioned(context.Context, string) ([]byte, Generation, error) {
	return nil, NoGeneration, u.err()
}

func (u *Unavailable) PutIfMatch(context.Context, string, []byte, string, Generation) (Generation, error) {
	return NoGeneration, u.err()
}
