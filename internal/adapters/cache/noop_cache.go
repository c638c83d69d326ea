package cache

import "context"

// NoopCache never stores anything
type NoopCache struct{}

// Get always misses
func (NoopCache) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, nil
}

// Put discards the value
func (NoopCache) Put(context.Context, string, []byte) error {
	return nil
}

// Delete does nothing
func (NoopCache) Delete(context.Context, string) error {
	return nil
}

// Stop does nothing
func (NoopCache) Stop() {}
