// Package storage persists the access/refresh token pair.
//
// Every backend keeps the two tokens under independent, well-known keys
// and reports a pair only when both are present:
//
//   - BadgerStore: embedded on-disk store, survives process restarts (default)
//   - RedisStore: shared store for several clients on one host or fleet
//   - memory.Store: process-local, for tests and throwaway sessions
//   - EncryptedStore: decorator adding at-rest encryption to any backend
//
// Stores do no validation; expiry is the inspector's concern.
package storage
