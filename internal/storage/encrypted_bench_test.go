package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/yndnr/authsession-go/internal/core/domain"
	"github.com/yndnr/authsession-go/internal/storage/memory"
)

func benchPair() domain.TokenPair {
	return domain.TokenPair{
		AccessToken:  "eyJ" + strings.Repeat("a", 400),
		RefreshToken: strings.Repeat("r", 64),
	}
}

// BenchmarkEncryptedStore_Save benchmarks sealing both tokens.
func BenchmarkEncryptedStore_Save(b *testing.B) {
	ctx := context.Background()
	store := NewEncryptedStore(memory.New(), testCipher(b, 1))
	pair := benchPair()

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if err := store.Save(ctx, pair); err != nil {
			b.Fatalf("Save failed: %v", err)
		}
	}
}

// BenchmarkEncryptedStore_AccessToken benchmarks the read done before
// every authorized request.
func BenchmarkEncryptedStore_AccessToken(b *testing.B) {
	ctx := context.Background()
	store := NewEncryptedStore(memory.New(), testCipher(b, 1))
	if err := store.Save(ctx, benchPair()); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		tok, err := store.AccessToken(ctx)
		if err != nil || tok == "" {
			b.Fatalf("AccessToken = %q, %v", tok, err)
		}
	}
}

// BenchmarkBadgerStore_SaveGet benchmarks a write followed by a read.
func BenchmarkBadgerStore_SaveGet(b *testing.B) {
	ctx := context.Background()
	store, err := NewBadgerStore(BadgerConfig{InMemory: true, Prefix: "bench"}, quietLogger())
	if err != nil {
		b.Fatal(err)
	}
	defer store.Close()
	pair := benchPair()

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if err := store.Save(ctx, pair); err != nil {
			b.Fatal(err)
		}
		if _, err := store.Get(ctx); err != nil {
			b.Fatal(err)
		}
	}
}
