package generate

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

// countingGenerator records the number of delegated calls.
type countingGenerator struct {
	calls int
	body  string
	err   error
}

func (g *countingGenerator) Generate(_ context.Context, _, _, _ string) (string, error) {
	g.calls++
	return g.body, g.err
}

func TestCacheSkipsInnerOnRepeat(t *testing.T) {
	inner := &countingGenerator{body: "tayyor matn"}
	cached, err := NewCachingGenerator(inner, 8, zerolog.Nop())
	if err != nil {
		t.Fatalf("new caching generator: %v", err)
	}
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		body, err := cached.Generate(ctx, "🏫 Maktab o'qituvchisi", "📝 Tezis", "Kasrlar")
		if err != nil {
			t.Fatalf("generate #%d: %v", i, err)
		}
		if body != "tayyor matn" {
			t.Errorf("unexpected body: %q", body)
		}
	}

	if inner.calls != 1 {
		t.Errorf("expected 1 delegated call, got %d", inner.calls)
	}
}

func TestCacheKeyDistinguishesSelections(t *testing.T) {
	inner := &countingGenerator{body: "matn"}
	cached, err := NewCachingGenerator(inner, 8, zerolog.Nop())
	if err != nil {
		t.Fatalf("new caching generator: %v", err)
	}
	ctx := context.Background()

	_, _ = cached.Generate(ctx, "a", "b", "c")
	_, _ = cached.Generate(ctx, "a", "bc", "")
	_, _ = cached.Generate(ctx, "ab", "", "c")

	if inner.calls != 3 {
		t.Errorf("expected 3 delegated calls for distinct selections, got %d", inner.calls)
	}
}

func TestCacheDoesNotStoreFailures(t *testing.T) {
	inner := &countingGenerator{err: errors.New("upstream unavailable")}
	cached, err := NewCachingGenerator(inner, 8, zerolog.Nop())
	if err != nil {
		t.Fatalf("new caching generator: %v", err)
	}
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := cached.Generate(ctx, "a", "b", "c"); err == nil {
			t.Fatal("expected error from inner generator")
		}
	}
	if inner.calls != 2 {
		t.Errorf("expected every failing call delegated, got %d", inner.calls)
	}

	// Once the upstream recovers the result is cached again.
	inner.err = nil
	inner.body = "matn"
	if _, err := cached.Generate(ctx, "a", "b", "c"); err != nil {
		t.Fatalf("generate after recovery: %v", err)
	}
	if _, err := cached.Generate(ctx, "a", "b", "c"); err != nil {
		t.Fatalf("generate cached: %v", err)
	}
	if inner.calls != 3 {
		t.Errorf("expected recovery result to be cached, got %d calls", inner.calls)
	}
}
