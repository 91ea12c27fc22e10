package leaderboard

import "context"

// Entry is one member of a ranking set.
type Entry struct {
	Member string
	Score  float64
}

// RankingIndex is the sorted-set capability backing every ranking set.
// The production implementation is Redis ZSETs; tests substitute MemoryIndex.
//
// Ordering: ascending views sort by score then member (lexicographic);
// descending views are the exact reverse, so equal scores appear in reverse
// member order. This mirrors Redis ZSET tie handling and is the documented
// tie-break for equal scores.
//
// Operations carry no cross-call atomicity: a read concurrent with upserts
// may observe a partially updated set. Rankings are an eventually consistent
// view of the scores schema.
type RankingIndex interface {
	// Upsert inserts or replaces a member's score.
	Upsert(ctx context.Context, key, member string, score float64) error

	// RemoveAll deletes whole keys (sets or flags). Idempotent.
	RemoveAll(ctx context.Context, keys ...string) error

	// Exists reports whether a key is present.
	Exists(ctx context.Context, key string) (bool, error)

	// Cardinality returns the member count; 0 for an absent set.
	Cardinality(ctx context.Context, key string) (int64, error)

	// RankDesc returns the zero-based rank of a member by descending score.
	// ok is false when the member or the set is absent.
	RankDesc(ctx context.Context, key, member string) (rank int64, ok bool, err error)

	// RangeDesc returns the inclusive zero-based rank range in descending
	// order. Bounds clamp to the valid range; an inverted or empty range
	// yields an empty slice.
	RangeDesc(ctx context.Context, key string, start, stop int64) ([]Entry, error)

	// RangeAll returns every entry ascending by score.
	RangeAll(ctx context.Context, key string) ([]Entry, error)

	// SetFlag writes a plain marker key.
	SetFlag(ctx context.Context, key string) error

	// HasFlag reports whether a marker key is present.
	HasFlag(ctx context.Context, key string) (bool, error)
}
