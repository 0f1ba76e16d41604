package syncengine

import (
	"testing"
	"time"

	"broker-office/core/sheet"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParseDuration(t *testing.T, s string) time.Duration {
	t.Helper()
	d, err := time.ParseDuration(s)
	require.NoError(t, err)
	return d
}

func TestCompare_Classification(t *testing.T) {
	cached := Snapshot{
		"AA00001": {"seller_number": "AA00001", "name": "Taro"},
		"AA00002": {"seller_number": "AA00002", "name": "Hanako"},
		"AA00003": {"seller_number": "AA00003", "name": "Ken"},
	}
	current := Snapshot{
		"AA00001": {"seller_number": "AA00001", "name": "Jiro"},   // changed
		"AA00002": {"seller_number": "AA00002", "name": "Hanako"}, // unchanged
		"AA00004": {"seller_number": "AA00004", "name": "Yuki"},   // new
	}

	diff := Compare(cached, current)

	require.Len(t, diff.Added, 1)
	assert.Equal(t, "AA00004", diff.Added[0].Key)

	require.Len(t, diff.Updated, 1)
	assert.Equal(t, "AA00001", diff.Updated[0].Key)

	assert.Equal(t, []string{"AA00003"}, diff.Deleted)
}

// The three sets plus "unchanged" must partition the union of keys exactly.
func TestCompare_PartitionsKeyUnion(t *testing.T) {
	cached := Snapshot{
		"a": {"k": "a", "v": "1"},
		"b": {"k": "b", "v": "2"},
		"c": {"k": "c", "v": "3"},
		"d": {"k": "d", "v": "4"},
	}
	current := Snapshot{
		"b": {"k": "b", "v": "2"},
		"c": {"k": "c", "v": "30"},
		"e": {"k": "e", "v": "5"},
	}

	diff := Compare(cached, current)

	seen := make(map[string]int)
	for _, e := range diff.Added {
		seen[e.Key]++
	}
	for _, e := range diff.Updated {
		seen[e.Key]++
	}
	for _, k := range diff.Deleted {
		seen[k]++
	}

	// No key appears in more than one set.
	for key, n := range seen {
		assert.Equal(t, 1, n, "key %s classified %d times", key, n)
	}

	// Every union key is either classified or unchanged.
	union := map[string]struct{}{}
	for k := range cached {
		union[k] = struct{}{}
	}
	for k := range current {
		union[k] = struct{}{}
	}
	unchanged := 0
	for k := range union {
		if _, ok := seen[k]; !ok {
			cur, inCur := current[k]
			prev, inPrev := cached[k]
			require.True(t, inCur && inPrev, "unclassified key %s missing from a snapshot", k)
			assert.True(t, rowsEqual(prev, cur))
			unchanged++
		}
	}
	assert.Equal(t, 1, unchanged) // only "b"
}

func TestCompare_IdenticalSnapshotsYieldEmptyDiff(t *testing.T) {
	snap := Snapshot{
		"AA00001": {"seller_number": "AA00001", "name": "Taro", "price": "5000"},
		"AA00002": {"seller_number": "AA00002", "name": "Hanako", "price": nil},
	}

	assert.True(t, Compare(snap, snap).Empty())
}

func TestCompare_EmptyBaselineIsAllAdds(t *testing.T) {
	current := Snapshot{
		"AA00001": {"seller_number": "AA00001"},
		"AA00002": {"seller_number": "AA00002"},
	}

	diff := Compare(Snapshot{}, current)
	assert.Len(t, diff.Added, 2)
	assert.Empty(t, diff.Updated)
	assert.Empty(t, diff.Deleted)

	// Deterministic ordering regardless of map iteration.
	assert.Equal(t, "AA00001", diff.Added[0].Key)
	assert.Equal(t, "AA00002", diff.Added[1].Key)
}

func TestRowsEqual_NormalizedComparison(t *testing.T) {
	tests := []struct {
		name  string
		a, b  sheet.Row
		equal bool
	}{
		{
			name:  "string vs numeric same value",
			a:     sheet.Row{"price": "5000"},
			b:     sheet.Row{"price": float64(5000)},
			equal: true,
		},
		{
			name:  "nil vs empty string",
			a:     sheet.Row{"notes": nil},
			b:     sheet.Row{"notes": ""},
			equal: true,
		},
		{
			name:  "missing column vs nil",
			a:     sheet.Row{},
			b:     sheet.Row{"notes": nil},
			equal: true,
		},
		{
			name:  "whitespace insignificant",
			a:     sheet.Row{"name": " Taro "},
			b:     sheet.Row{"name": "Taro"},
			equal: true,
		},
		{
			name:  "different values",
			a:     sheet.Row{"name": "Taro"},
			b:     sheet.Row{"name": "Jiro"},
			equal: false,
		},
		{
			name:  "extra populated column",
			a:     sheet.Row{"name": "Taro"},
			b:     sheet.Row{"name": "Taro", "phone": "090-1111-2222"},
			equal: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.equal, rowsEqual(tt.a, tt.b))
		})
	}
}

func TestSnapshotFromRows(t *testing.T) {
	rows := []sheet.Row{
		{"seller_number": "AA00001", "name": "Taro"},
		{"seller_number": "", "name": "no key"},
		{"seller_number": "AA00001", "name": "Taro v2"}, // duplicate, last wins
		{"seller_number": "AA00002", "name": "Hanako"},
	}

	snap, errs := SnapshotFromRows(rows, "seller_number")

	require.Len(t, snap, 2)
	assert.Equal(t, "Taro v2", snap["AA00001"]["name"])

	require.Len(t, errs, 2)
	assert.Contains(t, errs[0].Message, "no business key")
	assert.Equal(t, "AA00001", errs[1].Key)
	assert.Contains(t, errs[1].Message, "duplicate")
}

func TestDecideSource(t *testing.T) {
	tests := []struct {
		name     string
		hasCache bool
		age, ttl string
		force    bool
		want     Source
	}{
		{"no cache", false, "0s", "5m", false, SourceRebuild},
		{"fresh cache", true, "1m", "5m", false, SourceCache},
		{"expired cache", true, "6m", "5m", false, SourceRebuild},
		{"force overrides fresh cache", true, "1m", "5m", true, SourceRebuild},
		{"zero ttl never expires", true, "24h", "0s", false, SourceCache},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			age := mustParseDuration(t, tt.age)
			ttl := mustParseDuration(t, tt.ttl)
			assert.Equal(t, tt.want, DecideSource(tt.hasCache, age, ttl, tt.force))
		})
	}
}
