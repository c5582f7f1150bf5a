package db

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	m "github.com/muhammadMilon/Server-PHA10/models"
)

// TestNormalizeMovieID covers every stored identity shape the catalog has
// accumulated over time.
func TestNormalizeMovieID(t *testing.T) {
	// 0x99439011 = 2571866129
	oid, err := primitive.ObjectIDFromHex("507f1f77bcf86cd799439011")
	require.NoError(t, err, "test ObjectID must parse")

	tests := []struct {
		name  string
		movie m.Movie
		want  int64
	}{
		{"existing integer id wins", m.Movie{ID: 42, Key: oid}, 42},
		{"int64 key", m.Movie{Key: int64(7)}, 7},
		{"int32 key", m.Movie{Key: int32(9)}, 9},
		{"float64 key", m.Movie{Key: float64(11)}, 11},
		{"ObjectID key derives from hex suffix", m.Movie{Key: oid}, 2571866129},
		{"numeric string key", m.Movie{Key: "123"}, 123},
		{"24-char hex string key", m.Movie{Key: "507f1f77bcf86cd799439011"}, 2571866129},
		{"garbage string key falls back to 1", m.Movie{Key: "not-an-id"}, 1},
		{"nil key falls back to 1", m.Movie{}, 1},
		{"boolean key falls back to 1", m.Movie{Key: true}, 1},
		{"negative key clamps to 1", m.Movie{Key: int64(-5)}, 1},
		{"zero key clamps to 1", m.Movie{Key: int64(0)}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeMovieID(tt.movie)
			assert.Equal(t, tt.want, got.ID, "id must be the normalized integer")
			assert.Equal(t, tt.want, got.Key, "canonical key must mirror the normalized id")
		})
	}
}

// TestNormalizeMovieIDRoundTrip: any valid integer id comes back unchanged
// in both identity fields.
func TestNormalizeMovieIDRoundTrip(t *testing.T) {
	for _, id := range []int64{1, 2, 100, 99999, 1 << 40} {
		t.Run(fmt.Sprintf("id=%d", id), func(t *testing.T) {
			got := NormalizeMovieID(m.Movie{ID: id})
			assert.Equal(t, id, got.ID)
			assert.Equal(t, id, got.Key)
		})
	}
}

func TestNormalizeMovieIDNeverPanics(t *testing.T) {
	// Malformed identities must produce the documented fallback, never an
	// error or a panic.
	malformed := []interface{}{
		"", "zzzz", "507f1f77", []string{"x"}, map[string]int{"a": 1}, 3.5 + 0i,
	}
	for _, key := range malformed {
		got := NormalizeMovieID(m.Movie{Key: key})
		assert.GreaterOrEqual(t, got.ID, int64(1), "fallback id must be at least 1 for key %v", key)
	}
}

func TestHexSuffixID(t *testing.T) {
	assert.Equal(t, int64(0x99439011), hexSuffixID("507f1f77bcf86cd799439011"))
	assert.Equal(t, int64(0xffffffff), hexSuffixID("ffffffff"))
	assert.Equal(t, int64(1), hexSuffixID("short"), "too-short input falls back to 1")
	assert.Equal(t, int64(1), hexSuffixID("gggggggg"), "non-hex input falls back to 1")
}

func TestIsHex(t *testing.T) {
	assert.True(t, isHex("507f1f77bcf86cd799439011"))
	assert.True(t, isHex("ABCDEF0123"))
	assert.False(t, isHex("507f1f77bcf86cd79943901z"))
	assert.False(t, isHex("not hex"))
}

func TestIdentifierCandidates(t *testing.T) {
	n, ok := identifierCandidates("42")
	assert.True(t, ok)
	assert.Equal(t, int64(42), n)

	_, ok = identifierCandidates("-3")
	assert.False(t, ok, "negative numbers are not valid ids")

	_, ok = identifierCandidates("0")
	assert.False(t, ok, "ids start at 1")

	_, ok = identifierCandidates("507f1f77bcf86cd799439011")
	assert.False(t, ok, "hex strings have no numeric candidate")
}

func TestIdentityFilter(t *testing.T) {
	t.Run("record with a stored key is targeted by _id", func(t *testing.T) {
		oid := primitive.NewObjectID()
		filter := identityFilter(m.Movie{Key: oid, ID: 5})
		assert.Equal(t, bson.M{"_id": oid}, filter)
	})

	t.Run("record without a key is targeted by id", func(t *testing.T) {
		filter := identityFilter(m.Movie{ID: 5})
		assert.Equal(t, bson.M{"id": int64(5)}, filter)
	})
}

func TestMovieQuery(t *testing.T) {
	t.Run("no filters", func(t *testing.T) {
		assert.Equal(t, bson.M{}, movieQuery(m.MovieFilter{}))
	})

	t.Run("genre All applies no genre filter", func(t *testing.T) {
		query := movieQuery(m.MovieFilter{Genre: "All"})
		_, hasGenre := query["genre"]
		assert.False(t, hasGenre, "All must be treated as no filter")
	})

	t.Run("explicit genre is an exact match", func(t *testing.T) {
		query := movieQuery(m.MovieFilter{Genre: "Sci-Fi"})
		assert.Equal(t, "Sci-Fi", query["genre"])
	})

	t.Run("search matches title, director and cast case-insensitively", func(t *testing.T) {
		query := movieQuery(m.MovieFilter{Search: "alice"})
		clauses, ok := query["$or"].(bson.A)
		require.True(t, ok, "search must produce an $or clause")
		require.Len(t, clauses, 3)
		pattern := clauses[2].(bson.M)["cast"].(primitive.Regex)
		assert.Equal(t, "alice", pattern.Pattern)
		assert.Equal(t, "i", pattern.Options, "match must be case-insensitive")
	})

	t.Run("search with regex metacharacters is matched literally", func(t *testing.T) {
		query := movieQuery(m.MovieFilter{Search: "2001: A Space Odyssey (4K)"})
		clauses := query["$or"].(bson.A)
		pattern := clauses[0].(bson.M)["title"].(primitive.Regex)
		assert.Contains(t, pattern.Pattern, `\(4K\)`, "metacharacters must be escaped")
	})
}

func TestMovieSort(t *testing.T) {
	tests := []struct {
		sortBy string
		field  string
		order  int
	}{
		{"rating", "rating", -1},
		{"year", "releaseYear", -1},
		{"title", "title", 1},
	}
	for _, tt := range tests {
		t.Run(tt.sortBy, func(t *testing.T) {
			sort := movieSort(m.MovieFilter{SortBy: tt.sortBy})
			require.Len(t, sort, 1)
			assert.Equal(t, tt.field, sort[0].Key)
			assert.Equal(t, tt.order, sort[0].Value)
		})
	}

	t.Run("default keeps insertion order", func(t *testing.T) {
		assert.Nil(t, movieSort(m.MovieFilter{}))
		assert.Nil(t, movieSort(m.MovieFilter{SortBy: "bogus"}))
	})
}

func TestWatchlistFilter(t *testing.T) {
	t.Run("numeric identifier matches both candidates", func(t *testing.T) {
		filter := watchlistFilter("a@x.com", "42")
		assert.Equal(t, "a@x.com", filter["userEmail"])
		clauses := filter["$or"].(bson.A)
		require.Len(t, clauses, 2)
		assert.Equal(t, bson.M{"movieKey": "42"}, clauses[0])
		assert.Equal(t, bson.M{"movieId": int64(42)}, clauses[1])
	})

	t.Run("non-numeric identifier only matches the string key", func(t *testing.T) {
		filter := watchlistFilter("a@x.com", "507f1f77bcf86cd799439011")
		clauses := filter["$or"].(bson.A)
		require.Len(t, clauses, 1)
		assert.Equal(t, bson.M{"movieKey": "507f1f77bcf86cd799439011"}, clauses[0])
	})
}
