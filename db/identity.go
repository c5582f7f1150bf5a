package db

import (
	"context"
	"errors"
	"log"
	"strconv"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	m "github.com/muhammadMilon/Server-PHA10/models"
)

// The catalog has stored movies under three identity shapes over its life:
// an integer id mirrored into _id, a raw ObjectID _id with no id field, and
// a string _id. Lookups and responses have to serve all three uniformly,
// which is what FindMovieByIdentifier and NormalizeMovieID do.

// FindMovieByIdentifier resolves a caller-supplied identifier against the
// movie collection, trying in order: positive integer against the id field
// then _id, ObjectID hex against _id, then the raw string against _id or id.
// Returns the first match or ErrNotFound.
func (s *DBService) FindMovieByIdentifier(ctx context.Context, identifier string) (m.Movie, error) {
	if n, err := strconv.ParseInt(identifier, 10, 64); err == nil && n > 0 {
		movie, err := s.findOneMovie(ctx, bson.M{"id": n})
		if err == nil {
			return movie, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return m.Movie{}, err
		}
		movie, err = s.findOneMovie(ctx, bson.M{"_id": n})
		if err == nil {
			return movie, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return m.Movie{}, err
		}
	}

	if oid, err := primitive.ObjectIDFromHex(identifier); err == nil {
		movie, err := s.findOneMovie(ctx, bson.M{"_id": oid})
		if err == nil {
			return movie, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return m.Movie{}, err
		}
	}

	return s.findOneMovie(ctx, bson.M{"$or": bson.A{
		bson.M{"_id": identifier},
		bson.M{"id": identifier},
	}})
}

func (s *DBService) findOneMovie(ctx context.Context, filter bson.M) (m.Movie, error) {
	var movie m.Movie
	err := s.movies.FindOne(ctx, filter).Decode(&movie)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return m.Movie{}, ErrNotFound
	}
	if err != nil {
		return m.Movie{}, err
	}
	return movie, nil
}

// NormalizeMovieID produces a response-ready record whose _id and id are the
// same positive integer, whatever shape the stored identity has. Precedence:
// an existing numeric id wins; an ObjectID key derives an integer from its
// last 8 hex characters; a numeric string key is parsed; a 24-char hex
// string key gets the same hex-suffix derivation; anything else falls back
// to 1. The hex-suffix fallback is lossy and can collide across unrelated
// legacy records; that is long-standing behavior the deployed dataset may
// depend on, so it stays.
func NormalizeMovieID(movie m.Movie) m.Movie {
	id := movie.ID
	if id <= 0 {
		id = integerFromKey(movie.Key)
	}
	if id < 1 {
		id = 1
	}
	movie.ID = id
	movie.Key = id
	return movie
}

func integerFromKey(key interface{}) int64 {
	switch k := key.(type) {
	case int64:
		return k
	case int32:
		return int64(k)
	case int:
		return int64(k)
	case float64:
		return int64(k)
	case primitive.ObjectID:
		return hexSuffixID(k.Hex())
	case string:
		if n, err := strconv.ParseInt(k, 10, 64); err == nil {
			return n
		}
		if len(k) == 24 && isHex(k) {
			return hexSuffixID(k)
		}
		log.Printf("WARN: movie key %q has no usable identity, falling back to id 1", k)
		return 1
	default:
		log.Printf("WARN: movie key %v (%T) has no usable identity, falling back to id 1", key, key)
		return 1
	}
}

// hexSuffixID derives an integer from the last 8 hex characters of an
// ObjectID-shaped string.
func hexSuffixID(hex string) int64 {
	if len(hex) < 8 {
		log.Printf("WARN: hex key %q too short for suffix derivation, falling back to id 1", hex)
		return 1
	}
	n, err := strconv.ParseUint(hex[len(hex)-8:], 16, 64)
	if err != nil {
		log.Printf("WARN: could not derive integer id from hex key %q: %v", hex, err)
		return 1
	}
	return int64(n)
}

func isHex(s string) bool {
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		case r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}

// identifierCandidates turns a path parameter into the numeric and string
// candidates a watchlist entry could be stored under.
func identifierCandidates(identifier string) (int64, bool) {
	n, err := strconv.ParseInt(identifier, 10, 64)
	return n, err == nil && n > 0
}
