package db

import (
	"context"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	m "github.com/muhammadMilon/Server-PHA10/models"
)

// watchlistFilter matches a user's entries against both identity candidates
// of a path parameter: the stored string movieKey and, when the parameter
// parses as a positive integer, the numeric movieId.
func watchlistFilter(email, identifier string) bson.M {
	clauses := bson.A{bson.M{"movieKey": identifier}}
	if n, ok := identifierCandidates(identifier); ok {
		clauses = append(clauses, bson.M{"movieId": n})
	}
	return bson.M{"userEmail": email, "$or": clauses}
}

// AddToWatchlist stores an entry for the already-normalized movie. Adding a
// movie that is already on the list is not an error: the existing entry is
// kept and alreadyExists comes back true. The unique (userEmail, movieKey)
// index backs this up against races, so a duplicate-key insert gets the
// same idempotent answer.
func (s *DBService) AddToWatchlist(ctx context.Context, email string, movie m.Movie) (alreadyExists bool, err error) {
	movieKey := strconv.FormatInt(movie.ID, 10)

	count, err := s.watchlist.CountDocuments(ctx,
		bson.M{"userEmail": email, "movieKey": movieKey},
		options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	if count > 0 {
		return true, nil
	}

	entry := m.WatchlistEntry{
		UserEmail: email,
		MovieKey:  movieKey,
		MovieID:   movie.ID,
		Movie: m.MovieSnapshot{
			Title:       movie.Title,
			Genre:       movie.Genre,
			ReleaseYear: movie.ReleaseYear,
			Rating:      movie.Rating,
			PosterURL:   movie.PosterURL,
		},
		CreatedAt: time.Now().UTC(),
	}
	if _, err := s.watchlist.InsertOne(ctx, entry); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return true, nil
		}
		return false, err
	}
	return false, nil
}

// GetWatchlist returns the user's entries newest first, each carrying the
// live movie when it still exists or the stored snapshot flagged IsMissing
// when it has been deleted.
func (s *DBService) GetWatchlist(ctx context.Context, email string) ([]m.WatchlistItem, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := s.watchlist.Find(ctx, bson.M{"userEmail": email}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	entries := []m.WatchlistEntry{}
	for cursor.Next(ctx) {
		var entry m.WatchlistEntry
		if err := cursor.Decode(&entry); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return []m.WatchlistItem{}, nil
	}

	byKey, err := s.resolveWatchlistedMovies(ctx, entries)
	if err != nil {
		return nil, err
	}

	items := make([]m.WatchlistItem, 0, len(entries))
	for _, entry := range entries {
		item := m.WatchlistItem{WatchlistedAt: entry.CreatedAt}
		if live, ok := byKey[entry.MovieKey]; ok {
			item.Movie = live
		} else if live, ok := byKey[strconv.FormatInt(entry.MovieID, 10)]; ok && entry.MovieID > 0 {
			item.Movie = live
		} else {
			item.IsMissing = true
			item.Movie = m.Movie{
				ID:          entry.MovieID,
				Title:       entry.Movie.Title,
				Genre:       entry.Movie.Genre,
				ReleaseYear: entry.Movie.ReleaseYear,
				Rating:      entry.Movie.Rating,
				PosterURL:   entry.Movie.PosterURL,
			}
		}
		items = append(items, item)
	}
	return items, nil
}

// resolveWatchlistedMovies batch-fetches the referenced movies by the union
// of their numeric and string identity candidates and indexes them by
// normalized id.
func (s *DBService) resolveWatchlistedMovies(ctx context.Context, entries []m.WatchlistEntry) (map[string]m.Movie, error) {
	ids := bson.A{}
	keys := bson.A{}
	for _, entry := range entries {
		if entry.MovieID > 0 {
			ids = append(ids, entry.MovieID)
		}
		if n, ok := identifierCandidates(entry.MovieKey); ok {
			ids = append(ids, n)
		}
		keys = append(keys, entry.MovieKey)
	}

	query := bson.M{"$or": bson.A{
		bson.M{"id": bson.M{"$in": ids}},
		bson.M{"_id": bson.M{"$in": ids}},
		bson.M{"_id": bson.M{"$in": keys}},
	}}
	cursor, err := s.movies.Find(ctx, query)
	if err != nil {
		return nil, err
	}
	movies, err := decodeMovies(ctx, cursor)
	if err != nil {
		return nil, err
	}

	byKey := make(map[string]m.Movie, len(movies))
	for _, movie := range movies {
		byKey[strconv.FormatInt(movie.ID, 10)] = movie
	}
	return byKey, nil
}

// RemoveFromWatchlist deletes any entry matching either identity candidate.
// ErrNotFound when nothing matched.
func (s *DBService) RemoveFromWatchlist(ctx context.Context, email, identifier string) error {
	res, err := s.watchlist.DeleteMany(ctx, watchlistFilter(email, identifier))
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// InWatchlist reports whether the user has an entry for either identity
// candidate. A miss is false, never an error.
func (s *DBService) InWatchlist(ctx context.Context, email, identifier string) (bool, error) {
	count, err := s.watchlist.CountDocuments(ctx, watchlistFilter(email, identifier),
		options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
