package db

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	m "github.com/muhammadMilon/Server-PHA10/models"
)

// ErrNotFound is returned whenever a lookup or a delete matches nothing.
var ErrNotFound = errors.New("not found")

// DBService wraps the MongoDB collections behind the storage operations the
// API needs. One instance is opened in main and shared by every handler; the
// driver handles pooling internally.
type DBService struct {
	client    *mongo.Client
	movies    *mongo.Collection
	users     *mongo.Collection
	watchlist *mongo.Collection
	counters  *mongo.Collection
}

// NewDBService connects, pings and binds the collections. Callers own the
// lifecycle and must Close on shutdown.
func NewDBService(ctx context.Context, uri, dbName string) (*DBService, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		client.Disconnect(ctx)
		return nil, err
	}
	database := client.Database(dbName)
	return &DBService{
		client:    client,
		movies:    database.Collection("movies"),
		users:     database.Collection("users"),
		watchlist: database.Collection("watchlist"),
		counters:  database.Collection("counters"),
	}, nil
}

// EnsureIndexes creates the uniqueness constraints the API relies on: one
// watchlist entry per (userEmail, movieKey) and one user per email.
func (s *DBService) EnsureIndexes(ctx context.Context) error {
	_, err := s.watchlist.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "userEmail", Value: 1}, {Key: "movieKey", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}
	_, err = s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (s *DBService) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// identityFilter targets a movie by whichever identity field the stored
// record actually uses.
func identityFilter(movie m.Movie) bson.M {
	if movie.Key != nil {
		return bson.M{"_id": movie.Key}
	}
	return bson.M{"id": movie.ID}
}

// movieQuery builds the list filter. Genre "All" means no genre constraint;
// a search term matches title, director or cast case-insensitively as a
// literal substring.
func movieQuery(filter m.MovieFilter) bson.M {
	query := bson.M{}
	if filter.Genre != "" && filter.Genre != "All" {
		query["genre"] = filter.Genre
	}
	if filter.Search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(filter.Search), Options: "i"}
		query["$or"] = bson.A{
			bson.M{"title": pattern},
			bson.M{"director": pattern},
			bson.M{"cast": pattern},
		}
	}
	return query
}

// movieSort maps the sort key to a sort document; an unknown or empty key
// keeps insertion order.
func movieSort(filter m.MovieFilter) bson.D {
	switch filter.SortBy {
	case "rating":
		return bson.D{{Key: "rating", Value: -1}}
	case "year":
		return bson.D{{Key: "releaseYear", Value: -1}}
	case "title":
		return bson.D{{Key: "title", Value: 1}}
	default:
		return nil
	}
}

// FindMovies lists the catalog with the optional genre/search/sort filters
// applied.
func (s *DBService) FindMovies(ctx context.Context, filter m.MovieFilter) ([]m.Movie, error) {
	opts := options.Find()
	if sort := movieSort(filter); sort != nil {
		opts.SetSort(sort)
	}
	cursor, err := s.movies.Find(ctx, movieQuery(filter), opts)
	if err != nil {
		return nil, err
	}
	return decodeMovies(ctx, cursor)
}

// FindMoviesByOwner returns the movies whose addedBy matches the email in
// either its original or lowercased form, newest first.
func (s *DBService) FindMoviesByOwner(ctx context.Context, email string) ([]m.Movie, error) {
	query := bson.M{"addedBy": bson.M{"$in": bson.A{email, strings.ToLower(email)}}}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := s.movies.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	return decodeMovies(ctx, cursor)
}

// InsertMovie allocates the next integer id, stores the movie under that
// integer for both identity fields and returns the stored record.
func (s *DBService) InsertMovie(ctx context.Context, movie m.Movie) (m.Movie, error) {
	id, err := s.NextMovieID(ctx)
	if err != nil {
		return m.Movie{}, err
	}
	movie.ID = id
	movie.Key = id
	if _, err := s.movies.InsertOne(ctx, movie); err != nil {
		return m.Movie{}, err
	}
	return movie, nil
}

// UpdateMovie applies the non-nil fields of upd to the stored record and
// stamps updatedAt. Identity and ownership are not part of MovieUpdate, so
// they cannot change here.
func (s *DBService) UpdateMovie(ctx context.Context, target m.Movie, upd m.MovieUpdate) (m.Movie, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if upd.Title != nil {
		set["title"] = *upd.Title
	}
	if upd.Genre != nil {
		set["genre"] = *upd.Genre
	}
	if upd.ReleaseYear != nil {
		set["releaseYear"] = *upd.ReleaseYear
	}
	if upd.Director != nil {
		set["director"] = *upd.Director
	}
	if upd.Cast != nil {
		set["cast"] = *upd.Cast
	}
	if upd.Rating != nil {
		set["rating"] = *upd.Rating
	}
	if upd.Duration != nil {
		set["duration"] = *upd.Duration
	}
	if upd.PlotSummary != nil {
		set["plotSummary"] = *upd.PlotSummary
	}
	if upd.PosterURL != nil {
		set["posterUrl"] = *upd.PosterURL
	}
	if upd.Language != nil {
		set["language"] = *upd.Language
	}
	if upd.Country != nil {
		set["country"] = *upd.Country
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated m.Movie
	err := s.movies.FindOneAndUpdate(ctx, identityFilter(target), bson.M{"$set": set}, opts).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return m.Movie{}, ErrNotFound
	}
	if err != nil {
		return m.Movie{}, err
	}
	return NormalizeMovieID(updated), nil
}

// DeleteMovie removes the record by whichever identity field it uses.
func (s *DBService) DeleteMovie(ctx context.Context, target m.Movie) error {
	res, err := s.movies.DeleteOne(ctx, identityFilter(target))
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// UpsertUser creates or refreshes the profile keyed by email. createdAt is
// only written on first insert; lastLoginAt on every call.
func (s *DBService) UpsertUser(ctx context.Context, user m.User) (m.User, error) {
	now := time.Now().UTC()
	filter := bson.M{"email": user.Email}
	update := bson.M{
		"$set": bson.M{
			"displayName": user.DisplayName,
			"photoURL":    user.PhotoURL,
			"uid":         user.UID,
			"lastLoginAt": now,
		},
		"$setOnInsert": bson.M{
			"email":     user.Email,
			"createdAt": now,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var stored m.User
	if err := s.users.FindOneAndUpdate(ctx, filter, update, opts).Decode(&stored); err != nil {
		return m.User{}, err
	}
	return stored, nil
}

// UserExists reports whether a profile with this email has been stored.
func (s *DBService) UserExists(ctx context.Context, email string) (bool, error) {
	count, err := s.users.CountDocuments(ctx, bson.M{"email": email}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// decodeMovies drains a cursor and normalizes every record's identity.
func decodeMovies(ctx context.Context, cursor *mongo.Cursor) ([]m.Movie, error) {
	defer cursor.Close(ctx)
	movies := []m.Movie{}
	for cursor.Next(ctx) {
		var movie m.Movie
		if err := cursor.Decode(&movie); err != nil {
			return nil, err
		}
		movies = append(movies, NormalizeMovieID(movie))
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return movies, nil
}
