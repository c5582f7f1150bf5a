package db

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	m "github.com/muhammadMilon/Server-PHA10/models"
)

// CatalogStats returns estimated movie and user counts. Estimated is fine
// for a home page widget and avoids a collection scan.
func (s *DBService) CatalogStats(ctx context.Context) (m.CatalogStats, error) {
	movies, err := s.movies.EstimatedDocumentCount(ctx)
	if err != nil {
		return m.CatalogStats{}, err
	}
	users, err := s.users.EstimatedDocumentCount(ctx)
	if err != nil {
		return m.CatalogStats{}, err
	}
	return m.CatalogStats{TotalMovies: movies, TotalUsers: users}, nil
}

// TopRatedMovies returns the five highest-rated movies.
func (s *DBService) TopRatedMovies(ctx context.Context) ([]m.Movie, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "rating", Value: -1}}).
		SetLimit(5)
	cursor, err := s.movies.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	return decodeMovies(ctx, cursor)
}

// RecentMovies returns the six most recently touched movies, breaking
// createdAt ties on updatedAt and then on the raw key.
func (s *DBService) RecentMovies(ctx context.Context) ([]m.Movie, error) {
	opts := options.Find().
		SetSort(bson.D{
			{Key: "createdAt", Value: -1},
			{Key: "updatedAt", Value: -1},
			{Key: "_id", Value: -1},
		}).
		SetLimit(6)
	cursor, err := s.movies.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	return decodeMovies(ctx, cursor)
}

// FeaturedMovies returns the five most recently added movies.
func (s *DBService) FeaturedMovies(ctx context.Context) ([]m.Movie, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(5)
	cursor, err := s.movies.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	return decodeMovies(ctx, cursor)
}
