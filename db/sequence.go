package db

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	m "github.com/muhammadMilon/Server-PHA10/models"
)

const movieIDSequence = "movieId"

// NextMovieID atomically increments and returns the movieId counter,
// creating it if absent. Duplicate suppression under concurrent callers
// rests entirely on the server-side $inc; the recovery path below does a
// read-then-write and is best effort only.
func (s *DBService) NextMovieID(ctx context.Context) (int64, error) {
	filter := bson.M{"_id": movieIDSequence}
	update := bson.M{"$inc": bson.M{"seq": int64(1)}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var counter m.Counter
	err := s.counters.FindOneAndUpdate(ctx, filter, update, opts).Decode(&counter)
	if err == nil {
		return counter.Seq, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return 0, err
	}

	// Some server/driver combinations report no document on an upserting
	// increment. Re-read before assuming the counter is gone.
	err = s.counters.FindOne(ctx, filter).Decode(&counter)
	if err == nil {
		return counter.Seq, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return 0, err
	}

	return s.recoverMovieID(ctx)
}

// recoverMovieID rebuilds a missing or stale counter from the highest
// integer id already in the movie collection. Not safe under concurrent
// callers.
func (s *DBService) recoverMovieID(ctx context.Context) (int64, error) {
	var top struct {
		ID int64 `bson:"id"`
	}
	opts := options.FindOne().
		SetSort(bson.D{{Key: "id", Value: -1}}).
		SetProjection(bson.M{"id": 1})
	err := s.movies.FindOne(ctx, bson.M{"id": bson.M{"$gt": 0}}, opts).Decode(&top)

	next := int64(1)
	if err == nil {
		next = top.ID + 1
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		return 0, err
	}

	_, err = s.counters.UpdateOne(ctx,
		bson.M{"_id": movieIDSequence},
		bson.M{"$set": bson.M{"seq": next}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return 0, err
	}
	return next, nil
}
