package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Movie carries a dual identity: Key is the raw document identity as stored
// (an ObjectID, a number, or a string, depending on how old the record is),
// and ID is the application-level positive integer. Normalized responses set
// both to the same integer. Once assigned, ID never changes.
type Movie struct {
	Key         interface{} `json:"_id,omitempty" bson:"_id,omitempty"`
	ID          int64       `json:"id,omitempty" bson:"id,omitempty"`
	Title       string      `json:"title" bson:"title"`
	Genre       string      `json:"genre" bson:"genre"`
	ReleaseYear int         `json:"releaseYear" bson:"releaseYear"`
	Director    string      `json:"director" bson:"director"`
	Cast        string      `json:"cast" bson:"cast"`
	Rating      float64     `json:"rating" bson:"rating"`
	Duration    int         `json:"duration" bson:"duration"`
	PlotSummary string      `json:"plotSummary" bson:"plotSummary"`
	PosterURL   string      `json:"posterUrl" bson:"posterUrl"`
	Language    string      `json:"language" bson:"language"`
	Country     string      `json:"country" bson:"country"`
	AddedBy     string      `json:"addedBy" bson:"addedBy"`
	CreatedAt   time.Time   `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt" bson:"updatedAt"`
}

// MovieFilter holds the optional list query parameters. A Genre of "" or
// "All" means no genre constraint; Search is matched case-insensitively as a
// substring of title, director or cast.
type MovieFilter struct {
	Genre  string
	Search string
	SortBy string // "rating" | "year" | "title" | "" (insertion order)
}

// MovieUpdate is the owner-editable subset of Movie. Identity and ownership
// fields are deliberately absent so they can never be overwritten.
type MovieUpdate struct {
	Title       *string  `json:"title,omitempty"`
	Genre       *string  `json:"genre,omitempty"`
	ReleaseYear *int     `json:"releaseYear,omitempty"`
	Director    *string  `json:"director,omitempty"`
	Cast        *string  `json:"cast,omitempty"`
	Rating      *float64 `json:"rating,omitempty"`
	Duration    *int     `json:"duration,omitempty"`
	PlotSummary *string  `json:"plotSummary,omitempty"`
	PosterURL   *string  `json:"posterUrl,omitempty"`
	Language    *string  `json:"language,omitempty"`
	Country     *string  `json:"country,omitempty"`
}

type User struct {
	Key         primitive.ObjectID `json:"-" bson:"_id,omitempty"`
	Email       string             `json:"email" bson:"email"`
	DisplayName string             `json:"displayName" bson:"displayName"`
	PhotoURL    string             `json:"photoURL" bson:"photoURL"`
	UID         string             `json:"uid" bson:"uid"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
	LastLoginAt time.Time          `json:"lastLoginAt" bson:"lastLoginAt"`
}

// MovieSnapshot is the denormalized movie summary stored inside a watchlist
// entry so the entry stays renderable after the movie itself is deleted.
type MovieSnapshot struct {
	Title       string  `json:"title" bson:"title"`
	Genre       string  `json:"genre" bson:"genre"`
	ReleaseYear int     `json:"releaseYear" bson:"releaseYear"`
	Rating      float64 `json:"rating" bson:"rating"`
	PosterURL   string  `json:"posterUrl" bson:"posterUrl"`
}

// WatchlistEntry is keyed by the (UserEmail, MovieKey) pair; a unique index
// on that pair backs the idempotent add semantics.
type WatchlistEntry struct {
	Key       primitive.ObjectID `json:"-" bson:"_id,omitempty"`
	UserEmail string             `json:"userEmail" bson:"userEmail"`
	MovieKey  string             `json:"movieKey" bson:"movieKey"`
	MovieID   int64              `json:"movieId,omitempty" bson:"movieId,omitempty"`
	Movie     MovieSnapshot      `json:"movie" bson:"movie"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
}

// WatchlistItem is the list-endpoint response shape: the live movie when it
// still exists, otherwise the stored snapshot flagged IsMissing.
type WatchlistItem struct {
	Movie         Movie     `json:"movie"`
	WatchlistedAt time.Time `json:"watchlistedAt"`
	IsMissing     bool      `json:"isMissing,omitempty"`
}

// Counter is the singleton sequence document; Seq is the last issued value.
type Counter struct {
	Name string `bson:"_id"`
	Seq  int64  `bson:"seq"`
}

type CatalogStats struct {
	TotalMovies int64 `json:"totalMovies"`
	TotalUsers  int64 `json:"totalUsers"`
}
