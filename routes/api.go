package api

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/muhammadMilon/Server-PHA10/db"
	m "github.com/muhammadMilon/Server-PHA10/models"
)

// MovieService is the storage surface the handlers depend on. *db.DBService
// implements it; tests substitute a mock.
type MovieService interface {
	FindMovies(ctx context.Context, filter m.MovieFilter) ([]m.Movie, error)
	FindMovieByIdentifier(ctx context.Context, identifier string) (m.Movie, error)
	FindMoviesByOwner(ctx context.Context, email string) ([]m.Movie, error)
	InsertMovie(ctx context.Context, movie m.Movie) (m.Movie, error)
	UpdateMovie(ctx context.Context, target m.Movie, upd m.MovieUpdate) (m.Movie, error)
	DeleteMovie(ctx context.Context, target m.Movie) error
	UpsertUser(ctx context.Context, user m.User) (m.User, error)
	UserExists(ctx context.Context, email string) (bool, error)
	GetWatchlist(ctx context.Context, email string) ([]m.WatchlistItem, error)
	AddToWatchlist(ctx context.Context, email string, movie m.Movie) (bool, error)
	RemoveFromWatchlist(ctx context.Context, email, identifier string) error
	InWatchlist(ctx context.Context, email, identifier string) (bool, error)
	CatalogStats(ctx context.Context) (m.CatalogStats, error)
	TopRatedMovies(ctx context.Context) ([]m.Movie, error)
	RecentMovies(ctx context.Context) ([]m.Movie, error)
	FeaturedMovies(ctx context.Context) ([]m.Movie, error)
}

// ConfigService provides the runtime settings the router needs.
type ConfigService interface {
	GetServerPort() string
	GetAllowedOrigins() []string
}

// API holds the injected dependencies for all route handlers.
type API struct {
	DB     MovieService
	Config ConfigService
}

var limiter = rate.NewLimiter(5, 10)

func rateLimitMiddleware(c *gin.Context) {
	if !limiter.Allow() {
		c.JSON(http.StatusTooManyRequests, gin.H{"message": "Too many requests"})
		c.Abort()
		return
	}
	c.Next()
}

func securityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Next()
	}
}

// authMiddleware is the whole auth story: a non-empty x-user-email header.
// The value is trusted as-is; there is deliberately no signature, expiry or
// session check, and adding one would change the API contract.
func authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		email := c.GetHeader("x-user-email")
		if email == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized: missing x-user-email header"})
			c.Abort()
			return
		}
		c.Set("userEmail", email)
		c.Next()
	}
}

func (a *API) setupCORS() cors.Config {
	config := cors.DefaultConfig()
	config.AllowOrigins = a.Config.GetAllowedOrigins()
	config.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{
		"Origin",
		"Content-Type",
		"Content-Length",
		"Accept-Encoding",
		"Authorization",
		"x-user-email",
	}
	config.ExposeHeaders = []string{"Content-Length"}
	config.AllowCredentials = true
	config.MaxAge = 12 * time.Hour
	return config
}

// SetupRouter wires every route onto a fresh gin engine.
func (a *API) SetupRouter() *gin.Engine {
	router := gin.Default()
	router.Use(securityHeadersMiddleware())
	router.Use(cors.New(a.setupCORS()))
	router.Use(rateLimitMiddleware)

	router.GET("/", a.handleRoot)

	router.POST("/users/create-or-update", a.handleUpsertUser)
	router.GET("/users/check/:email", a.handleCheckUser)

	router.GET("/movies", a.handleListMovies)
	router.GET("/movies/:id", a.handleGetMovie)

	router.GET("/home/stats", a.handleHomeStats)
	router.GET("/home/top-rated", a.handleTopRated)
	router.GET("/home/recent", a.handleRecent)
	router.GET("/home/featured", a.handleFeatured)

	protected := router.Group("/")
	protected.Use(authMiddleware())
	{
		protected.POST("/movies/add", a.handleAddMovie)
		protected.GET("/movies/my-collection", a.handleMyCollection)
		protected.PUT("/movies/update/:id", a.handleUpdateMovie)
		protected.DELETE("/movies/:id", a.handleDeleteMovie)

		protected.GET("/watchlist", a.handleGetWatchlist)
		protected.POST("/watchlist/:movieId", a.handleAddToWatchlist)
		protected.DELETE("/watchlist/:movieId", a.handleRemoveFromWatchlist)
		protected.GET("/watchlist/status/:movieId", a.handleWatchlistStatus)
	}

	return router
}

func (a *API) handleRoot(c *gin.Context) {
	c.String(http.StatusOK, "Movie catalog server is running")
}

func (a *API) handleUpsertUser(c *gin.Context) {
	var input struct {
		Email       string `json:"email"`
		DisplayName string `json:"displayName"`
		PhotoURL    string `json:"photoURL"`
		UID         string `json:"uid"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid user data"})
		return
	}
	if input.Email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Email is required"})
		return
	}

	user, err := a.DB.UpsertUser(c.Request.Context(), m.User{
		Email:       input.Email,
		DisplayName: input.DisplayName,
		PhotoURL:    input.PhotoURL,
		UID:         input.UID,
	})
	if err != nil {
		log.Printf("Error upserting user: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, user)
}

func (a *API) handleCheckUser(c *gin.Context) {
	exists, err := a.DB.UserExists(c.Request.Context(), c.Param("email"))
	if err != nil {
		log.Printf("Error checking user: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"exists": exists})
}

func (a *API) handleListMovies(c *gin.Context) {
	filter := m.MovieFilter{
		Genre:  c.Query("genre"),
		Search: c.Query("search"),
		SortBy: c.Query("sortBy"),
	}
	movies, err := a.DB.FindMovies(c.Request.Context(), filter)
	if err != nil {
		log.Printf("Error listing movies: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, movies)
}

func (a *API) handleGetMovie(c *gin.Context) {
	movie, err := a.DB.FindMovieByIdentifier(c.Request.Context(), c.Param("id"))
	if errors.Is(err, db.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Movie not found"})
		return
	}
	if err != nil {
		log.Printf("Error finding movie: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, db.NormalizeMovieID(movie))
}

// movieInput accepts the duck-typed payloads the frontend has always sent:
// numeric fields may arrive as numbers or strings and are coerced without
// range validation. Identity and ownership fields are not bound at all, so a
// payload cannot smuggle them in.
type movieInput struct {
	Title       *string     `json:"title"`
	Genre       *string     `json:"genre"`
	ReleaseYear interface{} `json:"releaseYear"`
	Director    *string     `json:"director"`
	Cast        *string     `json:"cast"`
	Rating      interface{} `json:"rating"`
	Duration    interface{} `json:"duration"`
	PlotSummary *string     `json:"plotSummary"`
	PosterURL   *string     `json:"posterUrl"`
	Language    *string     `json:"language"`
	Country     *string     `json:"country"`
}

// coerceFloat turns a JSON number or numeric string into a float64; invalid
// input becomes 0 (the explicit stand-in for the historical NaN behavior).
func coerceFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

func coerceInt(v interface{}) int {
	return int(coerceFloat(v))
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (a *API) handleAddMovie(c *gin.Context) {
	var input movieInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid movie data"})
		return
	}

	email := strings.ToLower(c.GetString("userEmail"))
	now := time.Now().UTC()
	movie := m.Movie{
		Title:       strOrEmpty(input.Title),
		Genre:       strOrEmpty(input.Genre),
		ReleaseYear: coerceInt(input.ReleaseYear),
		Director:    strOrEmpty(input.Director),
		Cast:        strOrEmpty(input.Cast),
		Rating:      coerceFloat(input.Rating),
		Duration:    coerceInt(input.Duration),
		PlotSummary: strOrEmpty(input.PlotSummary),
		PosterURL:   strOrEmpty(input.PosterURL),
		Language:    strOrEmpty(input.Language),
		Country:     strOrEmpty(input.Country),
		AddedBy:     email,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	stored, err := a.DB.InsertMovie(c.Request.Context(), movie)
	if err != nil {
		log.Printf("Error adding movie: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}
	c.JSON(http.StatusCreated, stored)
}

func (a *API) handleMyCollection(c *gin.Context) {
	email := c.GetString("userEmail")
	movies, err := a.DB.FindMoviesByOwner(c.Request.Context(), email)
	if err != nil {
		log.Printf("Error listing collection: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, movies)
}

// resolveOwnedMovie fetches the target and enforces the owner check shared
// by update and delete.
func (a *API) resolveOwnedMovie(c *gin.Context) (m.Movie, bool) {
	movie, err := a.DB.FindMovieByIdentifier(c.Request.Context(), c.Param("id"))
	if errors.Is(err, db.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Movie not found"})
		return m.Movie{}, false
	}
	if err != nil {
		log.Printf("Error finding movie: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return m.Movie{}, false
	}

	email := strings.ToLower(c.GetString("userEmail"))
	if email != movie.AddedBy {
		c.JSON(http.StatusForbidden, gin.H{"message": "Forbidden: you do not own this movie"})
		return m.Movie{}, false
	}
	return movie, true
}

func (a *API) handleUpdateMovie(c *gin.Context) {
	movie, ok := a.resolveOwnedMovie(c)
	if !ok {
		return
	}

	var input movieInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid movie data"})
		return
	}

	upd := m.MovieUpdate{
		Title:       input.Title,
		Genre:       input.Genre,
		Director:    input.Director,
		Cast:        input.Cast,
		PlotSummary: input.PlotSummary,
		PosterURL:   input.PosterURL,
		Language:    input.Language,
		Country:     input.Country,
	}
	if input.ReleaseYear != nil {
		year := coerceInt(input.ReleaseYear)
		upd.ReleaseYear = &year
	}
	if input.Rating != nil {
		rating := coerceFloat(input.Rating)
		upd.Rating = &rating
	}
	if input.Duration != nil {
		duration := coerceInt(input.Duration)
		upd.Duration = &duration
	}

	updated, err := a.DB.UpdateMovie(c.Request.Context(), movie, upd)
	if errors.Is(err, db.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Movie not found"})
		return
	}
	if err != nil {
		log.Printf("Error updating movie: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (a *API) handleDeleteMovie(c *gin.Context) {
	movie, ok := a.resolveOwnedMovie(c)
	if !ok {
		return
	}

	if err := a.DB.DeleteMovie(c.Request.Context(), movie); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Movie not found"})
			return
		}
		log.Printf("Error deleting movie: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Movie deleted successfully"})
}

func (a *API) handleGetWatchlist(c *gin.Context) {
	email := c.GetString("userEmail")
	items, err := a.DB.GetWatchlist(c.Request.Context(), email)
	if err != nil {
		log.Printf("Error getting watchlist: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, items)
}

func (a *API) handleAddToWatchlist(c *gin.Context) {
	email := c.GetString("userEmail")
	movie, err := a.DB.FindMovieByIdentifier(c.Request.Context(), c.Param("movieId"))
	if errors.Is(err, db.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Movie not found"})
		return
	}
	if err != nil {
		log.Printf("Error finding movie: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	alreadyExists, err := a.DB.AddToWatchlist(c.Request.Context(), email, db.NormalizeMovieID(movie))
	if err != nil {
		log.Printf("Error adding to watchlist: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}
	if alreadyExists {
		c.JSON(http.StatusOK, gin.H{"message": "Already in watchlist", "alreadyExists": true})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Added to watchlist", "alreadyExists": false})
}

func (a *API) handleRemoveFromWatchlist(c *gin.Context) {
	email := c.GetString("userEmail")
	err := a.DB.RemoveFromWatchlist(c.Request.Context(), email, c.Param("movieId"))
	if errors.Is(err, db.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Watchlist entry not found"})
		return
	}
	if err != nil {
		log.Printf("Error removing from watchlist: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Removed from watchlist"})
}

func (a *API) handleWatchlistStatus(c *gin.Context) {
	email := c.GetString("userEmail")
	inList, err := a.DB.InWatchlist(c.Request.Context(), email, c.Param("movieId"))
	if err != nil {
		log.Printf("Error checking watchlist: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"inWatchlist": inList})
}

func (a *API) handleHomeStats(c *gin.Context) {
	stats, err := a.DB.CatalogStats(c.Request.Context())
	if err != nil {
		log.Printf("Error getting stats: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (a *API) handleTopRated(c *gin.Context) {
	movies, err := a.DB.TopRatedMovies(c.Request.Context())
	if err != nil {
		log.Printf("Error getting top rated movies: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, movies)
}

func (a *API) handleRecent(c *gin.Context) {
	movies, err := a.DB.RecentMovies(c.Request.Context())
	if err != nil {
		log.Printf("Error getting recent movies: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, movies)
}

func (a *API) handleFeatured(c *gin.Context) {
	movies, err := a.DB.FeaturedMovies(c.Request.Context())
	if err != nil {
		log.Printf("Error getting featured movies: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, movies)
}

func setupLogger() {
	if gin.Mode() == gin.ReleaseMode {
		f, err := os.Create("gin.log")
		if err != nil {
			log.Fatal("Could not create log file", err)
		}
		gin.DefaultWriter = io.MultiWriter(f, os.Stdout) // log to file and terminal
	}
}

// ExposeAPI runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully.
func ExposeAPI(dbService MovieService, config ConfigService) {
	gin.SetMode(gin.ReleaseMode)
	setupLogger()

	api := &API{DB: dbService, Config: config}
	router := api.SetupRouter()

	srv := &http.Server{
		Addr:         ":" + config.GetServerPort(),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to initialize server: %v\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
