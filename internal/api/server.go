package api

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"sunnysips/internal/city"
	"sunnysips/internal/orchestrator"
	"sunnysips/internal/recommend"
	"sunnysips/internal/refresh"
	"sunnysips/internal/storage"
	"sunnysips/internal/sun"
	"sunnysips/internal/venue"
)

type Server struct {
	router    *gin.Engine
	server    *http.Server
	orch      *orchestrator.Orchestrator
	refresher *refresh.Refresher
	db        *storage.Database
	venues    *venue.Registry
	port      int

	defaultCity    string
	outlookDays    int
	minDurationMin int
}

type ServerConfig struct {
	Port           int
	Orchestrator   *orchestrator.Orchestrator
	Refresher      *refresh.Refresher
	Database       *storage.Database
	Venues         *venue.Registry
	DefaultCity    string
	OutlookDays    int
	MinDurationMin int
}

func NewServer(cfg ServerConfig) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	s := &Server{
		router:         router,
		orch:           cfg.Orchestrator,
		refresher:      cfg.Refresher,
		db:             cfg.Database,
		venues:         cfg.Venues,
		port:           cfg.Port,
		defaultCity:    cfg.DefaultCity,
		outlookDays:    cfg.OutlookDays,
		minDurationMin: cfg.MinDurationMin,
	}
	if s.defaultCity == "" {
		s.defaultCity = "copenhagen"
	}
	if s.outlookDays <= 0 {
		s.outlookDays = 5
	}
	if s.minDurationMin <= 0 {
		s.minDurationMin = 30
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthHandler)

	api := s.router.Group("/api/v1")
	{
		api.GET("/cities", s.citiesHandler)
		api.GET("/venues", s.venuesHandler)
		api.GET("/venues/:id/sun-outlook", s.outlookHandler)
		api.GET("/venues/:id/sun-outlook/latest", s.latestOutlookHandler)
		// Clients predating the venue naming still call the cafe paths.
		api.GET("/cafes/:id/sun-outlook", s.outlookHandler)
		api.GET("/cafes/:id/sun-outlook/latest", s.latestOutlookHandler)
		api.POST("/recommendations/favorites", s.favoritesHandler)

		api.GET("/history", s.historyHandler)
		api.GET("/history/latest", s.latestHistoryHandler)
		api.GET("/stats/daily", s.dailyStatsHandler)
	}
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: s.router,
	}

	log.Printf("API server starting on port %d", s.port)
	return s.server.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) healthHandler(c *gin.Context) {
	refreshing := false
	if s.refresher != nil {
		refreshing = s.refresher.IsRefreshing()
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "healthy",
		"refreshing": refreshing,
		"venues":     s.venues.Len(),
		"timestamp":  time.Now().UTC(),
	})
}

func (s *Server) citiesHandler(c *gin.Context) {
	cities := city.All()
	c.JSON(http.StatusOK, gin.H{
		"cities": cities,
		"count":  len(cities),
	})
}

func (s *Server) venuesHandler(c *gin.Context) {
	cityID := c.DefaultQuery("city_id", s.defaultCity)
	area := c.Query("area")

	cityCfg := city.Get(cityID)
	venues := make([]venue.Venue, 0, s.venues.Len())
	for _, v := range s.venues.All() {
		if area != "" && cityCfg.AreaFor(v.Coordinate.Latitude, v.Coordinate.Longitude) != area {
			continue
		}
		venues = append(venues, v)
	}

	c.JSON(http.StatusOK, gin.H{
		"city_id": cityCfg.CityID,
		"venues":  venues,
		"count":   len(venues),
	})
}

func (s *Server) outlookHandler(c *gin.Context) {
	venueID := c.Param("id")
	cityID := c.DefaultQuery("city_id", s.defaultCity)
	days := intQuery(c, "days", 1)
	if days > s.outlookDays {
		days = s.outlookDays
	}
	minDuration := intQuery(c, "min_duration_min", s.minDurationMin)

	outlook, err := s.orch.FetchOutlook(c.Request.Context(), venueID, cityID, days, minDuration)
	if err != nil {
		s.renderOutlookError(c, err)
		return
	}

	c.JSON(http.StatusOK, filterOutlook(outlook, c.Query("include")))
}

// latestOutlookHandler serves the refresher's most recent resolution without
// touching any provider. Cheap reads for dashboards that poll.
func (s *Server) latestOutlookHandler(c *gin.Context) {
	if s.refresher == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Background refresh not enabled"})
		return
	}

	venueID := c.Param("id")
	if v, ok := s.venues.Get(venueID); ok {
		venueID = v.ID
	}

	outlook := s.refresher.GetLatestOutlook(venueID)
	if outlook == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No refreshed outlook for venue"})
		return
	}
	c.JSON(http.StatusOK, filterOutlook(outlook, c.Query("include")))
}

type favoritesRequest struct {
	CafeIDs     []string              `json:"cafe_ids" binding:"required"`
	CityID      string                `json:"city_id"`
	Days        int                   `json:"days"`
	Preferences recommend.Preferences `json:"preferences"`
}

func (s *Server) favoritesHandler(c *gin.Context) {
	var req favoritesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.CityID == "" {
		req.CityID = s.defaultCity
	}
	if req.Days <= 0 || req.Days > s.outlookDays {
		req.Days = 1
	}
	if req.Preferences.MinDurationMinutes <= 0 {
		req.Preferences.MinDurationMinutes = s.minDurationMin
	}

	list, err := s.orch.FetchFavoritesRecommendation(c.Request.Context(), req.CafeIDs, req.CityID, req.Days, req.Preferences)
	if err != nil {
		s.renderOutlookError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

func (s *Server) historyHandler(c *gin.Context) {
	if s.db == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "History storage not configured"})
		return
	}

	venueID := c.Query("cafe_id")
	if venueID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing 'cafe_id' parameter"})
		return
	}

	fromStr := c.Query("from")
	toStr := c.Query("to")
	limit := intQuery(c, "limit", 100)
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	if fromStr != "" && toStr != "" {
		from, err := time.Parse(time.RFC3339, fromStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'from' date format"})
			return
		}
		to, err := time.Parse(time.RFC3339, toStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'to' date format"})
			return
		}

		records, err := s.db.GetRecordsByRange(venueID, from, to)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, records)
		return
	}

	records, err := s.db.GetRecordsWithLimit(venueID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, records)
}

func (s *Server) latestHistoryHandler(c *gin.Context) {
	if s.db == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "History storage not configured"})
		return
	}

	venueID := c.Query("cafe_id")
	if venueID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing 'cafe_id' parameter"})
		return
	}

	record, err := s.db.GetLatestRecord(venueID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No history for venue"})
		return
	}
	c.JSON(http.StatusOK, record)
}

func (s *Server) dailyStatsHandler(c *gin.Context) {
	if s.db == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "History storage not configured"})
		return
	}

	venueID := c.Query("cafe_id")
	if venueID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing 'cafe_id' parameter"})
		return
	}

	dateStr := c.DefaultQuery("date", time.Now().Format("2006-01-02"))
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date format"})
		return
	}

	stats, err := s.db.GetDailyStats(venueID, date)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) renderOutlookError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, orchestrator.ErrNotConfigured):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "No outlook provider configured"})
	case errors.Is(err, orchestrator.ErrTemporarilyUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Sun outlook temporarily unavailable"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// filterOutlook applies the ?include= projection. An empty value keeps the
// full payload; otherwise only the named sections (hourly, windows) survive.
func filterOutlook(outlook *sun.Outlook, include string) *sun.Outlook {
	if include == "" {
		return outlook
	}

	wantHourly := false
	wantWindows := false
	for _, part := range strings.Split(include, ",") {
		switch strings.ToLower(strings.TrimSpace(part)) {
		case "hourly":
			wantHourly = true
		case "windows":
			wantWindows = true
		}
	}

	filtered := *outlook
	if !wantHourly {
		filtered.Hourly = []sun.ExposurePoint{}
	}
	if !wantWindows {
		filtered.Windows = []sun.SunWindow{}
	}
	return &filtered
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	var value int
	if _, err := fmt.Sscanf(raw, "%d", &value); err != nil {
		return fallback
	}
	return value
}
