package refresh

import (
	"context"
	"log"
	"sync"
	"time"

	"sunnysips/internal/mqtt"
	"sunnysips/internal/orchestrator"
	"sunnysips/internal/storage"
	"sunnysips/internal/sun"
	"sunnysips/internal/venue"
)

// Refresher periodically re-resolves the outlook for every registered venue,
// persisting a history row and publishing summaries as it goes. Warm caches
// make the API cheap even when upstream providers degrade.
type Refresher struct {
	orch      *orchestrator.Orchestrator
	venues    *venue.Registry
	db        *storage.Database
	publisher *mqtt.Publisher
	cityID    string
	days      int
	minDurMin int
	interval  time.Duration
	enabled   bool
	retention time.Duration

	mu           sync.RWMutex
	latest       map[string]*sun.Outlook
	isRefreshing bool
	inFlight     bool
}

type RefresherConfig struct {
	Orchestrator   *orchestrator.Orchestrator
	Venues         *venue.Registry
	Database       *storage.Database
	Publisher      *mqtt.Publisher
	CityID         string
	OutlookDays    int
	MinDurationMin int
	Interval       time.Duration
	Enabled        bool
	Retention      time.Duration
}

func NewRefresher(cfg RefresherConfig) *Refresher {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	retention := cfg.Retention
	if retention <= 0 {
		retention = 30 * 24 * time.Hour
	}
	return &Refresher{
		orch:      cfg.Orchestrator,
		venues:    cfg.Venues,
		db:        cfg.Database,
		publisher: cfg.Publisher,
		cityID:    cfg.CityID,
		days:      cfg.OutlookDays,
		minDurMin: cfg.MinDurationMin,
		interval:  interval,
		enabled:   cfg.Enabled,
		retention: retention,
		latest:    make(map[string]*sun.Outlook),
	}
}

func (r *Refresher) Start(ctx context.Context) error {
	if !r.enabled {
		log.Println("Refresher is disabled")
		return nil
	}

	r.mu.Lock()
	r.isRefreshing = true
	r.mu.Unlock()

	log.Printf("Starting refresher with interval %s", r.interval)

	r.refresh(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Refresher stopped")
			r.mu.Lock()
			r.isRefreshing = false
			r.mu.Unlock()
			return nil
		case <-ticker.C:
			r.refresh(ctx)
		}
	}
}

func (r *Refresher) refresh(ctx context.Context) {
	r.mu.Lock()
	if r.inFlight {
		r.mu.Unlock()
		log.Println("Previous refresh still running, skipping this tick")
		return
	}
	r.inFlight = true
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		r.inFlight = false
		r.mu.Unlock()
	}()

	refreshed := 0
	for _, v := range r.venues.All() {
		if ctx.Err() != nil {
			return
		}

		outlook, err := r.orch.FetchOutlook(ctx, v.ID, r.cityID, r.days, r.minDurMin)
		if err != nil {
			log.Printf("Error refreshing outlook for %s: %v", v.ID, err)
			continue
		}

		r.mu.Lock()
		r.latest[v.ID] = outlook
		r.mu.Unlock()

		if r.db != nil {
			if err := r.db.SaveOutlook(outlook, time.Now().UTC()); err != nil {
				log.Printf("Error saving outlook record for %s: %v", v.ID, err)
			}
		}

		if r.publisher != nil {
			if err := r.publisher.PublishOutlook(outlook); err != nil {
				log.Printf("Error publishing outlook for %s: %v", v.ID, err)
			}
		}
		refreshed++
	}

	if r.db != nil {
		if err := r.db.CleanOldRecords(r.retention); err != nil {
			log.Printf("Error cleaning old outlook records: %v", err)
		}
	}

	log.Printf("Refreshed %d/%d venues", refreshed, r.venues.Len())
}

// RefreshOnce resolves a single venue immediately, outside the ticker.
func (r *Refresher) RefreshOnce(ctx context.Context, venueID string) (*sun.Outlook, error) {
	outlook, err := r.orch.FetchOutlook(ctx, venueID, r.cityID, r.days, r.minDurMin)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.latest[outlook.VenueID] = outlook
	r.mu.Unlock()

	return outlook, nil
}

func (r *Refresher) GetLatestOutlook(venueID string) *sun.Outlook {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.latest[venueID]
}

func (r *Refresher) IsRefreshing() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.isRefreshing
}

func (r *Refresher) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.publisher != nil {
		r.publisher.Close()
	}
	if r.db != nil {
		r.db.Close()
	}
}
