package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"

	"sunnysips/internal/cache"
	"sunnysips/internal/city"
	"sunnysips/internal/provider"
	"sunnysips/internal/recommend"
	"sunnysips/internal/solar"
	"sunnysips/internal/sun"
	"sunnysips/internal/venue"
)

const (
	synthesizedHorizonHours = 6
	defaultCloudCoverPct    = 50.0

	// Synthesized points always carry the confidence-decay floor; they are a
	// raw-feed guess, not a forecast product.
	synthesizedConfidence = 0.5
)

type Config struct {
	Primary     *provider.PrimaryClient
	Legacy      *provider.LegacyClient
	Snapshot    *provider.SnapshotClient
	WeatherFeed *provider.WeatherFeedClient
	Store       cache.Store
	Venues      *venue.Registry
	FreshTTL    time.Duration
	StaleTTL    time.Duration
	Timeout     time.Duration
	MaxItems    int
	Now         func() time.Time
}

// Orchestrator resolves outlooks and recommendations through the failover
// state machine, persisting every successful payload to the cache store.
type Orchestrator struct {
	primary     *provider.PrimaryClient
	legacy      *provider.LegacyClient
	snapshot    *provider.SnapshotClient
	weatherFeed *provider.WeatherFeedClient
	store       cache.Store
	venues      *venue.Registry
	freshTTL    time.Duration
	staleTTL    time.Duration
	timeout     time.Duration
	maxItems    int
	now         func() time.Time
}

func New(cfg Config) *Orchestrator {
	o := &Orchestrator{
		primary:     cfg.Primary,
		legacy:      cfg.Legacy,
		snapshot:    cfg.Snapshot,
		weatherFeed: cfg.WeatherFeed,
		store:       cfg.Store,
		venues:      cfg.Venues,
		freshTTL:    cfg.FreshTTL,
		staleTTL:    cfg.StaleTTL,
		timeout:     cfg.Timeout,
		maxItems:    cfg.MaxItems,
		now:         cfg.Now,
	}
	if o.freshTTL <= 0 {
		o.freshTTL = 2 * time.Hour
	}
	if o.staleTTL <= 0 {
		o.staleTTL = 12 * time.Hour
	}
	if o.timeout <= 0 {
		o.timeout = 20 * time.Second
	}
	if o.maxItems <= 0 {
		o.maxItems = recommend.DefaultMaxItems
	}
	if o.now == nil {
		o.now = func() time.Time { return time.Now().UTC() }
	}
	return o
}

// FetchOutlook resolves the sun outlook for one venue, walking the failover
// tiers in order. "No data found" is not an error: it comes back as an empty
// outlook tagged unavailable.
func (o *Orchestrator) FetchOutlook(ctx context.Context, venueID, cityID string, days, minDurationMin int) (*sun.Outlook, error) {
	if days <= 0 {
		days = 1
	}
	cityCfg := city.Get(cityID)

	v, found := o.venues.Get(venueID)
	if !found {
		return o.emptyOutlook(venueID, cityCfg), nil
	}

	key := cache.Key("outlook", cityCfg.CityID, strings.ToLower(v.ID),
		strconv.Itoa(days), strconv.Itoa(minDurationMin))

	var tierErrs *multierror.Error
	sawFailure := false

	for state := StatePrimary; state != StateFailed; state = state.Next() {
		outlook, err := o.runOutlookTier(ctx, state, key, v, cityCfg, days, minDurationMin)
		if err == nil {
			return outlook, nil
		}
		if !errors.Is(err, errTierSkipped) {
			tierErrs = multierror.Append(tierErrs, fmt.Errorf("%s: %w", state, err))
		}
		if !errors.Is(err, errTierSkipped) && !errors.Is(err, errNoCandidate) {
			sawFailure = true
		}
	}

	if !o.anyProviderConfigured() {
		return nil, fmt.Errorf("outlook for %s: %w", venueID, ErrNotConfigured)
	}
	if !sawFailure {
		// Every tier ran clean but none had data for this venue.
		return o.emptyOutlook(venueID, cityCfg), nil
	}

	log.Printf("Outlook for %s exhausted all tiers: %v", venueID, tierErrs)
	return nil, fmt.Errorf("outlook for %s: %w", venueID, ErrTemporarilyUnavailable)
}

func (o *Orchestrator) runOutlookTier(ctx context.Context, state State, key string, v venue.Venue, cityCfg city.Config, days, minDurationMin int) (*sun.Outlook, error) {
	switch state {
	case StatePrimary:
		return o.tierPrimary(ctx, key, v, cityCfg, days, minDurationMin)
	case StateLegacyFallback:
		return o.tierLegacy(ctx, key, v, cityCfg, days, minDurationMin)
	case StateCacheFallback:
		return o.tierCache(key, cityCfg, minDurationMin)
	case StateStaticSnapshotFallback:
		return o.tierSnapshot(ctx, key, v, cityCfg, minDurationMin)
	case StateSynthesizedFallback:
		return o.tierSynthesized(ctx, key, v, cityCfg, minDurationMin)
	default:
		return nil, errTierSkipped
	}
}

func (o *Orchestrator) tierPrimary(ctx context.Context, key string, v venue.Venue, cityCfg city.Config, days, minDurationMin int) (*sun.Outlook, error) {
	if o.primary == nil || !o.primary.Configured() {
		return nil, errTierSkipped
	}

	tctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	outlook, err := o.primary.FetchOutlook(tctx, v.ID, cityCfg.CityID, days, minDurationMin)
	if err != nil {
		return nil, err
	}
	if len(outlook.Hourly) == 0 {
		return nil, errNoCandidate
	}
	o.normalizeOutlook(outlook, cityCfg, minDurationMin, "primary")

	// Coverage upgrade: when the live response spans fewer calendar days than
	// requested, the legacy series may do better. Not an error path.
	if o.legacy != nil && o.legacy.Configured() {
		if got := coverageDays(outlook.Hourly); got < days {
			lctx, lcancel := context.WithTimeout(ctx, o.timeout)
			legacyOutlook, lerr := o.legacy.FetchSeries(lctx, v.ID, cityCfg.CityID, days)
			lcancel()
			if lerr == nil {
				o.normalizeOutlook(legacyOutlook, cityCfg, minDurationMin, "legacy")
				if coverageDays(legacyOutlook.Hourly) > got {
					log.Printf("Primary coverage %dd below requested %dd for %s, keeping broader legacy series", got, days, v.ID)
					outlook = legacyOutlook
				}
			}
		}
	}

	o.persist(key, outlook)
	return outlook, nil
}

func (o *Orchestrator) tierLegacy(ctx context.Context, key string, v venue.Venue, cityCfg city.Config, days, minDurationMin int) (*sun.Outlook, error) {
	if o.legacy == nil || !o.legacy.Configured() {
		return nil, errTierSkipped
	}

	tctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	outlook, err := o.legacy.FetchSeries(tctx, v.ID, cityCfg.CityID, days)
	if err != nil {
		return nil, err
	}
	o.normalizeOutlook(outlook, cityCfg, minDurationMin, "legacy")
	outlook.FallbackUsed = true

	o.persist(key, outlook)
	return outlook, nil
}

// tierCache serves the last persisted payload for this exact request key. It
// never writes back: a read-through is not a fetch.
func (o *Orchestrator) tierCache(key string, cityCfg city.Config, minDurationMin int) (*sun.Outlook, error) {
	if o.store == nil {
		return nil, errTierSkipped
	}

	entry, ok := o.store.Get(key)
	if !ok {
		return nil, errNoCandidate
	}
	age := entry.Age(o.now())
	if age > o.staleTTL {
		return nil, errNoCandidate
	}

	var outlook sun.Outlook
	if err := json.Unmarshal(entry.Payload, &outlook); err != nil {
		return nil, fmt.Errorf("cache decode: %w", err)
	}

	// Reclassify on the way out so old payloads honor current thresholds.
	o.normalizeOutlook(&outlook, cityCfg, minDurationMin, "cache")

	outlook.DataStatus = sun.StatusStale
	if age <= o.freshTTL {
		outlook.DataStatus = sun.StatusFresh
	}
	outlook.FallbackUsed = true
	freshness := roundHours(age)
	outlook.FreshnessHours = &freshness
	return &outlook, nil
}

func (o *Orchestrator) tierSnapshot(ctx context.Context, key string, v venue.Venue, cityCfg city.Config, minDurationMin int) (*sun.Outlook, error) {
	if o.snapshot == nil || !o.snapshot.Configured() {
		return nil, errTierSkipped
	}

	tctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	area := cityCfg.AreaFor(v.Coordinate.Latitude, v.Coordinate.Longitude)
	snap, err := o.snapshot.FetchArea(tctx, area)
	if err != nil {
		return nil, err
	}

	loc := cityCfg.Location()
	now := o.now()

	var points []sun.ExposurePoint
	for _, slot := range snap.Snapshots {
		row, ok := matchSnapshotRow(slot.Cafes, v)
		if !ok {
			continue
		}
		cloud := slot.CloudCoverPct
		elevation := row.SunElevationDeg
		condition := sun.Classify(sun.ClassifyInput{
			Score:           row.SunnyScore,
			CloudCoverPct:   &cloud,
			SunElevationDeg: &elevation,
		})
		hoursAhead := math.Max(0, slot.TimeUTC.Sub(now).Hours())
		points = append(points, sun.ExposurePoint{
			TimeUTC:        slot.TimeUTC.UTC(),
			TimeLocal:      slot.TimeUTC.In(loc),
			Timezone:       cityCfg.Timezone,
			Condition:      condition,
			Score:          row.SunnyScore,
			ConfidenceHint: sun.ConfidenceHint(hoursAhead),
			CloudCoverPct:  &cloud,
		})
	}
	if len(points) == 0 {
		return nil, errNoCandidate
	}

	points = sun.NormalizeHourly(points)
	age := now.Sub(snap.GeneratedAtUTC.UTC())
	status := sun.StatusStale
	if age <= o.freshTTL {
		status = sun.StatusFresh
	}
	freshness := roundHours(age)

	outlook := &sun.Outlook{
		VenueID:        v.ID,
		CityID:         cityCfg.CityID,
		Timezone:       cityCfg.Timezone,
		DataStatus:     status,
		FreshnessHours: &freshness,
		ProviderUsed:   "snapshot",
		FallbackUsed:   true,
		Hourly:         points,
		Windows:        sun.MergeWindows(points, minDurationMin),
		GeneratedAtUTC: now,
	}
	o.persist(key, outlook)
	return outlook, nil
}

// tierSynthesized samples a short horizon straight from the raw weather feed.
// Single-venue requests only reach here; nothing richer was reachable.
func (o *Orchestrator) tierSynthesized(ctx context.Context, key string, v venue.Venue, cityCfg city.Config, minDurationMin int) (*sun.Outlook, error) {
	if o.weatherFeed == nil || !o.weatherFeed.Configured() {
		return nil, errTierSkipped
	}

	tctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	now := o.now()
	start := now.Truncate(time.Hour)
	end := start.Add(synthesizedHorizonHours * time.Hour)

	series, err := o.weatherFeed.CloudSeries(tctx, v.Coordinate, start, end)
	if err != nil {
		return nil, err
	}

	loc := cityCfg.Location()
	points := make([]sun.ExposurePoint, 0, synthesizedHorizonHours+1)
	for ts := start; !ts.After(end); ts = ts.Add(time.Hour) {
		cloud, ok := series[ts]
		if !ok {
			cloud = defaultCloudCoverPct
		}
		local := ts.In(loc)

		// Hourly sun elevation is not tracked at this tier. The daylight
		// window decides the sign; the venue's reference elevation stands in
		// during daylight.
		elevation := v.SunElevationDeg
		if window, ok := solar.DaylightWindow(local, v.Coordinate, loc); ok {
			if !window.Contains(local) {
				elevation = -1
			} else if elevation <= 0 {
				elevation = 1
			}
		}

		score := sun.DeriveScore(v.SunnyFraction, cloud, elevation)
		condition := sun.Classify(sun.ClassifyInput{
			Score:           score,
			CloudCoverPct:   &cloud,
			SunElevationDeg: &elevation,
		})
		points = append(points, sun.ExposurePoint{
			TimeUTC:        ts,
			TimeLocal:      local,
			Timezone:       cityCfg.Timezone,
			Condition:      condition,
			Score:          score,
			ConfidenceHint: synthesizedConfidence,
			CloudCoverPct:  &cloud,
		})
	}

	freshness := 0.0
	outlook := &sun.Outlook{
		VenueID:        v.ID,
		CityID:         cityCfg.CityID,
		Timezone:       cityCfg.Timezone,
		DataStatus:     sun.StatusFresh,
		FreshnessHours: &freshness,
		ProviderUsed:   "synthesized",
		FallbackUsed:   true,
		Hourly:         points,
		Windows:        sun.MergeWindows(points, minDurationMin),
		GeneratedAtUTC: now,
	}
	o.persist(key, outlook)
	return outlook, nil
}

// FetchFavoritesRecommendation resolves outlooks for each favorite through
// the same tiering, then merges, ranks, and collapses windows across the set.
func (o *Orchestrator) FetchFavoritesRecommendation(ctx context.Context, venueIDs []string, cityID string, days int, prefs recommend.Preferences) (*sun.RecommendationList, error) {
	if days <= 0 {
		days = 1
	}
	cityCfg := city.Get(cityID)
	ids := dedupeIDs(venueIDs)
	now := o.now()

	recKey := recommendationKey(cityCfg.CityID, ids, days, prefs)

	// Whole-response cache: a fresh ranked list short-circuits all fan-out.
	if cached, age, ok := o.cachedRecommendations(recKey); ok && age <= o.freshTTL {
		freshness := roundHours(age)
		cached.DataStatus = sun.StatusFresh
		cached.FreshnessHours = &freshness
		return cached, nil
	}

	var (
		venuesWindows []recommend.VenueWindows
		fetchErrs     *multierror.Error
		anyFallback   bool
		anyStale      bool
		anyData       bool
		providerUsed  string
		maxFreshness  *float64
		resolved      int
	)

	for _, id := range ids {
		outlook, err := o.FetchOutlook(ctx, id, cityCfg.CityID, days, prefs.MinDurationMinutes)
		if err != nil {
			fetchErrs = multierror.Append(fetchErrs, err)
			continue
		}
		resolved++

		name := "Cafe"
		if v, ok := o.venues.Get(id); ok {
			name = v.Name
		}
		venuesWindows = append(venuesWindows, recommend.VenueWindows{
			VenueID:   outlook.VenueID,
			VenueName: name,
			Windows:   outlook.Windows,
		})

		if outlook.FallbackUsed {
			anyFallback = true
		}
		if outlook.DataStatus == sun.StatusStale {
			anyStale = true
		}
		if outlook.DataStatus != sun.StatusUnavailable {
			anyData = true
		}
		if providerUsed == "" {
			providerUsed = outlook.ProviderUsed
		}
		if outlook.FreshnessHours != nil {
			if maxFreshness == nil || *outlook.FreshnessHours > *maxFreshness {
				freshness := *outlook.FreshnessHours
				maxFreshness = &freshness
			}
		}
	}

	if resolved == 0 && len(ids) > 0 && fetchErrs != nil {
		// Every favorite failed. A stale cached list is still better than an
		// error; only truly empty-handed requests surface one.
		if cached, age, ok := o.cachedRecommendations(recKey); ok && age <= o.staleTTL {
			freshness := roundHours(age)
			cached.DataStatus = sun.StatusStale
			cached.FreshnessHours = &freshness
			cached.FallbackUsed = true
			return cached, nil
		}
		log.Printf("Favorites recommendation for %s failed for all %d venues: %v", cityCfg.CityID, len(ids), fetchErrs)
		if allNotConfigured(fetchErrs) {
			return nil, fmt.Errorf("favorites recommendation: %w", ErrNotConfigured)
		}
		return nil, fmt.Errorf("favorites recommendation: %w", ErrTemporarilyUnavailable)
	}

	items := recommend.Rank(venuesWindows, now, prefs.PreferredPeriods, o.maxItems, true)

	status := sun.StatusFresh
	switch {
	case len(venuesWindows) == 0 || !anyData:
		status = sun.StatusUnavailable
	case anyStale:
		status = sun.StatusStale
	}

	list := &sun.RecommendationList{
		CityID:         cityCfg.CityID,
		Timezone:       cityCfg.Timezone,
		DataStatus:     status,
		FreshnessHours: maxFreshness,
		ProviderUsed:   providerUsed,
		FallbackUsed:   anyFallback,
		Items:          items,
		GeneratedAtUTC: now,
	}

	if o.store != nil && status != sun.StatusUnavailable {
		if raw, err := json.Marshal(list); err == nil {
			if err := o.store.Put(recKey, raw); err != nil {
				log.Printf("Failed to cache recommendations: %v", err)
			}
		}
	}
	return list, nil
}

func (o *Orchestrator) cachedRecommendations(key string) (*sun.RecommendationList, time.Duration, bool) {
	if o.store == nil {
		return nil, 0, false
	}
	entry, ok := o.store.Get(key)
	if !ok {
		return nil, 0, false
	}
	var list sun.RecommendationList
	if err := json.Unmarshal(entry.Payload, &list); err != nil {
		return nil, 0, false
	}
	return &list, entry.Age(o.now()), true
}

func (o *Orchestrator) normalizeOutlook(outlook *sun.Outlook, cityCfg city.Config, minDurationMin int, providerName string) {
	outlook.Hourly = sun.NormalizeHourly(outlook.Hourly)
	for i := range outlook.Hourly {
		point := &outlook.Hourly[i]
		// The wire condition is a provider label, not a verdict. Keep it as
		// the raw input and let the classifier decide the bucket.
		if point.RawCondition == "" {
			point.RawCondition = string(point.Condition)
		}
		point.Condition = sun.Classify(sun.ClassifyInput{
			Score:         point.Score,
			CloudCoverPct: point.CloudCoverPct,
			RawCondition:  point.RawCondition,
		})
	}
	if len(outlook.Hourly) > 0 {
		// Windows must always be derivable from hourly; re-merge rather than
		// trust the provider's copy.
		outlook.Windows = sun.MergeWindows(outlook.Hourly, minDurationMin)
	}
	if outlook.CityID == "" {
		outlook.CityID = cityCfg.CityID
	}
	if outlook.Timezone == "" {
		outlook.Timezone = cityCfg.Timezone
	}
	if outlook.DataStatus == "" {
		outlook.DataStatus = sun.StatusFresh
	}
	if outlook.ProviderUsed == "" {
		outlook.ProviderUsed = providerName
	}
	if outlook.GeneratedAtUTC.IsZero() {
		outlook.GeneratedAtUTC = o.now()
	}
	if outlook.FreshnessHours == nil {
		freshness := 0.0
		outlook.FreshnessHours = &freshness
	}
}

func (o *Orchestrator) persist(key string, outlook *sun.Outlook) {
	if o.store == nil {
		return
	}
	raw, err := json.Marshal(outlook)
	if err != nil {
		log.Printf("Failed to encode outlook for cache: %v", err)
		return
	}
	if err := o.store.Put(key, raw); err != nil {
		log.Printf("Failed to cache outlook: %v", err)
	}
}

func (o *Orchestrator) emptyOutlook(venueID string, cityCfg city.Config) *sun.Outlook {
	return &sun.Outlook{
		VenueID:        venueID,
		CityID:         cityCfg.CityID,
		Timezone:       cityCfg.Timezone,
		DataStatus:     sun.StatusUnavailable,
		Hourly:         []sun.ExposurePoint{},
		Windows:        []sun.SunWindow{},
		GeneratedAtUTC: o.now(),
	}
}

func (o *Orchestrator) anyProviderConfigured() bool {
	return (o.primary != nil && o.primary.Configured()) ||
		(o.legacy != nil && o.legacy.Configured()) ||
		(o.snapshot != nil && o.snapshot.Configured()) ||
		(o.weatherFeed != nil && o.weatherFeed.Configured())
}

// coverageDays counts the distinct calendar days in an hourly sequence, in
// local time when the points carry it.
func coverageDays(points []sun.ExposurePoint) int {
	days := make(map[string]struct{}, 8)
	for i := range points {
		ts := points[i].TimeLocal
		if ts.IsZero() {
			ts = points[i].TimeUTC
		}
		days[ts.Format("2006-01-02")] = struct{}{}
	}
	return len(days)
}

func matchSnapshotRow(rows []provider.SnapshotRow, v venue.Venue) (provider.SnapshotRow, bool) {
	for _, row := range rows {
		if v.OSMID != 0 && row.OSMID == v.OSMID {
			return row, true
		}
	}
	for _, row := range rows {
		if row.Name != "" && strings.EqualFold(row.Name, v.Name) {
			return row, true
		}
	}
	return provider.SnapshotRow{}, false
}

func recommendationKey(cityID string, ids []string, days int, prefs recommend.Preferences) string {
	sortedIDs := make([]string, len(ids))
	copy(sortedIDs, ids)
	sort.Strings(sortedIDs)

	periods := make([]string, 0, len(prefs.PreferredPeriods))
	for _, p := range prefs.PreferredPeriods {
		periods = append(periods, strings.ToLower(strings.TrimSpace(p)))
	}
	sort.Strings(periods)

	return cache.Key("recommendations", cityID,
		strings.Join(sortedIDs, ","),
		strconv.Itoa(days),
		strconv.Itoa(prefs.MinDurationMinutes),
		strings.Join(periods, ","))
}

func dedupeIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		normalized := strings.ToLower(strings.TrimSpace(id))
		if normalized == "" {
			continue
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		out = append(out, normalized)
	}
	return out
}

func allNotConfigured(errs *multierror.Error) bool {
	if errs == nil || len(errs.Errors) == 0 {
		return false
	}
	for _, err := range errs.Errors {
		if !errors.Is(err, ErrNotConfigured) {
			return false
		}
	}
	return true
}

func roundHours(age time.Duration) float64 {
	return math.Round(age.Hours()*100) / 100
}
