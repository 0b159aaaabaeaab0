package distance

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"itinerary-planner/internal/database"
	"itinerary-planner/internal/metrics"
	"itinerary-planner/internal/models"
)

// ErrInvalidCoordinates is the only error the estimator returns
var ErrInvalidCoordinates = errors.New("invalid coordinates")

// Estimate is a travel distance/duration between two points
type Estimate struct {
	DistanceKm  float64 `json:"distance_km"`
	DurationMin float64 `json:"duration_min"`
	IsFallback  bool    `json:"is_fallback"`
}

// EstimatorConfig bounds provider usage
type EstimatorConfig struct {
	SingleTimeout    time.Duration
	BatchTimeout     time.Duration
	MinInterval      time.Duration
	MatrixPairLimit  int
	ProviderCooldown time.Duration
}

// DefaultEstimatorConfig returns 10s/30s timeouts, 100ms spacing, 100-pair matrices and a 30s cooldown
func DefaultEstimatorConfig() EstimatorConfig {
	return EstimatorConfig{
		SingleTimeout:    10 * time.Second,
		BatchTimeout:     30 * time.Second,
		MinInterval:      100 * time.Millisecond,
		MatrixPairLimit:  100,
		ProviderCooldown: 30 * time.Second,
	}
}

// Estimator resolves travel estimates through the memory cache, the optional
// persistent store, the optional routing provider and finally the fallback model.
// It is safe for concurrent use.
type Estimator struct {
	cache    *MemoryCache
	store    database.DistanceCacheRepository
	provider RoutingProvider
	limiter  *rate.Limiter
	cfg      EstimatorConfig
	logger   *zap.Logger
	now      func() time.Time

	// unix nanos; provider calls are skipped until then
	downUntil atomic.Int64
}

// Option configures an Estimator
type Option func(*Estimator)

// WithProvider enables provider lookups
func WithProvider(p RoutingProvider) Option {
	return func(e *Estimator) { e.provider = p }
}

// WithStore adds a persistent tier for provider results
func WithStore(s database.DistanceCacheRepository) Option {
	return func(e *Estimator) { e.store = s }
}

// WithConfig overrides DefaultEstimatorConfig; zero fields keep their defaults
func WithConfig(cfg EstimatorConfig) Option {
	return func(e *Estimator) {
		d := DefaultEstimatorConfig()
		if cfg.SingleTimeout <= 0 {
			cfg.SingleTimeout = d.SingleTimeout
		}
		if cfg.BatchTimeout <= 0 {
			cfg.BatchTimeout = d.BatchTimeout
		}
		if cfg.MatrixPairLimit <= 0 {
			cfg.MatrixPairLimit = d.MatrixPairLimit
		}
		if cfg.ProviderCooldown <= 0 {
			cfg.ProviderCooldown = d.ProviderCooldown
		}
		e.cfg = cfg
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(e *Estimator) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithClock replaces time.Now, used for cooldown tests
func WithClock(now func() time.Time) Option {
	return func(e *Estimator) { e.now = now }
}

// NewEstimator creates an estimator over an injected cache
func NewEstimator(cache *MemoryCache, opts ...Option) *Estimator {
	if cache == nil {
		cache = NewMemoryCache(DefaultCacheCapacity)
	}
	e := &Estimator{
		cache:  cache,
		cfg:    DefaultEstimatorConfig(),
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With(zap.String("component", "estimator"))

	limit := rate.Inf
	if e.cfg.MinInterval > 0 {
		limit = rate.Every(e.cfg.MinInterval)
	}
	e.limiter = rate.NewLimiter(limit, 1)

	return e
}

// HasProvider reports whether a routing provider is configured
func (e *Estimator) HasProvider() bool {
	return e.provider != nil
}

// ProviderAvailable reports whether a provider is configured and not cooling down
func (e *Estimator) ProviderAvailable() bool {
	return e.provider != nil && !e.inCooldown()
}

// HasStore reports whether a persistent tier is configured
func (e *Estimator) HasStore() bool {
	return e.store != nil
}

// Estimate returns the travel estimate from origin to dest
func (e *Estimator) Estimate(ctx context.Context, origin, dest models.Coordinates, mode models.TravelMode) (Estimate, error) {
	if err := checkCoordinates(origin, dest); err != nil {
		return Estimate{}, err
	}
	mode = mode.OrDefault()

	if origin.Rounded() == dest.Rounded() {
		return Estimate{}, nil
	}

	key := MakeCacheKey(origin, dest, mode)
	if est, ok := e.lookup(ctx, key, origin, dest, mode); ok {
		return est, nil
	}

	if e.providerUsable(ctx) {
		legs, err := e.callProvider(ctx, "single",
			[]models.Coordinates{origin}, []models.Coordinates{dest}, mode, e.cfg.SingleTimeout)
		if err == nil {
			est := Estimate{DistanceKm: legs[0][0].DistanceKm, DurationMin: legs[0][0].DurationMin}
			e.remember(key, est)
			e.persist(ctx, []models.DistanceCacheEntry{cacheEntry(origin, dest, mode, est)})
			return est, nil
		}
	}

	est := FallbackEstimate(origin, dest, mode)
	metrics.FallbackEstimates.Inc()
	if e.provider != nil && ctx.Err() != nil {
		// the caller gave up; the provider may still answer the next request
		return est, nil
	}
	e.remember(key, est)
	return est, nil
}

type cellRef struct {
	i, j int
}

// EstimateMatrix returns estimates for every origin×destination pair. Result rows
// follow origins and columns follow destinations.
func (e *Estimator) EstimateMatrix(ctx context.Context, origins, destinations []models.Coordinates, mode models.TravelMode) ([][]Estimate, error) {
	if err := checkCoordinates(origins...); err != nil {
		return nil, err
	}
	if err := checkCoordinates(destinations...); err != nil {
		return nil, err
	}
	mode = mode.OrDefault()

	result := make([][]Estimate, len(origins))
	var missing []cellRef
	for i, o := range origins {
		result[i] = make([]Estimate, len(destinations))
		for j, d := range destinations {
			if o.Rounded() == d.Rounded() {
				continue
			}
			if est, ok := e.lookup(ctx, MakeCacheKey(o, d, mode), o, d, mode); ok {
				result[i][j] = est
				continue
			}
			missing = append(missing, cellRef{i, j})
		}
	}

	resolved := 0
	for _, chunk := range chunkCells(missing, e.cfg.MatrixPairLimit, e.coordinateLimit()) {
		if !e.providerUsable(ctx) {
			break
		}
		if err := e.fillChunk(ctx, origins, destinations, mode, chunk, result); err != nil {
			break
		}
		resolved += len(chunk)
	}
	missing = missing[resolved:]

	for _, c := range missing {
		est, err := e.Estimate(ctx, origins[c.i], destinations[c.j], mode)
		if err != nil {
			return nil, err
		}
		result[c.i][c.j] = est
	}

	return result, nil
}

// chunkCells splits cells, keeping their order, into runs of at most pairLimit
// cells whose distinct origins plus destinations stay within coordLimit (0 means no cap)
func chunkCells(cells []cellRef, pairLimit, coordLimit int) [][]cellRef {
	var chunks [][]cellRef
	start := 0
	rows, cols := make(map[int]bool), make(map[int]bool)
	for k, c := range cells {
		coords := len(rows) + len(cols)
		if !rows[c.i] {
			coords++
		}
		if !cols[c.j] {
			coords++
		}
		if k > start && (k-start >= pairLimit || (coordLimit > 0 && coords > coordLimit)) {
			chunks = append(chunks, cells[start:k])
			start = k
			rows, cols = make(map[int]bool), make(map[int]bool)
		}
		rows[c.i] = true
		cols[c.j] = true
	}
	if start < len(cells) {
		chunks = append(chunks, cells[start:])
	}
	return chunks
}

func (e *Estimator) coordinateLimit() int {
	if l, ok := e.provider.(CoordinateLimiter); ok {
		return l.MaxCoordinates()
	}
	return 0
}

// fillChunk resolves a set of cells with one provider matrix call over their distinct endpoints
func (e *Estimator) fillChunk(ctx context.Context, origins, destinations []models.Coordinates, mode models.TravelMode, chunk []cellRef, result [][]Estimate) error {
	rowIdx := make(map[int]int)
	colIdx := make(map[int]int)
	var subOrigins, subDests []models.Coordinates
	for _, c := range chunk {
		if _, ok := rowIdx[c.i]; !ok {
			rowIdx[c.i] = len(subOrigins)
			subOrigins = append(subOrigins, origins[c.i])
		}
		if _, ok := colIdx[c.j]; !ok {
			colIdx[c.j] = len(subDests)
			subDests = append(subDests, destinations[c.j])
		}
	}

	legs, err := e.callProvider(ctx, "matrix", subOrigins, subDests, mode, e.cfg.BatchTimeout)
	if err != nil {
		return err
	}

	entries := make([]models.DistanceCacheEntry, 0, len(chunk))
	for _, c := range chunk {
		leg := legs[rowIdx[c.i]][colIdx[c.j]]
		est := Estimate{DistanceKm: leg.DistanceKm, DurationMin: leg.DurationMin}
		result[c.i][c.j] = est
		e.remember(MakeCacheKey(origins[c.i], destinations[c.j], mode), est)
		entries = append(entries, cacheEntry(origins[c.i], destinations[c.j], mode, est))
	}
	e.persist(ctx, entries)

	return nil
}

// Prewarm fills the cache for every ordered pair of points
func (e *Estimator) Prewarm(ctx context.Context, points []models.Coordinates, mode models.TravelMode) error {
	if len(points) < 2 {
		return nil
	}
	_, err := e.EstimateMatrix(ctx, points, points, mode)
	return err
}

// ClearCache empties the memory cache and the persistent tier
func (e *Estimator) ClearCache(ctx context.Context) error {
	e.cache.Clear()
	if e.store != nil {
		if err := e.store.Clear(ctx); err != nil {
			return fmt.Errorf("failed to clear persistent distance cache: %w", err)
		}
	}
	e.logger.Info("distance cache cleared")
	return nil
}

// CacheStats returns in-memory cache counters
func (e *Estimator) CacheStats() CacheStats {
	return e.cache.Stats()
}

// PersistentEntries returns the number of rows in the persistent tier, 0 without one
func (e *Estimator) PersistentEntries(ctx context.Context) (int, error) {
	if e.store == nil {
		return 0, nil
	}
	return e.store.Count(ctx)
}

func (e *Estimator) lookup(ctx context.Context, key CacheKey, origin, dest models.Coordinates, mode models.TravelMode) (Estimate, bool) {
	if est, ok := e.cache.Get(key); ok {
		metrics.EstimatorCacheLookups.WithLabelValues("memory", "hit").Inc()
		return est, true
	}
	metrics.EstimatorCacheLookups.WithLabelValues("memory", "miss").Inc()

	if e.store == nil || ctx.Err() != nil {
		return Estimate{}, false
	}

	entry, err := e.store.Get(ctx, origin, dest, mode)
	if err != nil {
		e.logger.Warn("persistent cache lookup failed", zap.Error(err))
		return Estimate{}, false
	}
	if entry == nil {
		metrics.EstimatorCacheLookups.WithLabelValues("store", "miss").Inc()
		return Estimate{}, false
	}
	metrics.EstimatorCacheLookups.WithLabelValues("store", "hit").Inc()

	est := Estimate{DistanceKm: entry.DistanceKm, DurationMin: entry.DurationMin}
	e.remember(key, est)
	return est, true
}

func (e *Estimator) remember(key CacheKey, est Estimate) {
	if evicted := e.cache.Set(key, est); evicted > 0 {
		metrics.EstimatorCacheEvictions.Add(float64(evicted))
	}
}

func (e *Estimator) persist(ctx context.Context, entries []models.DistanceCacheEntry) {
	if e.store == nil || len(entries) == 0 {
		return
	}

	var err error
	if len(entries) == 1 {
		err = e.store.Set(ctx, &entries[0])
	} else {
		err = e.store.SetBatch(ctx, entries)
	}
	if err != nil {
		e.logger.Warn("failed to persist provider results", zap.Int("entries", len(entries)), zap.Error(err))
	}
}

func (e *Estimator) providerUsable(ctx context.Context) bool {
	return e.provider != nil && ctx.Err() == nil && !e.inCooldown()
}

func (e *Estimator) inCooldown() bool {
	return e.now().UnixNano() < e.downUntil.Load()
}

// callProvider runs one rate-limited, time-bounded provider request. A failure
// that is not the caller's own cancellation opens the cooldown window.
func (e *Estimator) callProvider(ctx context.Context, kind string, origins, destinations []models.Coordinates, mode models.TravelMode, timeout time.Duration) ([][]Leg, error) {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := e.limiter.Wait(callCtx); err != nil {
		metrics.ProviderCalls.WithLabelValues(kind, "skipped").Inc()
		return nil, err
	}

	legs, err := e.provider.Matrix(callCtx, origins, destinations, mode)
	if err == nil {
		err = checkShape(legs, len(origins), len(destinations))
	}
	if err != nil {
		if ctx.Err() != nil {
			metrics.ProviderCalls.WithLabelValues(kind, "cancelled").Inc()
			return nil, err
		}
		until := e.now().Add(e.cfg.ProviderCooldown)
		e.downUntil.Store(until.UnixNano())
		metrics.ProviderCalls.WithLabelValues(kind, "failure").Inc()
		e.logger.Warn("routing provider failed, using fallback estimates",
			zap.String("kind", kind),
			zap.Int("origins", len(origins)),
			zap.Int("destinations", len(destinations)),
			zap.Time("cooldown_until", until),
			zap.Error(err))
		return nil, err
	}

	metrics.ProviderCalls.WithLabelValues(kind, "success").Inc()
	return legs, nil
}

func checkShape(legs [][]Leg, rows, cols int) error {
	if len(legs) != rows {
		return &ErrProviderFailed{Provider: "matrix", Reason: fmt.Sprintf("got %d rows, want %d", len(legs), rows)}
	}
	for i := range legs {
		if len(legs[i]) != cols {
			return &ErrProviderFailed{Provider: "matrix", Reason: fmt.Sprintf("row %d has %d columns, want %d", i, len(legs[i]), cols)}
		}
	}
	return nil
}

func checkCoordinates(points ...models.Coordinates) error {
	for _, p := range points {
		if !p.Valid() {
			return fmt.Errorf("%w: (%v, %v)", ErrInvalidCoordinates, p.Lat, p.Lng)
		}
	}
	return nil
}

func cacheEntry(origin, dest models.Coordinates, mode models.TravelMode, est Estimate) models.DistanceCacheEntry {
	return models.DistanceCacheEntry{
		Origin:      origin.Rounded(),
		Destination: dest.Rounded(),
		Mode:        mode,
		DistanceKm:  est.DistanceKm,
		DurationMin: est.DurationMin,
	}
}
