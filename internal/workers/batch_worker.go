package workers

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"howfar/backend/internal/constants"
	"howfar/backend/internal/logging"
	"howfar/backend/internal/metrics"
	"howfar/backend/internal/models/entities"
	"howfar/backend/internal/spatial"
)

// BatchStore is the slice of the cache store the orchestrator writes through.
type BatchStore interface {
	GetPending(ctx context.Context, key entities.CacheKey, priorityRegions []string, staleHorizon time.Duration, limit int) ([]entities.Intersection, error)
	MarkProcessing(ctx context.Context, intersectionID int64, key entities.CacheKey) error
	MarkCompleted(ctx context.Context, intersectionID int64, key entities.CacheKey) error
	MarkFailed(ctx context.Context, intersectionID int64, key entities.CacheKey, reason string) error
	CachedOriginCount(ctx context.Context, key entities.CacheKey) (int64, error)
}

// IsochroneStore persists band sets.
type IsochroneStore interface {
	SaveIsochrone(ctx context.Context, originID int64, key entities.CacheKey, bands map[int]json.RawMessage) error
}

// IsochroneClient computes bands against one routing worker.
type IsochroneClient interface {
	ComputeIsochrones(ctx context.Context, workerURL string, lat, lng float64, key entities.CacheKey, cutoffs []int) (map[int]json.RawMessage, error)
}

// WorkerDirectory maps an origin index to its routing worker.
type WorkerDirectory interface {
	Worker(i int) string
	Size() int
}

// BatchWorker drives isochrone computation over pending origins. Origin i of
// a batch goes to worker i mod N so re-runs keep each origin on the same
// worker and its routing caches warm.
type BatchWorker struct {
	store    BatchStore
	bands    IsochroneStore
	client   IsochroneClient
	fleet    WorkerDirectory
	cutoffs  []int
	registry *metrics.MetricsRegistry
}

// BatchConfig carries the orchestrator knobs for one run.
type BatchConfig struct {
	Parallelism     int
	BatchSize       int
	MaxBatches      int
	StaleHorizon    time.Duration
	PriorityRegions []string
}

// BatchResult aggregates one batch's outcome counters.
type BatchResult struct {
	Selected  int
	Completed int
	Failed    int
}

func NewBatchWorker(
	store BatchStore,
	bands IsochroneStore,
	client IsochroneClient,
	fleet WorkerDirectory,
	cutoffs []int,
	registry *metrics.MetricsRegistry,
) *BatchWorker {
	return &BatchWorker{
		store:    store,
		bands:    bands,
		client:   client,
		fleet:    fleet,
		cutoffs:  cutoffs,
		registry: registry,
	}
}

// maxCutoff returns the largest configured cutoff, the band whose emptiness
// marks a truncated search.
func (w *BatchWorker) maxCutoff() int {
	max := 0
	for _, c := range w.cutoffs {
		if c > max {
			max = c
		}
	}
	return max
}

// RunBatch selects one batch of pending origins and processes them through a
// fixed pool of cfg.Parallelism goroutines. It returns the batch counters;
// a zero Selected means the queue is drained.
func (w *BatchWorker) RunBatch(ctx context.Context, key entities.CacheKey, cfg BatchConfig) (BatchResult, error) {
	pending, err := w.store.GetPending(ctx, key, cfg.PriorityRegions, cfg.StaleHorizon, cfg.BatchSize)
	if err != nil {
		return BatchResult{}, err
	}
	result := BatchResult{Selected: len(pending)}
	if len(pending) == 0 {
		return result, nil
	}

	type assignment struct {
		origin entities.Intersection
		worker string
	}

	jobs := make(chan assignment)
	var completed, failed int64
	var mu sync.Mutex
	var wg sync.WaitGroup

	parallelism := cfg.Parallelism
	if parallelism < 1 {
		parallelism = 1
	}

	for p := 0; p < parallelism; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				ok := w.processOrigin(ctx, job.origin, job.worker, key)
				mu.Lock()
				if ok {
					completed++
				} else {
					failed++
				}
				mu.Unlock()
			}
		}()
	}

	for i, origin := range pending {
		jobs <- assignment{origin: origin, worker: w.fleet.Worker(i)}
	}
	close(jobs)
	wg.Wait()

	result.Completed = int(completed)
	result.Failed = int(failed)
	return result, nil
}

// processOrigin runs the full state machine for one origin: processing, the
// routing call, the truncation check on the largest band, the band save, and
// the final status. Routing, truncation and save failures land in failed with
// a reason; a failed processing or completed status write is only logged and
// leaves the row as it was. The error never propagates past the task.
func (w *BatchWorker) processOrigin(ctx context.Context, origin entities.Intersection, workerURL string, key entities.CacheKey) bool {
	log := logging.WithBatch(key.Mode, key.DepartureTime, key.DayType)

	if err := w.store.MarkProcessing(ctx, origin.ID, key); err != nil {
		log.Errorw("failed to mark origin processing", "origin_id", origin.ID, "error", err)
		return false
	}

	start := time.Now()
	bands, err := w.client.ComputeIsochrones(ctx, workerURL, origin.Lat, origin.Lng, key, w.cutoffs)
	if w.registry != nil {
		w.registry.RoutingDuration.WithLabelValues(key.Mode).Observe(time.Since(start).Seconds())
	}
	if err != nil {
		w.countRouting(key.Mode, "failed")
		w.countOutcome(key.Mode, "failed")
		log.Warnw("routing request failed", "origin_id", origin.ID, "worker", workerURL, "error", err)
		w.markFailed(ctx, origin.ID, key, err.Error())
		return false
	}
	w.countRouting(key.Mode, "success")

	if truncated(bands, w.maxCutoff()) {
		w.countOutcome(key.Mode, "empty")
		log.Warnw("empty isochrone, search truncated", "origin_id", origin.ID)
		w.markFailed(ctx, origin.ID, key, constants.ErrMsgEmptyIsochrone)
		return false
	}

	if err := w.bands.SaveIsochrone(ctx, origin.ID, key, bands); err != nil {
		w.countOutcome(key.Mode, "failed")
		log.Errorw("failed to save isochrone bands", "origin_id", origin.ID, "error", err)
		w.markFailed(ctx, origin.ID, key, err.Error())
		return false
	}
	if w.registry != nil {
		w.registry.BandsSavedTotal.Add(float64(len(bands)))
	}

	if err := w.store.MarkCompleted(ctx, origin.ID, key); err != nil {
		w.countOutcome(key.Mode, "failed")
		log.Errorw("failed to mark origin completed", "origin_id", origin.ID, "error", err)
		return false
	}

	w.countOutcome(key.Mode, "completed")
	return true
}

// truncated reports whether the largest cutoff band is missing or carries no
// coordinates. A search that cannot reach anything by the largest cutoff
// produced nothing worth caching.
func truncated(bands map[int]json.RawMessage, maxCutoff int) bool {
	raw, ok := bands[maxCutoff]
	if !ok {
		return true
	}
	var geom spatial.Geometry
	if err := json.Unmarshal(raw, &geom); err != nil {
		return true
	}
	return geom.IsEmpty()
}

// markFailed records the failure, logging but swallowing a failed status
// write. The processing row left behind becomes selectable again after the
// stale horizon.
func (w *BatchWorker) markFailed(ctx context.Context, originID int64, key entities.CacheKey, reason string) {
	if err := w.store.MarkFailed(ctx, originID, key, reason); err != nil {
		logging.Error("failed to record batch failure",
			"origin_id", originID, "key", key.String(), "error", err)
	}
}

func (w *BatchWorker) countOutcome(mode, outcome string) {
	if w.registry != nil {
		w.registry.OriginsProcessedTotal.WithLabelValues(mode, outcome).Inc()
	}
}

func (w *BatchWorker) countRouting(mode, outcome string) {
	if w.registry != nil {
		w.registry.RoutingRequestsTotal.WithLabelValues(mode, outcome).Inc()
	}
}

// Progress is the per-batch progress line data for the CLI driver.
type Progress struct {
	Batch     int
	Cached    int64
	Total     int64
	Delta     int64
	PerSecond float64
	Remaining int64
}

// RunLoop drives RunBatch until the pending queue drains or cfg.MaxBatches
// elapses. onProgress, when non-nil, is called after every batch.
func (w *BatchWorker) RunLoop(
	ctx context.Context,
	key entities.CacheKey,
	cfg BatchConfig,
	total int64,
	onProgress func(Progress),
) error {
	before, err := w.store.CachedOriginCount(ctx, key)
	if err != nil {
		return err
	}

	for batch := 1; cfg.MaxBatches <= 0 || batch <= cfg.MaxBatches; batch++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		start := time.Now()
		result, err := w.RunBatch(ctx, key, cfg)
		if err != nil {
			return err
		}
		if result.Selected == 0 {
			logging.Info("pending queue drained", "key", key.String(), "batches", batch-1)
			return nil
		}

		after, err := w.store.CachedOriginCount(ctx, key)
		if err != nil {
			return err
		}
		elapsed := time.Since(start).Seconds()
		delta := after - before
		before = after

		if onProgress != nil {
			perSecond := 0.0
			if elapsed > 0 {
				perSecond = float64(result.Completed) / elapsed
			}
			onProgress(Progress{
				Batch:     batch,
				Cached:    after,
				Total:     total,
				Delta:     delta,
				PerSecond: perSecond,
				Remaining: total - after,
			})
		}
	}
	return nil
}
