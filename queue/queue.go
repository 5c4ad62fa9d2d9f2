package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"honors/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Handler processes one job payload. A nil return completes the job; an
// error sends it back for retry until the attempt budget runs out.
type Handler func(ctx context.Context, payload []byte) error

const fetchBatchSize = 20

type registration struct {
	handler     Handler
	concurrency int
	jobs        chan uint
}

// Queue is a durable at-least-once job queue backed by the jobs table.
// One handler is registered per job type with its own bounded worker pool.
type Queue struct {
	db           *gorm.DB
	pollInterval time.Duration
	maxAttempts  int

	mu       sync.Mutex
	handlers map[string]*registration
	started  bool

	stop     chan struct{}
	loopWg   sync.WaitGroup
	workerWg sync.WaitGroup
}

// New creates a queue on the given database handle. maxAttempts bounds
// retries for jobs enqueued through this queue.
func New(db *gorm.DB, pollInterval time.Duration, maxAttempts int) *Queue {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Queue{
		db:           db,
		pollInterval: pollInterval,
		maxAttempts:  maxAttempts,
		handlers:     make(map[string]*registration),
		stop:         make(chan struct{}),
	}
}

// Register wires a handler for jobType with the given worker concurrency.
// Must be called before Start.
func (q *Queue) Register(jobType string, concurrency int, handler Handler) {
	if concurrency < 1 {
		concurrency = 1
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		log.Printf("[QUEUE] Register(%s) after Start ignored", jobType)
		return
	}
	q.handlers[jobType] = &registration{
		handler:     handler,
		concurrency: concurrency,
		jobs:        make(chan uint, concurrency),
	}
}

// Enqueue persists a job due immediately and returns without waiting.
func (q *Queue) Enqueue(jobType string, payload interface{}) (*models.Job, error) {
	return q.EnqueueAt(jobType, payload, time.Now())
}

// EnqueueAt persists a job due at runAt.
func (q *Queue) EnqueueAt(jobType string, payload interface{}, runAt time.Time) (*models.Job, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal job payload: %w", err)
	}
	job := models.Job{
		Type:        jobType,
		Payload:     datatypes.JSON(body),
		Status:      models.JobStatusQueued,
		RunAt:       runAt,
		MaxAttempts: q.maxAttempts,
	}
	if err := q.db.Create(&job).Error; err != nil {
		return nil, fmt.Errorf("persist job: %w", err)
	}
	return &job, nil
}

// Start recovers orphaned jobs, launches the worker pools, and begins
// dispatching due jobs.
func (q *Queue) Start() {
	q.mu.Lock()
	if q.started {
		q.mu.Unlock()
		return
	}
	q.started = true
	regs := make(map[string]*registration, len(q.handlers))
	for t, r := range q.handlers {
		regs[t] = r
	}
	q.mu.Unlock()

	q.requeueStale()

	for jobType, reg := range regs {
		for i := 0; i < reg.concurrency; i++ {
			q.workerWg.Add(1)
			go q.worker(jobType, reg)
		}
	}

	q.loopWg.Add(1)
	go q.dispatchLoop(regs)
	log.Printf("[QUEUE] Started with %d job type(s), poll interval %s", len(regs), q.pollInterval)
}

// Stop halts dispatching and waits for in-flight handlers to finish.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.started {
		q.mu.Unlock()
		return
	}
	q.mu.Unlock()

	close(q.stop)
	q.loopWg.Wait()
	for _, reg := range q.handlers {
		close(reg.jobs)
	}
	q.workerWg.Wait()
	log.Println("[QUEUE] Stopped")
}

// requeueStale flips jobs stranded in running (a crash between claim and
// completion) back to queued. The interrupted run still counts against the
// attempt budget; this is what makes delivery at-least-once.
func (q *Queue) requeueStale() {
	res := q.db.Model(&models.Job{}).
		Where("status = ?", models.JobStatusRunning).
		Updates(map[string]interface{}{"status": models.JobStatusQueued, "run_at": time.Now()})
	if res.Error != nil {
		log.Printf("[QUEUE] Error requeueing stale jobs: %v", res.Error)
		return
	}
	if res.RowsAffected > 0 {
		log.Printf("[QUEUE] Requeued %d stale running job(s)", res.RowsAffected)
	}
}

func (q *Queue) dispatchLoop(regs map[string]*registration) {
	defer q.loopWg.Done()
	ticker := time.NewTicker(q.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-q.stop:
			return
		case <-ticker.C:
			q.dispatchDue(regs)
		}
	}
}

// dispatchDue claims due jobs and hands them to their worker pools. Each
// type only fetches as many jobs as its pool has free slots, so a busy
// handler leaves its backlog queued instead of hoarding claims.
func (q *Queue) dispatchDue(regs map[string]*registration) {
	for jobType, reg := range regs {
		free := cap(reg.jobs) - len(reg.jobs)
		if free == 0 {
			continue
		}
		limit := free
		if limit > fetchBatchSize {
			limit = fetchBatchSize
		}

		var due []models.Job
		err := q.db.Where("type = ? AND status = ? AND run_at <= ?", jobType, models.JobStatusQueued, time.Now()).
			Order("run_at").
			Limit(limit).
			Find(&due).Error
		if err != nil {
			log.Printf("[QUEUE] Error fetching due %s jobs: %v", jobType, err)
			continue
		}

		for _, job := range due {
			if !q.claim(job.ID) {
				continue // another dispatcher won
			}
			select {
			case reg.jobs <- job.ID:
			case <-q.stop:
				// shutting down mid-claim; startup recovery will requeue
				return
			}
		}
	}
}

// claim moves a job from queued to running, consuming one attempt. The
// status guard makes the claim exclusive without database-specific locking.
func (q *Queue) claim(jobID uint) bool {
	now := time.Now()
	res := q.db.Model(&models.Job{}).
		Where("id = ? AND status = ?", jobID, models.JobStatusQueued).
		Updates(map[string]interface{}{
			"status":     models.JobStatusRunning,
			"started_at": now,
			"attempts":   gorm.Expr("attempts + 1"),
		})
	if res.Error != nil {
		log.Printf("[QUEUE] Error claiming job %d: %v", jobID, res.Error)
		return false
	}
	return res.RowsAffected == 1
}

func (q *Queue) worker(jobType string, reg *registration) {
	defer q.workerWg.Done()
	for jobID := range reg.jobs {
		q.runJob(jobType, reg, jobID)
	}
}

func (q *Queue) runJob(jobType string, reg *registration, jobID uint) {
	var job models.Job
	if err := q.db.First(&job, jobID).Error; err != nil {
		log.Printf("[QUEUE] Claimed %s job %d vanished: %v", jobType, jobID, err)
		return
	}

	err := q.invoke(reg.handler, job.Payload)
	now := time.Now()
	if err == nil {
		// A failed transition strands the job in running until the next
		// startup recovery; log it so that is diagnosable.
		if dbErr := q.db.Model(&models.Job{}).Where("id = ?", jobID).
			Updates(map[string]interface{}{"status": models.JobStatusCompleted, "finished_at": now}).Error; dbErr != nil {
			log.Printf("[QUEUE] Error marking job %d completed: %v", jobID, dbErr)
		}
		return
	}

	if job.Attempts < job.MaxAttempts {
		retryAt := now.Add(backoff(job.Attempts))
		log.Printf("[QUEUE] Job %d (%s) attempt %d/%d failed: %v - retrying at %s",
			jobID, jobType, job.Attempts, job.MaxAttempts, err, retryAt.Format(time.RFC3339))
		if dbErr := q.db.Model(&models.Job{}).Where("id = ?", jobID).
			Updates(map[string]interface{}{
				"status":     models.JobStatusQueued,
				"run_at":     retryAt,
				"last_error": err.Error(),
			}).Error; dbErr != nil {
			log.Printf("[QUEUE] Error requeueing job %d: %v", jobID, dbErr)
		}
		return
	}

	log.Printf("[QUEUE] Job %d (%s) failed permanently after %d attempt(s): %v", jobID, jobType, job.Attempts, err)
	if dbErr := q.db.Model(&models.Job{}).Where("id = ?", jobID).
		Updates(map[string]interface{}{
			"status":      models.JobStatusFailed,
			"finished_at": now,
			"last_error":  err.Error(),
		}).Error; dbErr != nil {
		log.Printf("[QUEUE] Error marking job %d failed: %v", jobID, dbErr)
	}
}

// invoke runs the handler, turning panics into job errors so one bad job
// never takes a worker down.
func (q *Queue) invoke(h Handler, payload []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h(context.Background(), payload)
}

// backoff returns the delay before retry number attempts+1. Linear rather
// than exponential: render jobs are heavyweight but quick to fail, and the
// attempt budget is small.
var backoff = func(attempts int) time.Duration {
	return time.Duration(attempts) * 30 * time.Second
}
