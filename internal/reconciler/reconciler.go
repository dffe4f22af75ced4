package reconciler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	paymentmodel "github.com/KinzixInfotech/edutemp-sub018/internal/core/datamodel/payment"
	"github.com/KinzixInfotech/edutemp-sub018/internal/core/events"
	paymentpkg "github.com/KinzixInfotech/edutemp-sub018/internal/payment"
)

// sweepBatchSize caps how many stale payments one sweep picks up.
const sweepBatchSize = 200

type ExpireJob struct {
	PaymentID      int64
	GatewayOrderID string
}

type Worker struct {
	ID         int
	WorkerPool chan chan ExpireJob
	JobChannel chan ExpireJob
	Logger     *slog.Logger
}

func NewWorker(id int, workerPool chan chan ExpireJob, logger *slog.Logger) *Worker {
	return &Worker{
		ID:         id,
		WorkerPool: workerPool,
		JobChannel: make(chan ExpireJob),
		Logger:     logger,
	}
}

func (w *Worker) Start(ctx context.Context, wg *sync.WaitGroup, processFunc func(ExpireJob)) {
	wg.Add(1)
	go func() {
		defer wg.Done()

		for {

			w.WorkerPool <- w.JobChannel

			select {
			case job := <-w.JobChannel:
				w.Logger.Debug("worker expiring payment", "worker_id", w.ID, "order_id", job.GatewayOrderID)
				processFunc(job)
			case <-ctx.Done():
				w.Logger.Debug("worker shutting down", "worker_id", w.ID)
				return
			}
		}
	}()
}

type Config struct {
	PendingTimeout time.Duration
	SweepInterval  time.Duration
	MaxWorkers     int
	JobQueueSize   int
}

// Reconciler sweeps payments stuck in PENDING past the gateway timeout
// and fails them. The conditional transition in the repository keeps a
// racing late callback safe: whichever side lands first wins, the other
// becomes a no-op.
type Reconciler struct {
	repo           paymentpkg.RepositoryAPI
	eventBus       *events.EventBus
	pendingTimeout time.Duration
	sweepInterval  time.Duration
	logger         *slog.Logger

	jobQueue   chan ExpireJob
	workerPool chan chan ExpireJob
	maxWorkers int
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	once       sync.Once
}

func New(config Config, repo paymentpkg.RepositoryAPI, eventBus *events.EventBus, logger *slog.Logger) *Reconciler {
	ctx, cancel := context.WithCancel(context.Background())

	maxWorkers := config.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 4
	}
	jobQueueSize := config.JobQueueSize
	if jobQueueSize <= 0 {
		jobQueueSize = 100
	}
	pendingTimeout := config.PendingTimeout
	if pendingTimeout <= 0 {
		pendingTimeout = 30 * time.Minute
	}
	sweepInterval := config.SweepInterval
	if sweepInterval <= 0 {
		sweepInterval = 5 * time.Minute
	}

	return &Reconciler{
		repo:           repo,
		eventBus:       eventBus,
		pendingTimeout: pendingTimeout,
		sweepInterval:  sweepInterval,
		logger:         logger,

		maxWorkers: maxWorkers,
		jobQueue:   make(chan ExpireJob, jobQueueSize),
		workerPool: make(chan chan ExpireJob, maxWorkers),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start launches the worker pool and the sweep loop.
func (r *Reconciler) Start() {
	r.once.Do(func() {
		for i := 0; i < r.maxWorkers; i++ {
			worker := NewWorker(i, r.workerPool, r.logger)
			worker.Start(r.ctx, &r.wg, r.expirePayment)
		}

		go r.dispatch()
		go r.sweepLoop()

		r.logger.Info("payment reconciler started",
			"max_workers", r.maxWorkers,
			"pending_timeout", r.pendingTimeout,
			"sweep_interval", r.sweepInterval)
	})
}

func (r *Reconciler) dispatch() {
	r.wg.Add(1)
	defer r.wg.Done()

	for {
		select {
		case job := <-r.jobQueue:
			select {
			case jobChannel := <-r.workerPool:
				select {
				case jobChannel <- job:
				case <-r.ctx.Done():
					return
				}
			case <-r.ctx.Done():
				return
			}
		case <-r.ctx.Done():
			return
		}
	}
}

func (r *Reconciler) sweepLoop() {
	r.wg.Add(1)
	defer r.wg.Done()

	ticker := time.NewTicker(r.sweepInterval)
	defer ticker.Stop()

	// Run one sweep immediately so restarts do not wait a full interval.
	r.SweepOnce()

	for {
		select {
		case <-ticker.C:
			r.SweepOnce()
		case <-r.ctx.Done():
			return
		}
	}
}

// SweepOnce queues every payment stuck in PENDING past the timeout.
func (r *Reconciler) SweepOnce() {
	cutoff := time.Now().Add(-r.pendingTimeout)

	stale, err := r.repo.ListPendingBefore(cutoff, sweepBatchSize)
	if err != nil {
		r.logger.Error("failed to list stale pending payments", "error", err)
		return
	}
	if len(stale) == 0 {
		return
	}

	r.logger.Info("queueing stale pending payments", "count", len(stale), "cutoff", cutoff)

	for _, record := range stale {
		job := ExpireJob{PaymentID: record.ID, GatewayOrderID: record.GatewayOrderID}
		select {
		case r.jobQueue <- job:
		default:
			r.logger.Warn("reconciler queue full, deferring to next sweep",
				"order_id", record.GatewayOrderID,
				"queue_capacity", cap(r.jobQueue))
			return
		}
	}
}

func (r *Reconciler) expirePayment(job ExpireJob) {
	transitioned, err := r.repo.TransitionStatus(job.PaymentID, map[string]interface{}{
		"status":         paymentmodel.StatusFailed,
		"failure_reason": "expired",
	})
	if err != nil {
		r.logger.Error("failed to expire pending payment",
			"error", err,
			"payment_id", job.PaymentID,
			"order_id", job.GatewayOrderID)
		return
	}
	if !transitioned {
		// A callback landed between the sweep and the update.
		r.logger.Debug("payment already terminal, skipping",
			"payment_id", job.PaymentID,
			"order_id", job.GatewayOrderID)
		return
	}

	record, err := r.repo.GetByID(job.PaymentID)
	if err != nil {
		r.logger.Error("failed to reload expired payment", "error", err, "payment_id", job.PaymentID)
		return
	}

	r.logger.Info("expired stale pending payment",
		"payment_id", record.ID,
		"order_id", record.GatewayOrderID,
		"school_id", record.SchoolID)

	if r.eventBus != nil {
		event := events.NewPaymentFailedEvent(record.ID, record.StudentFeeID, record.SchoolID,
			record.GatewayOrderID, record.Amount, "expired")
		r.eventBus.Publish(r.ctx, event)
	}
}

// Shutdown stops the sweep loop and waits for in-flight jobs.
func (r *Reconciler) Shutdown() {
	r.logger.Info("shutting down payment reconciler")
	r.cancel()
	r.wg.Wait()
	r.logger.Info("payment reconciler shutdown complete")
}
