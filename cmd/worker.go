package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/KinzixInfotech/edutemp-sub018/internal/core/events"
	"github.com/KinzixInfotech/edutemp-sub018/internal/payment"
	paymentpostgres "github.com/KinzixInfotech/edutemp-sub018/internal/payment/postgres"
	"github.com/KinzixInfotech/edutemp-sub018/internal/reconciler"
	"github.com/KinzixInfotech/edutemp-sub018/pkg/logger"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start background workers",
	Long:  `Start and manage background workers such as the pending payment reconciler.`,
}

var reconcileWorkerCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Start the pending payment reconciler",
	Long:  `Sweep payments stuck in PENDING past the gateway timeout and mark them FAILED.`,
	Run: func(cmd *cobra.Command, args []string) {
		startReconcileWorker()
	},
}

var (
	maxWorkers   int
	jobQueueSize int
)

func startReconcileWorker() {
	config, err := loadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	lg := logger.LoggerWrapper()

	db, err := initDB(config.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize database: %v\n", err)
		os.Exit(1)
	}

	gormDB, err := initGorm(db)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize orm: %v\n", err)
		os.Exit(1)
	}

	eventBus := events.NewEventBus(lg)
	payment.NewEventHandler(nil, lg).RegisterEventHandlers(eventBus)

	reconcilerConfig := reconciler.Config{
		PendingTimeout: config.Payment.PendingTimeout,
		SweepInterval:  config.Payment.SweepInterval,
		MaxWorkers:     getIntFlag(maxWorkers, config.Payment.MaxWorkers),
		JobQueueSize:   getIntFlag(jobQueueSize, config.Payment.JobQueueSize),
	}

	lg.Info("starting payment reconciler",
		"max_workers", reconcilerConfig.MaxWorkers,
		"job_queue_size", reconcilerConfig.JobQueueSize,
		"pending_timeout", config.Payment.PendingTimeout,
		"sweep_interval", config.Payment.SweepInterval)

	worker := reconciler.New(reconcilerConfig, paymentpostgres.NewPaymentRepository(gormDB), eventBus, lg)
	worker.Start()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	lg.Info("payment reconciler is running. Press Ctrl+C to stop.")

	sig := <-sigChan
	lg.Info("received signal, shutting down reconciler", "signal", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	shutdownDone := make(chan struct{})
	go func() {
		worker.Shutdown()
		close(shutdownDone)
	}()

	select {
	case <-shutdownDone:
		lg.Info("reconciler shutdown complete")
	case <-ctx.Done():
		lg.Warn("shutdown timeout reached, forcing exit")
	}

	if err := db.Close(); err != nil {
		lg.Error("database close error", "error", err)
	}
}

func getIntFlag(flagValue, configValue int) int {
	if flagValue > 0 {
		return flagValue
	}
	return configValue
}

func init() {
	reconcileWorkerCmd.Flags().IntVar(&maxWorkers, "max-workers", 0, "number of reconciler workers")
	reconcileWorkerCmd.Flags().IntVar(&jobQueueSize, "job-queue-size", 0, "reconciler job queue size")

	workerCmd.AddCommand(reconcileWorkerCmd)
}
