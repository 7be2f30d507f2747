package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/dev0xiinko/don-8-sub001/internal/auth"
	"github.com/dev0xiinko/don-8-sub001/internal/chain"
	"github.com/dev0xiinko/don-8-sub001/internal/logger"
	"github.com/dev0xiinko/don-8-sub001/internal/notify"
	"github.com/dev0xiinko/don-8-sub001/internal/router"
	"github.com/dev0xiinko/don-8-sub001/internal/storage"
	"github.com/dev0xiinko/don-8-sub001/internal/task"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

// scheduledJob a job is only registered when its interval is positive
type scheduledJob struct {
	interval time.Duration
	job      task.Job
}

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and scheduled jobs",
		RunE:  serveRun,
	}
}

func serveRun(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.close()

	issuer, err := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return fmt.Errorf("auth.jwt_secret: %w", err)
	}
	reports, err := storage.NewReportStore(cfg.Cloudinary)
	if err != nil {
		return err
	}
	backup, err := notify.NewMongoBackup(ctx, cfg.Backup)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := backup.Close(closeCtx); err != nil {
			logger.Error("Failed to close backup store: %v", err)
		}
	}()
	email := notify.NewEmailSender(cfg.Email)
	logger.Info("Collaborators: email=%t backup=%t reports=%t", email.Enabled(), backup.Enabled(), reports.Enabled())

	dispatcher, err := notify.NewDispatcher(a.outbox, email, backup, cfg.Outbox)
	if err != nil {
		return err
	}
	defer dispatcher.Release()

	if counts, err := a.outbox.Counts(ctx); err == nil {
		logger.Info("Outbox backlog: %v", counts)
	}

	manager, err := task.NewTaskManager(cfg.Task.Timeout)
	if err != nil {
		return err
	}
	jobs := []scheduledJob{
		{cfg.Task.SyncInterval, task.NewCampaignSyncJob(a.sync, cfg.Task.SyncInterval)},
		{cfg.Task.StatusInterval, task.NewCampaignStatusJob(a.campaigns, cfg.Task.StatusInterval)},
		{cfg.Task.OutboxInterval, task.NewOutboxDispatchJob(dispatcher, cfg.Task.OutboxInterval)},
	}
	if cfg.Chain.RPCURL != "" {
		client, err := chain.Dial(ctx, cfg.Chain.RPCURL)
		if err != nil {
			return err
		}
		defer client.Close()
		logger.Info("Connected to chain %s", client.ChainID())
		confirmer := chain.NewConfirmer(client, a.donations, cfg.Chain.MinAge, cfg.Chain.ConfirmBatch)
		jobs = append(jobs, scheduledJob{cfg.Task.ConfirmInterval, task.NewDonationConfirmJob(confirmer, cfg.Task.ConfirmInterval)})
	}
	for _, j := range jobs {
		if j.interval <= 0 {
			logger.Info("Job %s disabled", j.job.GetName())
			continue
		}
		if err := manager.Register(j.job); err != nil {
			return err
		}
	}

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := router.Setup(router.Deps{
		Config:       cfg,
		Campaigns:    a.campaigns,
		Donations:    a.donations,
		Withdrawals:  a.withdrawals,
		Applications: a.applications,
		Sync:         a.sync,
		Issuer:       issuer,
		Uploader:     reports,
	})
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	manager.Start()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		if stopErr := manager.Stop(); stopErr != nil {
			logger.Error("%v", stopErr)
		}
		return err
	})
	return g.Wait()
}
