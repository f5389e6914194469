package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukerupert/wg/internal/backup"
	"github.com/dukerupert/wg/internal/clock"
	"github.com/dukerupert/wg/internal/config"
	"github.com/dukerupert/wg/internal/database"
	"github.com/dukerupert/wg/internal/email"
	"github.com/dukerupert/wg/internal/logging"
	"github.com/dukerupert/wg/internal/metrics"
	"github.com/dukerupert/wg/internal/notify"
	"github.com/dukerupert/wg/internal/push"
	"github.com/dukerupert/wg/internal/server"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "generate-vapid-keys" {
		pub, priv, err := push.GenerateVAPIDKeys()
		if err != nil {
			fmt.Fprintf(os.Stderr, "generate VAPID keys: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("WG_VAPID_PUBLIC_KEY=%s\nWG_VAPID_PRIVATE_KEY=%s\n", pub, priv)
		return
	}

	cfg, err := config.Load(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	if len(os.Args) > 1 {
		if err := runBackupCommand(cfg, os.Args[1:], logger); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		return
	}

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	m := metrics.New()

	var pushSvc *push.Service
	if cfg.Push.Enabled() {
		pushSvc = push.NewService(cfg.Push.PublicKey, cfg.Push.PrivateKey, cfg.Push.Subscriber)
	}

	srv := server.New(db, server.Config{
		BaseURL:    cfg.BaseURL,
		SessionTTL: cfg.SessionTTL.Duration,
		Clock:      clock.System,
		Metrics:    m,
		Push:       pushSvc,
	}, logger)

	admin, password, err := srv.AuthManager().EnsureAdmin()
	if err != nil {
		slog.Error("failed to create admin user", "error", err)
		os.Exit(1)
	}
	if admin != nil {
		fmt.Printf("Created admin user %q with password %s\n", admin.Email, password)
	}

	var scheduler *notify.Scheduler
	if cfg.LowScore.Enabled {
		var notifiers []notify.Notifier
		if cfg.Email.Enabled() {
			notifiers = append(notifiers, notify.NewEmailNotifier(email.NewClient(cfg.Email.PostmarkToken, cfg.Email.FromEmail, cfg.BaseURL)))
		}
		if pushSvc != nil {
			notifiers = append(notifiers, notify.NewPushNotifier(pushSvc, srv.PushStore(), logger.With("component", "push")))
		}
		if len(notifiers) == 0 {
			slog.Warn("low score notifications enabled without email or push configured")
		}
		job := notify.NewJob(srv.ChoreListStore(), srv.Scoring(), srv.UserStore(), srv.PushStore(),
			notifiers, cfg.LowScore.Ratio, clock.System, m, logger.With("component", "notify"))
		scheduler = notify.NewScheduler(job, srv.PushStore(), cfg.LowScore.Interval.Duration, clock.System, logger.With("component", "scheduler"))
	}

	var backupSched *notify.Scheduler
	if cfg.Backup.Enabled() {
		mgr := newBackupManager(cfg, db, logger, backup.WithMetrics(m))
		backupSched = notify.NewScheduler(mgr, nil, cfg.Backup.Interval.Duration, clock.System, logger.With("component", "backup_scheduler"))
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Background cleanup goroutine
	bgCtx, bgCancel := context.WithCancel(context.Background())
	defer bgCancel()
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, err := srv.AuthManager().SweepExpired(); err != nil {
					slog.Error("cleanup expired sessions", "error", err)
				}
				srv.RateLimiter().Cleanup()
			case <-bgCtx.Done():
				return
			}
		}
	}()

	if scheduler != nil {
		scheduler.Start(bgCtx)
	}
	if backupSched != nil {
		backupSched.Start(bgCtx)
	}

	go func() {
		slog.Info("wg starting", "addr", ":"+cfg.Port, "base_url", cfg.BaseURL)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")
	if scheduler != nil {
		scheduler.Stop()
	}
	if backupSched != nil {
		backupSched.Stop()
	}
	bgCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}

func newBackupManager(cfg *config.Config, db *sql.DB, logger *slog.Logger, opts ...backup.Option) *backup.Manager {
	return backup.NewManager(db, backup.S3Config{
		Endpoint:  cfg.Backup.S3Endpoint,
		Bucket:    cfg.Backup.S3Bucket,
		Region:    cfg.Backup.S3Region,
		AccessKey: cfg.Backup.S3AccessKey,
		SecretKey: cfg.Backup.S3SecretKey,
	}, cfg.Backup.Passphrase, cfg.Backup.Retention.Duration, logger.With("component", "backup"), opts...)
}

// runBackupCommand handles the offline backup subcommands.
func runBackupCommand(cfg *config.Config, args []string, logger *slog.Logger) error {
	switch args[0] {
	case "list-backups", "restore-backup", "backup-now":
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
	if !cfg.Backup.Enabled() {
		return fmt.Errorf("%s: backups are not configured", args[0])
	}
	ctx := context.Background()

	switch args[0] {
	case "list-backups":
		objs, err := newBackupManager(cfg, nil, logger).List(ctx)
		if err != nil {
			return err
		}
		for _, o := range objs {
			fmt.Printf("%s\t%s\t%d\n", o.Key, o.TakenAt.Format(time.RFC3339), o.SizeBytes)
		}
		return nil
	case "restore-backup":
		if len(args) != 3 {
			return fmt.Errorf("usage: wg restore-backup <key> <target-path>")
		}
		if err := newBackupManager(cfg, nil, logger).Restore(ctx, args[1], args[2]); err != nil {
			return err
		}
		fmt.Printf("Restored %s to %s. Stop the server and replace %s with it.\n", args[1], args[2], cfg.DBPath)
		return nil
	case "backup-now":
		db, err := database.Open(cfg.DBPath)
		if err != nil {
			return err
		}
		defer db.Close()
		obj, err := newBackupManager(cfg, db, logger).RunNow(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Uploaded %s (%d bytes)\n", obj.Key, obj.SizeBytes)
	}
	return nil
}
