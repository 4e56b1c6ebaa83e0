package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/idilsaglam/summit/internal/app"
	"github.com/idilsaglam/summit/internal/config"
	"github.com/idilsaglam/summit/internal/notify"
	"github.com/idilsaglam/summit/internal/reminder"
	"github.com/idilsaglam/summit/internal/ui"
)

func newRemindCmd(e *env) *cobra.Command {
	var (
		once        bool
		dryRun      bool
		metricsAddr string
	)
	cmd := &cobra.Command{
		Use:   "remind",
		Short: "Email goals shortly before they are due",
		Long: "Runs the reminder scheduler until interrupted. Goals opted in with --email\n" +
			"are mailed once when their due time is less than the reminder window away.",
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !once {
				e.daemonLogging(cmd)
			}
			mailer, err := e.mailer(dryRun)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return e.withApp(cmd, func(a *app.App) error {
				reg := prometheus.NewRegistry()
				s := reminder.New(a.Goals, a.KV, mailer, reminder.Config{
					Window:   e.cfg.Reminder.Window,
					Schedule: e.cfg.Reminder.Schedule,
					Refresh:  a.Refresh,
				}, e.log, reminder.NewMetrics(reg))

				if once {
					res, err := s.Tick(ctx, a.Now())
					if err != nil {
						return err
					}
					ui.OK(fmt.Sprintf("reminders: %d sent, %d failed, %d skipped", res.Sent, res.Failed, res.Skipped))
					return nil
				}
				if metricsAddr != "" {
					go serveMetrics(ctx, metricsAddr, reg, e.log)
				}
				return s.Start(ctx, a.Now)
			})
		},
	}
	f := cmd.Flags()
	f.BoolVar(&once, "once", false, "Run a single check and exit")
	f.BoolVar(&dryRun, "dry-run", false, "Log reminders instead of sending them")
	f.StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	return cmd
}

// mailer builds the EmailJS client from config and stored credentials.
func (e *env) mailer(dryRun bool) (notify.Mailer, error) {
	if dryRun {
		return notify.LogMailer{Log: e.log}, nil
	}
	var token string
	c, err := config.GetCredentials()
	switch {
	case err == nil:
		token = c.AccessToken
	case errors.Is(err, config.ErrNoCredentials):
	default:
		return nil, err
	}
	m, err := notify.NewEmailJS(notify.EmailJSConfig{
		BaseURL:     e.cfg.Email.BaseURL,
		ServiceID:   e.cfg.Email.ServiceID,
		TemplateID:  e.cfg.Email.TemplateID,
		PublicKey:   e.cfg.Email.PublicKey,
		AccessToken: token,
		PerMinute:   e.cfg.Email.PerMinute,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("%w (set the email section of %s, or use --dry-run)", err, configPathHint())
	}
	return m, nil
}

// daemonLogging raises the default CLI level to info for long-running
// commands unless --log-level was given.
func (e *env) daemonLogging(cmd *cobra.Command) {
	if cmd.Flags().Changed("log-level") {
		return
	}
	if e.log.GetLevel() < logrus.InfoLevel {
		e.log.SetLevel(logrus.InfoLevel)
	}
}

func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry, log logrus.FieldLogger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	log.WithField("addr", addr).Info("metrics listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Error("metrics server")
	}
}

func configPathHint() string {
	p, err := config.Path()
	if err != nil {
		return "config.yaml"
	}
	return p
}
