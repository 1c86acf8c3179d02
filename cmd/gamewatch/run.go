package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/nhle/gamewatch/internal/alert"
	"github.com/nhle/gamewatch/internal/model"
	"github.com/nhle/gamewatch/internal/notify"
	"github.com/nhle/gamewatch/internal/store"
	appsync "github.com/nhle/gamewatch/internal/sync"
	"github.com/nhle/gamewatch/internal/theme"
)

const shutdownTimeout = 10 * time.Second

// scheduler wires the pipeline, alerts and cron schedule on top of st.
func (a *app) scheduler(st *store.SQLiteStore, metrics *notify.Metrics) (*appsync.Scheduler, error) {
	pipeline, err := a.pipeline(st, metrics)
	if err != nil {
		return nil, err
	}

	reporter, err := alert.NewReporter(alert.Config{
		URLs:          a.cfg.Alerts.URLs,
		Timeout:       a.cfg.Alerts.Timeout,
		OnFailureOnly: a.cfg.Alerts.OnFailureOnly,
	})
	if err != nil {
		return nil, err
	}

	return appsync.New(appsync.Config{
		Location:  a.location(),
		Upcoming:  a.cfg.Schedule.Upcoming,
		Completed: a.cfg.Schedule.Completed,
		Logger:    a.logger,
	}, pipeline, reporter)
}

func newRunCmd(a *app) *cobra.Command {
	var now []string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the daily notification schedule until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			kinds, err := parseKinds(now)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			registry := prometheus.NewRegistry()
			registry.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
			metrics, err := notify.NewMetrics(registry)
			if err != nil {
				return err
			}

			sched, err := a.scheduler(st, metrics)
			if err != nil {
				return err
			}

			srv := a.metricsServer(registry)
			if srv != nil {
				go func() {
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						a.logger.Error("metrics server failed", "addr", srv.Addr, "error", err)
					}
				}()
			}

			sched.Start()
			for _, kind := range kinds {
				sched.Trigger(kind)
			}
			a.logger.Info("gamewatch running", "timezone", a.cfg.Schedule.Timezone)

			<-ctx.Done()
			a.logger.Info("shutting down")
			sched.Stop()

			if srv != nil {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					return fmt.Errorf("stopping metrics server: %w", err)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&now, "now", nil, "also run these kinds immediately (upcoming, completed)")
	return cmd
}

// metricsServer returns nil when metrics are disabled.
func (a *app) metricsServer(registry *prometheus.Registry) *http.Server {
	if a.cfg.Metrics.Listen == "" {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	return &http.Server{
		Addr:              a.cfg.Metrics.Listen,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func newPassCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "pass upcoming|completed",
		Short:     "Run a single notification pass now",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(model.KindUpcoming), string(model.KindCompleted)},
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := model.ParseKind(args[0])
			if err != nil {
				return err
			}

			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			sched, err := a.scheduler(st, nil)
			if err != nil {
				return err
			}
			defer sched.Stop()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			report, err := sched.RunNow(ctx, kind)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderReport(report))
			return nil
		},
	}
}

func renderReport(r notify.PassReport) string {
	result := "ok"
	if !r.Healthy() {
		result = "degraded"
	}

	header := theme.HeaderStyle.Render(fmt.Sprintf("%s pass %s", r.Kind, r.PassID))
	rows := [][]string{
		{"result", theme.Outcome(result)},
		{"window", r.Window.String()},
		{"duration", r.Duration.Round(time.Millisecond).String()},
		{"entities", strconv.Itoa(r.Entities)},
		{"matches", strconv.Itoa(r.Matches)},
		{"attempts", strconv.Itoa(r.Attempts)},
		{"delivered", strconv.Itoa(r.Delivered)},
		{"skipped", strconv.Itoa(r.Skipped)},
		{"unreachable", strconv.Itoa(r.Unreachable)},
		{"failed", strconv.Itoa(r.Failed)},
		{"dropped rows", strconv.Itoa(r.DroppedRows)},
		{"entity errors", strconv.Itoa(r.EntityErrors)},
	}
	return header + "\n" + theme.Table([]string{"", ""}, rows)
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the schedule and what has been delivered",
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			sched, err := appsync.New(appsync.Config{
				Location:  a.location(),
				Upcoming:  a.cfg.Schedule.Upcoming,
				Completed: a.cfg.Schedule.Completed,
				Logger:    a.logger,
			}, nil, nil)
			if err != nil {
				return err
			}
			defer sched.Stop()

			ctx := cmd.Context()
			grouped, err := st.GetFollowersByEntity(ctx)
			if err != nil {
				return err
			}
			subscribers := make(map[int64]struct{})
			for _, f := range grouped {
				for _, id := range f.Subscribers {
					subscribers[id] = struct{}{}
				}
			}
			version, err := st.SchemaVersion()
			if err != nil {
				return err
			}

			var rows [][]string
			for _, s := range sched.Statuses() {
				sent, err := st.CountSent(ctx, s.Kind)
				if err != nil {
					return err
				}
				rows = append(rows, []string{
					string(s.Kind),
					s.Spec,
					s.NextRun.Format("Mon Jan 2 15:04 MST"),
					strconv.Itoa(sent),
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, theme.HeaderStyle.Render("gamewatch"))
			fmt.Fprintf(out, "database %s (schema v%d)\n", a.cfg.Database.Path, version)
			fmt.Fprintf(out, "%d players followed by %d subscribers\n", len(grouped), len(subscribers))
			fmt.Fprintln(out, theme.Table([]string{"Kind", "Schedule", "Next run", "Sent"}, rows))
			return nil
		},
	}
}

func parseKinds(values []string) ([]model.Kind, error) {
	kinds := make([]model.Kind, 0, len(values))
	for _, v := range values {
		kind, err := model.ParseKind(v)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, kind)
	}
	return kinds, nil
}
