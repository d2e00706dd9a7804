package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/dailynews-crawler/internal/schedule"
	"github.com/JakeFAU/dailynews-crawler/internal/server"
)

func newScheduleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Crawl today's transcript once a day and serve ops endpoints",
		Long: `Runs until interrupted. At schedule.at (HH:MM in the crawler timezone) the
current date is crawled unless it is already stored. /healthz, /readyz and
/metrics are served on server.port meanwhile.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			hour, minute, err := a.Config.Schedule.Clock()
			if err != nil {
				return err
			}
			ctx, stop := context.WithCancel(cmd.Context())
			defer stop()
			logger := a.Logger.Named("schedule")

			srv := &http.Server{
				Addr:              fmt.Sprintf(":%d", a.Config.Server.Port),
				Handler:           server.New(a.Ready, a.Logger.Named("server")).Handler(),
				ReadHeaderTimeout: 5 * time.Second,
			}
			go func() {
				logger.Info("ops server started", zap.Int("port", a.Config.Server.Port))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("ops server error", zap.Error(err))
					stop()
				}
			}()

			sched := schedule.New(
				schedule.Config{Hour: hour, Minute: minute, Location: a.Location},
				a.Clock,
				func(ctx context.Context) error {
					_, err := a.Runner.Run(ctx, "", false)
					return err
				},
				logger,
			)
			runErr := sched.Run(ctx)

			logger.Info("shutdown initiated")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("server shutdown error", zap.Error(err))
			}
			if errors.Is(runErr, context.Canceled) {
				return nil
			}
			return runErr
		},
	}
}
