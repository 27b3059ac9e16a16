package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "techpulse",
	Short: "Tech Pulse aggregator",
	Long: `techpulse pulls GitHub Trending, Product Hunt, tech RSS feeds and
Manifold prediction markets, turns them into four chart datasets and stores
the result as a JSON file and in the configured record store.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the pipeline once and exit",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := newApp(cmd.Context(), configPath)
		if err != nil {
			return err
		}
		defer app.Close()

		summary, err := app.aggregator.RunOnce(cmd.Context())
		if err != nil {
			return err
		}
		if summary.FilePath != "" {
			fmt.Fprintln(cmd.OutOrStdout(), summary.FilePath)
		}
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the pipeline on an interval and serve status endpoints",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := newApp(cmd.Context(), configPath)
		if err != nil {
			return err
		}
		defer app.Close()

		if app.bot != nil {
			go app.bot.Listen(cmd.Context(), app.aggregator.Latest)
		}

		app.log.Info("starting tech pulse aggregator")
		if err := app.aggregator.Run(cmd.Context()); err != nil {
			return err
		}
		app.log.Info("tech pulse aggregator stopped gracefully")
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	rootCmd.AddCommand(runCmd, serveCmd)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		cancel()
		os.Exit(1)
	}
}
