package main

import (
	"encoding/json"
	"os"
	_ "time/tzdata"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/JacMa99/appless-workout-mvp/app"
	"github.com/JacMa99/appless-workout-mvp/config"
	"github.com/JacMa99/appless-workout-mvp/utilities"
)

var configPath string

func loadConfig() *config.AppConfModel {
	conf, err := config.LoadConfig(configPath)
	if err != nil {
		logrus.Fatalf("unable to initialize configuration %s", err.Error())
	}

	utilities.InitLogger(conf.LogLevel)
	return conf
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "appless",
		Short: "Workout group nudge service",
		Run: func(cmd *cobra.Command, args []string) {
			serve()
		},
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.yaml (default $APPLESS_CONFIG or /etc/appless/config.yaml)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server with the cron trigger endpoint",
		Run: func(cmd *cobra.Command, args []string) {
			serve()
		},
	}

	var dryRun bool
	nudgeCmd := &cobra.Command{
		Use:   "nudge",
		Short: "Run one nudge batch and print the summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf := loadConfig()

			summary, err := app.RunOnce(cmd.Context(), conf, dryRun)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(summary)
		},
	}
	nudgeCmd.Flags().BoolVar(&dryRun, "dry-run", false, "compose and dedup without sending or recording")

	rootCmd.AddCommand(serveCmd, nudgeCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serve() {
	conf := loadConfig()

	if err := app.Run(conf); err != nil {
		logrus.WithError(err).Fatal("server stopped")
	}
}
