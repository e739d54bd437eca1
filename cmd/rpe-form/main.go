package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/mbolis/rpe-survey/log"
	"github.com/mbolis/rpe-survey/schema"
)

var (
	serverURL         string
	emailDomain       string
	dashboardURL      string
	trainerPassphrase string
	debug             bool
)

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

var rootCmd = &cobra.Command{
	Use:           "rpe-form",
	Short:         "Rate of Perceived Exertion survey client",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.SetOutput(cmd.ErrOrStderr())
		if debug {
			log.SetLevel(log.DebugLevel)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", envOrDefault("RPE_SERVER", "http://127.0.0.1:4025"), "base URL of the collection server")
	rootCmd.PersistentFlags().StringVar(&emailDomain, "email-domain", envOrDefault("RPE_EMAIL_DOMAIN", schema.DefaultEmailDomain), "institutional email domain")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "log at DEBUG level")

	trainerCmd.Flags().StringVar(&dashboardURL, "dashboard-url", envOrDefault("RPE_DASHBOARD_URL", "http://127.0.0.1:4025/dashboard/"), "analytics dashboard URL")
	trainerCmd.Flags().StringVar(&trainerPassphrase, "passphrase", os.Getenv("RPE_TRAINER_PASSPHRASE"), "expected trainer passphrase; when empty the server decides")

	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(trainerCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}
