package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-verify/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "face-verify",
	Short: "Liveness and face-match identity verification",
	Long: `Face Verify checks that a short selfie video shows a live person turning
their head from center to the left, then compares the best frontal frame
against a reference profile photo using an external match engine.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
	logging.Setup(os.Stderr, os.Getenv("LOG_LEVEL"))
}
