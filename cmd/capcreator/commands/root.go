package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// LogLevel is raised to debug by --verbose.
var LogLevel = new(slog.LevelVar)

var rootCmd = &cobra.Command{
	Use:   "capcreator",
	Short: "Build autoloaders from signed firmware files",
	Long: `Packs a cap stub and up to six signed files into a single autoloader,
and optionally hashes, signs, records and publishes the result.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if viper.GetBool("verbose") {
			LogLevel.Set(slog.LevelDebug)
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("work-dir", "", "Working directory for offset.hex and images (default: current directory)")
	rootCmd.PersistentFlags().String("stub-path", "", "Cap stub to use instead of searching the working directory")
	rootCmd.PersistentFlags().String("history-path", ".capcreator/history.db", "SQLite build ledger path")
	rootCmd.PersistentFlags().StringSlice("hash-algorithms", []string{"sha512", "sha256", "md5"}, "Checksums written to the manifest")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")

	viper.BindPFlag("work-dir", rootCmd.PersistentFlags().Lookup("work-dir"))
	viper.BindPFlag("stub-path", rootCmd.PersistentFlags().Lookup("stub-path"))
	viper.BindPFlag("history-path", rootCmd.PersistentFlags().Lookup("history-path"))
	viper.BindPFlag("hash-algorithms", rootCmd.PersistentFlags().Lookup("hash-algorithms"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}
