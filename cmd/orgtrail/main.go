package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/orgtrail/orgtrail-go/internal/config"
	"github.com/orgtrail/orgtrail-go/internal/logging"
)

var (
	// Version information (set by build flags)
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"

	cfgFile string
	verbose bool
	logger  *logrus.Logger
	cfg     *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "orgtrail",
	Short: "OrgTrail - temporal employment graph over public rosters",
	Long: `OrgTrail builds a queryable graph of people, organizations, and
employment tenures, and answers career, org-chart, and colleague-connection
questions over time.`,
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Initialize logger
		logger = logrus.New()
		if verbose {
			logger.SetLevel(logrus.DebugLevel)
		} else {
			logger.SetLevel(logrus.InfoLevel)
		}

		if err := logging.Initialize(logging.DefaultConfig(verbose)); err != nil {
			logger.WithError(err).Warn("Failed to initialize structured logging")
		}

		// Load configuration
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			logger.WithError(err).Warn("Failed to load config, using defaults")
			cfg = config.Default()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: .orgtrail/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Set custom version template
	rootCmd.SetVersionTemplate(`OrgTrail {{.Version}}
Build time: ` + BuildTime + `
Git commit: ` + GitCommit + `
`)

	// Add subcommands
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(preseedCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(refreshCmd)
	rootCmd.AddCommand(careerCmd)
	rootCmd.AddCommand(orgchartCmd)
	rootCmd.AddCommand(connectCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(colleaguesCmd)
	rootCmd.AddCommand(turnoverCmd)
	rootCmd.AddCommand(timelineCmd)
	rootCmd.AddCommand(statusCmd)
}
