package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/hnrobert/umgmt/internal/accounts"
	"github.com/hnrobert/umgmt/internal/config"
	"github.com/hnrobert/umgmt/internal/hostfs"
	"github.com/hnrobert/umgmt/internal/logger"
	"github.com/hnrobert/umgmt/internal/procs"
)

var (
	// Global flags
	configPath string
	hostRoot   string
	verbose    bool
	jsonOut    bool

	cfg config.Config
	mgr *accounts.Manager
)

var rootCmd = &cobra.Command{
	Use:   "umgmt",
	Short: "Manage local users and groups",
	Long: `umgmt reads passwd, shadow, group and gshadow as one consistent
account database, applies a change and writes all four files back.

umgmt does not take the platform's account file lock. Do not run it
concurrently with useradd, passwd or similar tools.`,
	Version:           "0.1.0",
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(*cobra.Command, []string) { logger.Close() },
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default $UMGMT_CONFIG or "+config.DefaultPath+")")
	rootCmd.PersistentFlags().StringVar(&hostRoot, "root", "", "Operate on the account files below this directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
}

func setup(cmd *cobra.Command, _ []string) error {
	osFs := afero.NewOsFs()
	path, explicit := config.Path(configPath)
	c, err := config.Load(osFs, path, explicit)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if hostRoot != "" {
		c.HostRoot = hostRoot
		if err := c.Validate(); err != nil {
			return err
		}
	}
	cfg = c

	level, _ := logger.ParseLevel(c.Log.Level)
	if verbose {
		level = logger.LevelDebug
	}
	logger.SetLevel(level)
	if err := logger.Init(c.Log.Dir); err != nil {
		logger.Warn("file logging disabled: %v", err)
	}

	mgr = accounts.New(hostfs.New(c.HostRoot, osFs), procs.New(osFs, c.ProcRoot), accounts.Options{
		IDMin:         c.UIDMin,
		IDMax:         c.UIDMax,
		HashAlgorithm: c.HashAlgorithm,
		DefaultShell:  c.DefaultShell,
		HomeBase:      c.HomeBase,
	})
	logger.Debug("host root %s, config %s", c.HostRoot, path)
	return nil
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", accounts.HumanError(err))
		os.Exit(1)
	}
}

// printInfo prints to stdout
func printInfo(format string, args ...interface{}) {
	fmt.Fprintf(os.Stdout, format, args...)
}

// printJSON outputs data as JSON
func printJSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
