package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/k0kubun/pp/v3"
	"github.com/spf13/cobra"

	"github.com/statement-tools/bankstage/pkg/config"
	"github.com/statement-tools/bankstage/pkg/lifecycle"
	"github.com/statement-tools/bankstage/pkg/service"
	"github.com/statement-tools/bankstage/pkg/staging"
	"github.com/statement-tools/bankstage/pkg/store"
)

var (
	cfgFile string
	debug   bool
)

func newLogger() *log.Logger {
	level := log.InfoLevel
	if debug {
		level = log.DebugLevel
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    true,
		ReportTimestamp: true,
		Prefix:          "bankstage",
		Level:           level,
	})
}

func openStore(ctx context.Context, cfg *config.Config, logger *log.Logger) (store.Store, error) {
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("database-url is not configured")
	}
	return store.NewPostgres(ctx, cfg.DatabaseURL, logger)
}

var rootCmd = &cobra.Command{
	Use:   "bankstage",
	Short: "Normalize bank statements and stage them for analytics",
	RunE: func(cmd *cobra.Command, _ []string) error {
		// Show help when no subcommand is provided
		return cmd.Help()
	},
}

var processCmd = &cobra.Command{
	Use:   "process [flags] <statement_file>",
	Short: "Parse, clean and stage one bank statement",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()
		cfg, err := config.Build(cfgFile, cmd.Flags())
		if err != nil {
			return err
		}

		sessionID, _ := cmd.Flags().GetString("session")
		if sessionID == "" {
			sessionID = uuid.New().String()
		}
		noLoad, _ := cmd.Flags().GetBool("no-load")

		ctx := context.Background()
		var st store.Store
		if !noLoad {
			if st, err = openStore(ctx, cfg, logger); err != nil {
				return err
			}
			defer st.Close()
		}

		stager := staging.New(cfg.DataDir, logger)
		processor := service.NewProcessor(st, stager, logger)

		outcome, err := processor.ProcessFile(ctx, args[0], sessionID, !noLoad)
		if err != nil {
			return err
		}

		fmt.Printf("session %s: %d rows staged", outcome.SessionID, outcome.Rows)
		if outcome.ArtifactPath != "" {
			fmt.Printf(", artifact %s", outcome.ArtifactPath)
		}
		fmt.Println()
		return nil
	},
}

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List sessions currently present in the row-store",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		logger := newLogger()
		cfg, err := config.Build(cfgFile, cmd.Flags())
		if err != nil {
			return err
		}

		ctx := context.Background()
		st, err := openStore(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer st.Close()

		manager := lifecycle.New(st, cfg.DataDir, logger)
		sessions := manager.ListSessions(ctx)
		if len(sessions) == 0 {
			fmt.Println("no active sessions")
			return nil
		}

		if debug {
			pp.Println(sessions)
			return nil
		}
		for _, s := range sessions {
			fmt.Printf("%s  records=%d  first=%s  last=%s\n",
				s.SessionID, s.RecordCount,
				s.FirstUpload.Format(time.RFC3339), s.LastUpload.Format(time.RFC3339))
		}
		return nil
	},
}

var purgeCmd = &cobra.Command{
	Use:   "purge [flags] [session_id]",
	Short: "Delete session rows and file artifacts",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()
		cfg, err := config.Build(cfgFile, cmd.Flags())
		if err != nil {
			return err
		}

		all, _ := cmd.Flags().GetBool("all")
		olderThan, _ := cmd.Flags().GetDuration("older-than")
		if !all && olderThan == 0 && len(args) == 0 {
			return fmt.Errorf("a session_id, --all or --older-than is required")
		}

		ctx := context.Background()
		st, err := openStore(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer st.Close()

		manager := lifecycle.New(st, cfg.DataDir, logger)

		var result lifecycle.Result
		switch {
		case all:
			result, err = manager.PurgeAll(ctx)
		case olderThan > 0:
			result, err = manager.PurgeOlderThan(ctx, olderThan)
		default:
			result, err = manager.PurgeSession(ctx, args[0])
		}
		if err != nil {
			return err
		}

		fmt.Println(result.Message)
		return nil
	},
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Config file (default is config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	processCmd.Flags().String("session", "", "Session id to stage under (default: a new uuid)")
	processCmd.Flags().Bool("no-load", false, "Stage the file artifact only, skip the row-store")

	purgeCmd.Flags().Bool("all", false, "Purge every session")
	purgeCmd.Flags().Duration("older-than", 0, "Purge rows older than this age, e.g. 168h")

	rootCmd.AddCommand(processCmd, sessionsCmd, purgeCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
