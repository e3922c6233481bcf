package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Malcolm-Mukorera/campus-events-api/config"
	"github.com/Malcolm-Mukorera/campus-events-api/internal/container"
	"github.com/Malcolm-Mukorera/campus-events-api/internal/seed"
	"github.com/Malcolm-Mukorera/campus-events-api/pkg/helpers"
)

var (
	clearOnly bool
	reindex   bool
)

var rootCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load a sample user and events into the configured store",
	Long: `Seed creates the user ` + seed.SampleEmail + ` (password ` + seed.SamplePassword + `)
and five sample events organized by that user, dated over the coming two weeks.

Examples:
  # Seed the store named by STORE_DRIVER
  seed

  # Remove every event and user instead
  seed --clear

  # Rebuild the search index from the store (ELASTICSEARCH_ADDRS must be set)
  seed --reindex`,
	SilenceUsage: true,
	RunE:         runSeed,
}

func init() {
	rootCmd.Flags().BoolVar(&clearOnly, "clear", false, "Delete all events and users, then exit")
	rootCmd.Flags().BoolVar(&reindex, "reindex", false, "Index every stored event in Elasticsearch, then exit")
	rootCmd.MarkFlagsMutuallyExclusive("clear", "reindex")
}

func main() {
	_ = godotenv.Load()
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runSeed(cmd *cobra.Command, _ []string) error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger := helpers.NewLogger(cfg.AppName, cfg.Env, cfg.LogLevel)
	ctx := cmd.Context()

	stores, err := container.OpenStores(ctx, cfg, logger, true)
	if err != nil {
		return err
	}
	defer stores.Close()

	index, err := container.OpenIndex(cfg, logger)
	if err != nil {
		return err
	}

	if reindex {
		if index == nil {
			return errors.New("--reindex needs ELASTICSEARCH_ADDRS")
		}
		n, err := seed.Reindex(ctx, stores.Events, index)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "indexed %d events\n", n)
		return nil
	}

	if clearOnly {
		if err := seed.Clear(ctx, stores.Users, stores.Events, index); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "database cleared")
		return nil
	}

	res, err := seed.Run(ctx, stores.Users, stores.Events, index, helpers.NewBcryptHasher(0), time.Now())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "created test user: %s / %s\n", res.User.Email, seed.SamplePassword)
	fmt.Fprintf(cmd.OutOrStdout(), "created %d sample events\n", len(res.Events))
	return nil
}
