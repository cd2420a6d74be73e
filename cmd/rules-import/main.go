package main

import (
	"context"
	"fmt"
	"os"

	"admissions_crm_backend/internal/assignment"
	"admissions_crm_backend/internal/counsellors"
	"admissions_crm_backend/internal/events"
	"admissions_crm_backend/platform/config"
	"admissions_crm_backend/platform/db"
	"admissions_crm_backend/platform/logger"
	"admissions_crm_backend/platform/validator"

	"github.com/spf13/cobra"
)

var dryRun bool

var rootCmd = &cobra.Command{
	Use:   "rules-import <file.yaml>",
	Short: "Load L2 assignment rules and L3 rulesets from YAML",
	Long: `Reads a YAML document with l2_rules and l3_rulesets and stores each entry
through the assignment service. Entries naming unknown counsellors are rejected.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "parse and validate the file without writing")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runImport(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}
	file, err := parseRules(data)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg.Env)
	log.Info("starting rules import", "file", args[0], "l2", len(file.L2Rules), "l3", len(file.L3Rulesets), "dryRun", dryRun)

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		return err
	}
	defer pool.Close()

	val := validator.New()
	counsellorsModule := counsellors.NewModule(pool, val)
	assignmentModule := assignment.NewModule(pool, counsellorsModule.Repository(), events.NewInMemoryBus(log), val, log)

	result := importRules(ctx, assignmentModule.Service, file, dryRun, log)
	log.Info("rules import finished", "l2Imported", result.L2Imported, "l3Imported", result.L3Imported, "failed", result.Failed)

	if result.Failed > 0 {
		return fmt.Errorf("%d entries rejected", result.Failed)
	}
	return nil
}
