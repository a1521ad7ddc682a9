package main

import (
	"context"
	"fmt"
	"time"

	"github.com/Samandar0813/darsbot/internal/config"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the configuration and storage backend",
	Long: `Load the configuration, open the configured storage backend and report
what the serve command would run with. No messages are sent.`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	cyan := color.New(color.FgCyan, color.Bold)
	green := color.New(color.FgGreen, color.Bold)
	red := color.New(color.FgRed, color.Bold)

	fmt.Println()
	cyan.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	cyan.Println("DARSBOT CONFIGURATION CHECK")
	cyan.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println()

	fmt.Printf("Config file:  %s\n", configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		red.Println("Config:       INVALID")
		fmt.Printf("              → %v\n", err)
		return fmt.Errorf("configuration check failed")
	}
	green.Println("Config:       OK")

	fmt.Printf("Generator:    %s (model %s)\n", cfg.Generator.Provider, cfg.Generator.Model)
	fmt.Printf("Quota:        %d per %s\n", cfg.Quota.Limit, cfg.Quota.Window)
	fmt.Printf("Storage:      %s", cfg.Storage.Type)
	if cfg.Storage.Type == "redis" {
		fmt.Printf(" (%s:%d)", cfg.Storage.Redis.Host, cfg.Storage.Redis.Port)
	} else {
		fmt.Printf(" (%s)", cfg.Storage.Path)
	}
	fmt.Println()

	store, err := openStorage(cfg.Storage)
	if err != nil {
		red.Println("Storage:      UNREACHABLE")
		fmt.Printf("              → %v\n", err)
		return fmt.Errorf("storage check failed")
	}
	defer func() { _ = store.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	records, err := store.Usage().List(ctx)
	if err != nil {
		red.Println("Storage:      UNREADABLE")
		fmt.Printf("              → %v\n", err)
		return fmt.Errorf("storage check failed")
	}
	green.Println("Storage:      OK")
	fmt.Printf("Records:      %d usage record(s)\n", len(records))

	if cfg.Admin.Enabled {
		fmt.Printf("Admin API:    %s:%d\n", cfg.Admin.BindAddress, cfg.Admin.Port)
	} else {
		fmt.Println("Admin API:    disabled")
	}
	fmt.Printf("Metrics:      %s:%d\n", cfg.Server.BindAddress, cfg.Server.MetricsPort)

	fmt.Println()
	cyan.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println()

	return nil
}
