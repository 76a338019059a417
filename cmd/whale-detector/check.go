package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/doocho/usdc-whale-detector/internal/config"
	"github.com/doocho/usdc-whale-detector/internal/feed"
)

func runCheck(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "threshold: $%d\n", cfg.ThresholdUSD)
	fmt.Fprintf(os.Stdout, "labels:    %s\n", cfg.LabelsPath)
	fmt.Fprintf(os.Stdout, "chains:\n")

	valid := 0
	for _, chainCfg := range cfg.Chains {
		mode := "poll"
		if feed.UsesSubscription(chainCfg.RPCURL) {
			mode = "subscribe"
		}
		if err := chainCfg.Validate(); err != nil {
			fmt.Fprintf(os.Stdout, "  %-12s INVALID: %v\n", chainCfg.Name, err)
			continue
		}
		fmt.Fprintf(os.Stdout, "  %-12s %s %s (decimals=%d, mode=%s)\n",
			chainCfg.Name, chainCfg.Contract, chainCfg.RPCURL, chainCfg.Decimals, mode)
		valid++
	}

	if valid == 0 {
		return fmt.Errorf("no valid chains configured")
	}
	return nil
}
