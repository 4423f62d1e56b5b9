// Package cmd -----------------------------
// @file      : bench.go
// @author    : hcjjj
// @contact   : hcjjj@foxmail.com
// @time      : 2024/1/21 10:40
// -------------------------------------------
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"mini-redis/resp/client"
)

var (
	benchAddr      string
	benchWorkers   int
	benchRequests  int
	benchValueSize int
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Run concurrent SET/GET on disjoint keys and verify every read",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		p := client.NewPool(ctx, benchAddr, benchWorkers)
		defer p.Close(context.Background())

		result, err := client.Bench(ctx, p, client.BenchOptions{
			Workers:   benchWorkers,
			Requests:  benchRequests,
			ValueSize: benchValueSize,
		})
		if result != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "ops: %d, failures: %d, mismatches: %d, elapsed: %s, %.0f ops/s\n",
				result.Ops, result.Failures, result.Mismatches, result.Elapsed, result.OpsPerSecond())
		}
		if err != nil {
			return err
		}
		if result.Failures > 0 || result.Mismatches > 0 {
			return errors.Errorf("bench finished with %d failures and %d mismatches", result.Failures, result.Mismatches)
		}
		return nil
	},
}

func init() {
	flags := benchCmd.Flags()
	flags.StringVarP(&benchAddr, "addr", "a", "127.0.0.1:6379", "Server address")
	flags.IntVarP(&benchWorkers, "workers", "w", 8, "Number of concurrent clients")
	flags.IntVarP(&benchRequests, "requests", "n", 1000, "SET/GET pairs per worker")
	flags.IntVar(&benchValueSize, "value-size", 16, "Minimum value size in bytes")
	AddCommand(benchCmd)
}
