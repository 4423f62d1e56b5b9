// Package cmd -----------------------------
// @file      : root.go
// @author    : hcjjj
// @contact   : hcjjj@foxmail.com
// @time      : 2024/1/20 10:30
// -------------------------------------------
package cmd

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"mini-redis/database"
	"mini-redis/lib/config"
	"mini-redis/lib/logger"
	"mini-redis/lib/metrics"
	"mini-redis/resp/handler"
	"mini-redis/tcp"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "mini-redis",
	Short: "A minimal in-memory key-value server speaking RESP",
	Long: `mini-redis serves PING, ECHO, SET, GET and INFO over the Redis protocol.
Values live in memory only; SET never overwrites an existing key.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		v := viper.New()
		if err := bindServerFlags(v, cmd); err != nil {
			return err
		}
		props, err := config.Load(v, configFile)
		if err != nil {
			return err
		}
		return runServer(props)
	},
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVarP(&configFile, "config", "c", "", "Path of the configuration file in yaml, json or toml format (optional)")
	flags.IntP("port", "p", config.DefaultPort, "The port to listen on")
	flags.String("bind", config.DefaultBind, "The address to bind")
	flags.String("metrics-addr", "", "Serve prometheus metrics on this address, empty to disable")
	flags.Duration("expire-sweep-interval", 0, "Remove expired keys in background at this interval, 0 keeps expiry lazy")
	flags.String("log-path", "", "Directory for log files, empty logs to stdout only")
	flags.String("log-level", "info", "Log level (trace/debug/info/warn/error)")
}

// bindServerFlags 命令行参数优先于配置文件
func bindServerFlags(v *viper.Viper, cmd *cobra.Command) error {
	for _, name := range []string{"port", "bind", "metrics-addr", "expire-sweep-interval", "log-path", "log-level"} {
		if err := v.BindPFlag(name, cmd.Flags().Lookup(name)); err != nil {
			return errors.Wrapf(err, "bind flag %s", name)
		}
	}
	return nil
}

func runServer(props *config.ServerProperties) error {
	if err := logger.Setup(&logger.Settings{
		Path:       props.LogPath,
		Name:       "mini-redis",
		Ext:        "log",
		TimeFormat: "2006-01-02",
		Level:      props.LogLevel,
	}); err != nil {
		return err
	}
	logger.Info("Server starting on " + props.Address())

	m := metrics.New()
	if props.MetricsAddr != "" {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go func() {
			if err := m.Serve(ctx, props.MetricsAddr); err != nil {
				logger.Error("metrics server: " + err.Error())
			}
		}()
	}

	db := database.NewStandaloneDatabase(database.Options{
		ExpireSweepInterval: props.ExpireSweepInterval,
		Metrics:             m,
	})
	h := handler.MakeHandler(db, handler.Options{
		ReadBuffer:     props.ReadBuffer,
		MaxQueryBuffer: props.MaxQueryBuffer,
		Metrics:        m,
	})
	return tcp.ListenAndServeWithSignal(&tcp.Config{Address: props.Address()}, h)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func AddCommand(cmds ...*cobra.Command) {
	rootCmd.AddCommand(cmds...)
}
