// Package cmd -----------------------------
// @file      : ping.go
// @author    : hcjjj
// @contact   : hcjjj@foxmail.com
// @time      : 2024/1/20 11:05
// -------------------------------------------
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"mini-redis/resp/client"
)

var pingAddr string

// ping 用于健康检查，服务不可用时返回非零的退出码
var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that a server answers PING",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := client.MakeClient(pingAddr)
		if err != nil {
			return err
		}
		c.Start()
		defer c.Close()
		if err := c.Ping(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "PONG")
		return nil
	},
}

func init() {
	pingCmd.Flags().StringVarP(&pingAddr, "addr", "a", "127.0.0.1:6379", "Server address")
	AddCommand(pingCmd)
}
