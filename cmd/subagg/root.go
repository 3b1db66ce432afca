package main

import (
	"github.com/spf13/cobra"
)

// newRootCmd builds a fresh command tree so tests never share flag state.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "subagg",
		Short: "订阅聚合：拉取、识别、去重并输出 Clash / JSON 订阅",
		Long: `subagg aggregates proxy subscriptions from many sources into one
deduplicated document, serves it over HTTP behind token auth and a per-token
rate limit, and announces node count changes on a schedule.

Configuration is read from the environment and an optional .env file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("env-file", "", "env 文件路径（默认读取当前目录下的 .env，不存在则忽略）")

	root.AddCommand(
		newServeCmd(),
		newNotifyCmd(),
		newAggregateCmd(),
		newHealthcheckCmd(),
	)
	return root
}
