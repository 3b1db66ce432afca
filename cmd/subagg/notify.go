package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/John-Robertt/subagg-go/internal/snapshot"
)

func newNotifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "notify",
		Short: "执行一次节点变动检测与通知（供 cron 调用）",
		Long: `notify compares the latest persisted snapshot with the previous one,
rotates latest into previous and sends a message when the node count changed.
It exits 0 even when nothing was compared or delivery failed; details go to
the log.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			if a.cfg.Store.Driver == "memory" {
				a.log.Warn("STORE_DRIVER=memory: snapshots written by the server are not visible to this process")
			}

			store, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			r := a.newNotifier(snapshot.New(store)).Run(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "ran=%t changed=%t total=%d delta=%+d notified=%t\n",
				r.Ran, r.Changed, r.Total, r.Delta, r.Notified)
			return nil
		},
	}
}
