package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/John-Robertt/subagg-go/internal/aggregate"
	"github.com/John-Robertt/subagg-go/internal/render"
)

func newAggregateCmd() *cobra.Command {
	var target, encode string
	cmd := &cobra.Command{
		Use:   "aggregate [source...]",
		Short: "聚合一次并把结果输出到 stdout（不鉴权、不限流、不持久化）",
		Long: `aggregate runs the pipeline once over the given sources (URLs or inline
subscription text) and prints the rendered document. Without arguments the
configured DEFAULT_SOURCES are used, and without those the sample document.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := render.ParseTarget(target)
			if err != nil {
				return err
			}
			enc, err := render.ParseEncoding(encode)
			if err != nil {
				return err
			}

			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			refs := args
			if len(refs) == 0 {
				if refs, err = a.cfg.Sources.List(); err != nil {
					return err
				}
			}

			agg := aggregate.Sample()
			if len(refs) > 0 {
				agg = a.newAggregator(nil).Run(cmd.Context(), refs)
				a.log.Info("aggregated",
					"sources", agg.Stats.Sources,
					"fetched", agg.Stats.Fetched,
					"skipped", agg.Stats.Skipped,
					"nodes", len(agg.Nodes),
				)
			}

			out, err := render.Render(agg, t, enc)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), out.Body)
			return err
		},
	}
	cmd.Flags().StringVar(&target, "target", string(render.TargetClash), "输出格式：clash | json")
	cmd.Flags().StringVar(&encode, "encode", string(render.EncodingPlain), "输出编码：plain | base64")
	return cmd
}
