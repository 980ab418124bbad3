package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/infactory-io/infactory-go/pkg/types"
)

var statusOrg string

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().StringVar(&statusOrg, "org", "", "organization to report billing for")
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show account and API status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, logger, err := newClient()
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		var (
			projects  []types.Project
			platforms []types.Platform
			sub       types.Subscription
			usage     types.Usage
		)

		g, ctx := errgroup.WithContext(cmd.Context())
		g.Go(func() (err error) {
			projects, err = client.Projects.List(ctx, "").Unwrap()
			return err
		})
		g.Go(func() (err error) {
			platforms, err = client.Platforms.List(ctx).Unwrap()
			return err
		})
		if statusOrg != "" {
			g.Go(func() (err error) {
				sub, err = client.Subscriptions.Get(ctx, statusOrg).Unwrap()
				return err
			})
			g.Go(func() (err error) {
				usage, err = client.Subscriptions.Usage(ctx, statusOrg).Unwrap()
				return err
			})
		}
		if err := g.Wait(); err != nil {
			return fmt.Errorf("status: %w", err)
		}

		m := client.Metrics()
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintf(w, "API\t%s\n", client.BaseURL())
		fmt.Fprintf(w, "Projects\t%d\n", len(projects))
		fmt.Fprintf(w, "Platforms\t%d\n", len(platforms))
		if statusOrg != "" {
			fmt.Fprintf(w, "Plan\t%s (%s)\n", sub.PlanID, sub.Status)
			fmt.Fprintf(w, "API calls\t%d\n", usage.APICalls)
			fmt.Fprintf(w, "LLM tokens\t%d\n", usage.LLMTokens)
		}
		fmt.Fprintf(w, "Latency\tavg %s, p95 %s\n", m.Latency.Average, m.Latency.P95)
		if rl, ok := client.RateLimit(); ok {
			fmt.Fprintf(w, "Rate limit\t%d/%d remaining\n", rl.Remaining, rl.Limit)
		}
		return w.Flush()
	},
}
