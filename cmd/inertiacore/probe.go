package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"go.inout.gg/inertiacore"
)

type probeOptions struct {
	url       string
	component string
	timeout   time.Duration
}

func probeCmd() *cobra.Command {
	var opts probeOptions

	cmd := &cobra.Command{
		Use:   "ssr-probe",
		Short: "Dispatch a page to an SSR service and print the result",
		Long: `ssr-probe sends a single page to a running SSR rendering service
and prints the returned head and body fragments.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return probe(cmd.Context(), cmd, &opts)
		},
	}

	cmd.Flags().StringVar(&opts.url, "ssr-url", inertiacore.DefaultSSRURL, "SSR service endpoint")
	cmd.Flags().StringVar(&opts.component, "component", "Home", "component to render")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", inertiacore.DefaultSSRTimeout, "dispatch timeout")

	return cmd
}

func probe(ctx context.Context, cmd *cobra.Command, opts *probeOptions) error {
	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	gw := inertiacore.NewHTTPGateway(nil, nil)

	//nolint:exhaustruct
	page := &inertiacore.Page{
		Component: opts.component,
		Props:     map[string]any{"errors": map[string]string{}},
		URL:       "/",
	}

	start := time.Now()

	res, err := gw.Dispatch(ctx, page, opts.url)
	if err != nil {
		return fmt.Errorf("inertiacore: SSR probe failed: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "rendered %s in %s\n\n", opts.component, time.Since(start).Round(time.Millisecond))
	fmt.Fprintf(out, "head:\n%s\n\nbody:\n%s\n", res.Head, res.Body)

	return nil
}
