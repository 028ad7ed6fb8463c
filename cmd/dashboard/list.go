package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/roivaz/azdo-pr-dashboard/internal/azdo"
	"github.com/roivaz/azdo-pr-dashboard/internal/enrichment"
	"github.com/roivaz/azdo-pr-dashboard/internal/logging"
	"github.com/roivaz/azdo-pr-dashboard/internal/mcp/tools"
	"github.com/roivaz/azdo-pr-dashboard/internal/mcp/tools/types"
)

type listOptions struct {
	output     string
	sort       string
	order      string
	repository string
	noDrafts   bool
}

type listOutput struct {
	PullRequests []types.PullRequestSummary `json:"pull_requests"`
	Failures     []enrichment.Failure       `json:"failures"`
}

func newListCmd() *cobra.Command {
	opts := listOptions{}
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Fetch and enrich the active pull requests once and print them",
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := opts.query()
			if err != nil {
				return err
			}
			if opts.output != "json" && opts.output != "yaml" {
				return fmt.Errorf("--output must be json or yaml, got %q", opts.output)
			}

			cfg, err := enrichment.LoadConfig()
			if err != nil {
				return err
			}
			log := logging.New(logging.NewZapLogger(cfg.LogLevel))

			client, err := azdo.NewClient(cfg.AzDO)
			if err != nil {
				return fmt.Errorf("create azure devops client: %w", err)
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			res := enrichment.NewPipeline(client, cfg.Concurrency, log).OpenPullRequests(ctx)
			return writeList(cmd.OutOrStdout(), opts.output, query.Apply(res.PullRequests), res.Failures)
		},
	}
	cmd.Flags().StringVarP(&opts.output, "output", "o", "json", "Output format: json or yaml")
	cmd.Flags().StringVar(&opts.sort, "sort", "", "Sort column: id, title, author, repository, approvals, build, created")
	cmd.Flags().StringVar(&opts.order, "order", "desc", "Sort direction: asc or desc")
	cmd.Flags().StringVar(&opts.repository, "repository", "", "Only show pull requests for this repository")
	cmd.Flags().BoolVar(&opts.noDrafts, "no-drafts", false, "Hide draft pull requests")
	return cmd
}

func (o listOptions) query() (enrichment.Query, error) {
	q := enrichment.Query{Repository: o.repository, ExcludeDrafts: o.noDrafts}
	if o.sort == "" {
		return q, nil
	}
	column, err := enrichment.ParseSortColumn(o.sort)
	if err != nil {
		return q, err
	}
	q.Sort = column
	switch o.order {
	case "desc":
		q.Descending = true
	case "asc":
	default:
		return q, fmt.Errorf("--order must be asc or desc, got %q", o.order)
	}
	return q, nil
}

func writeList(w io.Writer, format string, prs []enrichment.PullRequest, failures []enrichment.Failure) error {
	out := listOutput{
		PullRequests: make([]types.PullRequestSummary, 0, len(prs)),
		Failures:     failures,
	}
	if out.Failures == nil {
		out.Failures = []enrichment.Failure{}
	}
	for _, pr := range prs {
		out.PullRequests = append(out.PullRequests, tools.ToSummary(pr))
	}

	var (
		data []byte
		err  error
	)
	if format == "yaml" {
		data, err = yaml.Marshal(out)
	} else {
		data, err = json.MarshalIndent(out, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = w.Write(data)
	return err
}
