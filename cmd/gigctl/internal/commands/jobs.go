package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"gigmarket/internal/domain"
	"gigmarket/internal/live"
	"gigmarket/internal/service"
)

func newJobsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Browse and post jobs",
	}
	cmd.AddCommand(newJobsListCommand(), newJobsPostCommand(), newJobsWatchCommand())
	return cmd
}

func newJobsListCommand() *cobra.Command {
	var filter domain.JobFilter
	var status string
	var mine bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e := envFrom(cmd)
			user, ctx, err := e.signedIn(cmd.Context())
			if err != nil {
				return err
			}
			if statuses := domain.ParseJobStatuses(status); len(statuses) == 1 {
				filter.Status = statuses[0]
			} else {
				filter.Statuses = statuses
			}
			if mine {
				filter.ClientID = user.ID
			}
			jobs, err := e.app.Jobs.List(ctx, filter)
			if err != nil {
				return err
			}
			return e.print(jobs)
		},
	}
	cmd.Flags().StringVar(&status, "status", string(domain.JobStatusOpen), "comma separated job statuses, empty for all")
	cmd.Flags().StringVar(&filter.Category, "category", "", "category")
	cmd.Flags().Float64Var(&filter.MinBudget, "min-budget", 0, "only jobs paying at least this much")
	cmd.Flags().Float64Var(&filter.MaxBudget, "max-budget", 0, "only jobs starting at or below this budget")
	cmd.Flags().StringVar(&filter.Search, "q", "", "search in titles")
	cmd.Flags().IntVar(&filter.Limit, "limit", 20, "maximum number of jobs")
	cmd.Flags().BoolVar(&mine, "mine", false, "only jobs you posted")
	return cmd
}

func newJobsPostCommand() *cobra.Command {
	var in service.JobInput
	var budgetType, skills string
	cmd := &cobra.Command{
		Use:   "post",
		Short: "Post a new job",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e := envFrom(cmd)
			user, ctx, err := e.signedIn(cmd.Context())
			if err != nil {
				return err
			}
			in.BudgetType = domain.BudgetType(budgetType)
			in.Skills = splitList(skills)
			job, err := e.app.Jobs.Create(ctx, user.ID, in)
			if err != nil {
				return err
			}
			return e.print(job)
		},
	}
	cmd.Flags().StringVar(&in.Title, "title", "", "job title")
	cmd.Flags().StringVar(&in.Description, "description", "", "job description")
	cmd.Flags().StringVar(&in.Category, "category", "", "category")
	cmd.Flags().StringVar(&skills, "skills", "", "comma separated skills")
	cmd.Flags().StringVar(&budgetType, "budget-type", string(domain.BudgetFixed), "fixed or hourly")
	cmd.Flags().Float64Var(&in.BudgetMin, "min", 0, "minimum budget")
	cmd.Flags().Float64Var(&in.BudgetMax, "max", 0, "maximum budget")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("description")
	return cmd
}

func newJobsWatchCommand() *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow job postings as they change",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e := envFrom(cmd)
			_, ctx, err := e.signedIn(cmd.Context())
			if err != nil {
				return err
			}
			jobs := live.Jobs(e.logger)
			defer jobs.Close()

			filter := domain.ChangeFilter{Schema: e.cfg.BaaS.Schema, Table: "jobs"}
			if status != "" {
				filter.Filter = "status=eq." + status
			}
			return watch(ctx, e, jobs, filter, func(ctx context.Context) ([]domain.Job, error) {
				return e.app.Jobs.List(ctx, domain.JobFilter{Status: domain.JobStatus(status)})
			}, func(items []domain.Job) string {
				if len(items) == 0 {
					return "no jobs"
				}
				return fmt.Sprintf("%d jobs, latest: %s (%s)", len(items), items[0].Title, items[0].Status)
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", string(domain.JobStatusOpen), "job status, empty for all")
	return cmd
}

// watch loads the collection, follows its changes and prints a summary line after
// every change until ctx is done. The session is refreshed in the background and
// each new access token is handed to the realtime connection.
func watch[T any](ctx context.Context, e *env, c *live.Collection[T], filter domain.ChangeFilter,
	loader func(context.Context) ([]T, error), summary func([]T) string) error {
	realtime := e.app.Client.Realtime()
	stop := e.store.ForwardTokens(realtime)
	defer stop()

	go func() {
		if err := e.store.Run(ctx); err != nil && ctx.Err() == nil {
			e.logger.WithError(err).Warn("session refresher stopped")
		}
	}()

	if err := c.Load(ctx, loader); err != nil {
		return err
	}
	fmt.Fprintln(e.out, summary(c.Items()))

	c.OnChange(func(items []T) {
		fmt.Fprintln(e.out, summary(items))
	})
	if err := c.Watch(ctx, e.app.Feed, filter); err != nil {
		return err
	}
	fmt.Fprintln(os.Stderr, "watching, press Ctrl+C to stop")
	<-ctx.Done()
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
