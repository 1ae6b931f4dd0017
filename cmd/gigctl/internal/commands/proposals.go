package commands

import (
	"github.com/spf13/cobra"

	"gigmarket/internal/domain"
	"gigmarket/internal/service"
)

func newProposalsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "proposals",
		Short: "Bid on jobs and review bids",
	}
	cmd.AddCommand(newProposalsSubmitCommand(), newProposalsListCommand(), newProposalsAcceptCommand())
	return cmd
}

func newProposalsSubmitCommand() *cobra.Command {
	var in service.ProposalInput
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a proposal for a job",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e := envFrom(cmd)
			user, ctx, err := e.signedIn(cmd.Context())
			if err != nil {
				return err
			}
			proposal, err := e.app.Proposals.Submit(ctx, user.ID, in)
			if err != nil {
				return err
			}
			return e.print(proposal)
		},
	}
	cmd.Flags().StringVar(&in.JobID, "job", "", "job id")
	cmd.Flags().StringVar(&in.CoverLetter, "cover", "", "cover letter")
	cmd.Flags().Float64Var(&in.BidAmount, "bid", 0, "bid amount")
	cmd.Flags().StringVar(&in.EstimatedDuration, "duration", "", "estimated duration, e.g. \"2 weeks\"")
	_ = cmd.MarkFlagRequired("job")
	_ = cmd.MarkFlagRequired("cover")
	_ = cmd.MarkFlagRequired("bid")
	return cmd
}

func newProposalsListCommand() *cobra.Command {
	var jobID string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your proposals, or the proposals on one of your jobs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e := envFrom(cmd)
			user, ctx, err := e.signedIn(cmd.Context())
			if err != nil {
				return err
			}
			var proposals []domain.Proposal
			if jobID != "" {
				proposals, err = e.app.Proposals.ListForJob(ctx, jobID)
			} else {
				proposals, err = e.app.Proposals.ListMine(ctx, user.ID)
			}
			if err != nil {
				return err
			}
			return e.print(proposals)
		},
	}
	cmd.Flags().StringVar(&jobID, "job", "", "list proposals on this job instead of your own")
	return cmd
}

func newProposalsAcceptCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "accept <proposal-id>",
		Short: "Accept a proposal and start the job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e := envFrom(cmd)
			user, ctx, err := e.signedIn(cmd.Context())
			if err != nil {
				return err
			}
			proposal, err := e.app.Proposals.Accept(ctx, user.ID, args[0])
			if proposal != nil {
				if perr := e.print(proposal); perr != nil {
					return perr
				}
			}
			return err
		},
	}
}
