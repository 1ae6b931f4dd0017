package commands

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// NewRootCommand builds the gigctl command tree.
func NewRootCommand() *cobra.Command {
	var stop context.CancelFunc
	root := &cobra.Command{
		Use:   "gigctl",
		Short: "Freelance marketplace client",
		Long: `gigctl talks to the marketplace backend as the signed-in user.

The session is kept in the local session database (GIGMARKET_SESSION_PATH) and refreshed
automatically when it is close to expiry.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var ctx context.Context
			ctx, stop = signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			cmd.SetContext(ctx)

			e, err := newEnv(ctx, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			withEnv(cmd, e)
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if stop != nil {
				defer stop()
			}
			if e := envFrom(cmd); e != nil {
				return e.Close()
			}
			return nil
		},
	}
	root.SetContext(context.Background())

	root.AddCommand(
		newSignUpCommand(),
		newLoginCommand(),
		newLogoutCommand(),
		newWhoAmICommand(),
		newProfileCommand(),
		newJobsCommand(),
		newProposalsCommand(),
		newMessagesCommand(),
	)
	return root
}
