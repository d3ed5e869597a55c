package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/crew-alert/internal/config"
	"github.com/oshokin/crew-alert/internal/domain/crew"
	"github.com/oshokin/crew-alert/internal/service/console"
	"github.com/oshokin/crew-alert/internal/version"
)

var (
	// options holds the connection and identity flags shared by all subcommands.
	options = new(console.Options)

	// rootCmd represents the base command for the station console.
	rootCmd = &cobra.Command{
		Use:   "crew-console",
		Short: "Manage the station roster and send alert tickets.",
		Long: `Command line console for crew-server.

Crew members apply for registration and read their own assignment and tickets.
Supervisors resolve registrations, assign members to vehicles, send alert
tickets and read the audit log. Every command acts under the identity given by
--role, --member and --name.`,
		SilenceUsage: true,
	}
)

// run wraps a console action with signal handling and a server connection.
func run(action func(ctx context.Context, c *console.Console, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		// Setup graceful shutdown handling.
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
		defer stop()

		c, closeConsole, err := console.Open(ctx, options, cmd.OutOrStdout())
		if err != nil {
			return err
		}

		defer func() {
			_ = closeConsole()
		}()

		return action(ctx, c, args)
	}
}

// Execute runs the crew-console CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits,funlen // Required by Cobra CLI framework architecture.
func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&options.ConfigPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	flags.StringVar(&options.ServerAddress, "server", "", "server address, overrides settings")
	flags.StringVarP(&options.Role, "role", "r", string(crew.RoleCrewMember), "caller role: supervisor or crew-member")
	flags.Uint64VarP(&options.MemberID, "member", "m", 0, "caller member id")
	flags.StringVarP(&options.Name, "name", "n", "", "caller display name")

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "login",
			Short: "Check an access code and print the role it grants.",
			Args:  cobra.NoArgs,
			RunE: run(func(ctx context.Context, c *console.Console, _ []string) error {
				code, err := console.ReadCode(os.Stdin, os.Stderr)
				if err != nil {
					return err
				}

				return c.Login(ctx, code)
			}),
		},
		&cobra.Command{
			Use:   "apply <first-name> <last-name>",
			Short: "Submit a registration request.",
			Args:  cobra.ExactArgs(2),
			RunE: run(func(ctx context.Context, c *console.Console, args []string) error {
				return c.Apply(ctx, args[0], args[1])
			}),
		},
		&cobra.Command{
			Use:   "pending",
			Short: "List pending registration requests.",
			Args:  cobra.NoArgs,
			RunE: run(func(ctx context.Context, c *console.Console, _ []string) error {
				return c.Pending(ctx)
			}),
		},
		&cobra.Command{
			Use:   "accept <request-id> [rank]",
			Short: "Accept a registration request, optionally with a rank.",
			Args:  cobra.RangeArgs(1, 2),
			RunE: run(func(ctx context.Context, c *console.Console, args []string) error {
				var rank string
				if len(args) > 1 {
					rank = args[1]
				}

				return c.Accept(ctx, args[0], rank)
			}),
		},
		&cobra.Command{
			Use:   "reject <request-id>",
			Short: "Reject a registration request.",
			Args:  cobra.ExactArgs(1),
			RunE: run(func(ctx context.Context, c *console.Console, args []string) error {
				return c.Reject(ctx, args[0])
			}),
		},
		&cobra.Command{
			Use:   "assign <member-id> <vehicle-id|none>",
			Short: "Assign a member to a vehicle or unassign it.",
			Args:  cobra.ExactArgs(2),
			RunE: run(func(ctx context.Context, c *console.Console, args []string) error {
				return c.Assign(ctx, args[0], args[1])
			}),
		},
		&cobra.Command{
			Use:   "members",
			Short: "List crew members.",
			Args:  cobra.NoArgs,
			RunE: run(func(ctx context.Context, c *console.Console, _ []string) error {
				return c.Members(ctx)
			}),
		},
		&cobra.Command{
			Use:   "vehicles",
			Short: "List the fleet with current crews.",
			Args:  cobra.NoArgs,
			RunE: run(func(ctx context.Context, c *console.Console, _ []string) error {
				return c.Vehicles(ctx)
			}),
		},
		&cobra.Command{
			Use:   "crew <vehicle-id>",
			Short: "List the members assigned to a vehicle.",
			Args:  cobra.ExactArgs(1),
			RunE: run(func(ctx context.Context, c *console.Console, args []string) error {
				return c.Crew(ctx, args[0])
			}),
		},
		&cobra.Command{
			Use:   "send <vehicle-id> <message...>",
			Short: "Send an alert ticket to a vehicle's crew.",
			Args:  cobra.MinimumNArgs(2),
			RunE: run(func(ctx context.Context, c *console.Console, args []string) error {
				return c.Send(ctx, args[0], args[1:])
			}),
		},
		&cobra.Command{
			Use:   "tickets [vehicle-id]",
			Short: "List tickets, newest first.",
			Args:  cobra.MaximumNArgs(1),
			RunE: run(func(ctx context.Context, c *console.Console, args []string) error {
				var vehicle string
				if len(args) > 0 {
					vehicle = args[0]
				}

				return c.Tickets(ctx, vehicle)
			}),
		},
		&cobra.Command{
			Use:   "log",
			Short: "Print the audit log.",
			Args:  cobra.NoArgs,
			RunE: run(func(ctx context.Context, c *console.Console, _ []string) error {
				return c.Log(ctx)
			}),
		},
		&cobra.Command{
			Use:   "health",
			Short: "Check that crew-server is serving.",
			Args:  cobra.NoArgs,
			RunE: run(func(ctx context.Context, c *console.Console, _ []string) error {
				return c.Health(ctx)
			}),
		},
		&cobra.Command{
			Use:   "hash-code",
			Short: "Hash an access code for the access_codes settings.",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				code, err := console.ReadCode(os.Stdin, os.Stderr)
				if err != nil {
					return err
				}

				return console.HashCode(cmd.OutOrStdout(), code)
			},
		},
	)
}
