package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shaiso/Deployer/internal/orchestrator"
	"github.com/shaiso/Deployer/internal/progress"
	"github.com/shaiso/Deployer/internal/session"
)

func newConnectionCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "connection",
		Short: "Check SSH connectivity",
	}

	cmd.AddCommand(newConnectionTestCmd(app))
	return cmd
}

func newConnectionTestCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test",
		Short: "Connect to the server and detect its OS",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := app.output(cmd)

			sess, err := app.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer sess.Close()

			osName, err := sess.Execute(cmd.Context(), session.OSProbeCommand)
			if err != nil {
				return fmt.Errorf("%w: %w", orchestrator.ErrOSProbe, err)
			}

			result := struct {
				Addr string `json:"addr"`
				OS   string `json:"os"`
			}{sess.Addr(), orchestrator.ParseOS(osName)}

			out.Print([]string{"ADDR", "OS"}, [][]string{{result.Addr, result.OS}}, result)
			return nil
		},
	}

	app.addServerFlags(cmd)
	return cmd
}

func newExecCmd(app *App) *cobra.Command {
	var stream bool

	cmd := &cobra.Command{
		Use:   "exec -- <command>",
		Short: "Run a shell command on the server",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := app.output(cmd)
			command := strings.Join(args, " ")

			sess, err := app.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer sess.Close()

			if stream {
				return sess.ExecuteStream(cmd.Context(), command, progress.Writer{W: cmd.OutOrStdout()})
			}

			stdout, err := sess.Execute(cmd.Context(), command)
			if err != nil {
				return err
			}
			out.Text(stdout)
			return nil
		},
	}

	cmd.Flags().BoolVar(&stream, "stream", false, "Print output as it arrives")
	app.addServerFlags(cmd)
	return cmd
}
