package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/shaiso/Deployer/internal/config"
	"github.com/shaiso/Deployer/internal/domain"
	"github.com/shaiso/Deployer/internal/mq"
	"github.com/shaiso/Deployer/internal/orchestrator"
	"github.com/shaiso/Deployer/internal/progress"
)

// newFlowCmd создаёт группу команд для работы с flows.
func newFlowCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flow",
		Short: "List, inspect and run flows",
	}

	cmd.AddCommand(
		newFlowListCmd(app),
		newFlowShowCmd(app),
		newFlowRunCmd(app),
	)

	return cmd
}

func newFlowListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List flows from the flows directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := app.output(cmd)

			catalog, err := app.catalog()
			if err != nil {
				return err
			}

			flows := catalog.All()
			headers := []string{"NAME", "STEPS", "LOCAL", "DESCRIPTION"}
			rows := make([][]string, len(flows))
			for i, f := range flows {
				rows[i] = []string{f.Name, strconv.Itoa(len(f.Steps)), strconv.FormatBool(f.Local), f.Description}
			}

			out.Print(headers, rows, flows)
			return nil
		},
	}
}

func newFlowShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Show flow parameters and steps",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := app.output(cmd)

			catalog, err := app.catalog()
			if err != nil {
				return err
			}
			def, ok := catalog.Lookup(args[0])
			if !ok {
				return fmt.Errorf("%w: %s", orchestrator.ErrFlowNotFound, args[0])
			}

			if out.JSONMode() {
				out.JSON(def)
				return nil
			}

			params := make([]string, len(def.Parameters))
			for i, p := range def.Parameters {
				params[i] = p.Name
				if p.Required {
					params[i] += "*"
				}
			}

			out.Fields([][2]string{
				{"Name", def.Name},
				{"Description", def.Description},
				{"Local", strconv.FormatBool(def.Local)},
				{"Parameters", strings.Join(params, ", ")},
			})
			out.Text("\n")

			rows := make([][]string, len(def.Steps))
			for i, s := range def.Steps {
				rows[i] = []string{strconv.Itoa(i), s.Type, s.Name, s.Condition}
			}
			out.Table([]string{"#", "TYPE", "NAME", "CONDITION"}, rows)
			return nil
		},
	}
}

func newFlowRunCmd(app *App) *cobra.Command {
	var (
		argPairs     []string
		argsFile     string
		settingsFile string
		interval     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "run <name>",
		Short: "Run a flow on the server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := app.output(cmd)
			logger := app.logger

			flowArgs, err := parseArgs(argPairs, argsFile)
			if err != nil {
				return err
			}

			var settings domain.HospitalSettings
			if settingsFile != "" {
				s, err := config.LoadHospitalSettings(settingsFile)
				if err != nil {
					return err
				}
				settings = *s
			}

			catalog, err := app.catalog()
			if err != nil {
				return err
			}

			stopMetrics := app.serveMetrics()
			defer stopMetrics()

			ecfg := orchestrator.Config{
				Catalog:  catalog,
				Registry: app.registry(),
				CacheDir: app.cfg.CacheDir,
				Logger:   logger,
			}
			if app.cfg.DBURL != "" {
				runs, closeHistory, err := app.openHistory(ctx)
				if err != nil {
					logger.Warn("run history not available", "error", err)
				} else {
					defer closeHistory()
					ecfg.Runs = runs
				}
			}

			eng := orchestrator.New(ecfg)
			def, err := eng.Lookup(args[0])
			if err != nil {
				return err
			}

			sess, err := app.connect(ctx)
			if err != nil {
				return err
			}
			defer sess.Close()

			sinks := []progress.Sink{
				progress.Writer{W: cmd.OutOrStdout()},
				NewConsole(def, cmd.ErrOrStderr()),
				progress.NewLog(logger),
			}

			if app.cfg.RabbitMQURL != "" {
				conn, err := mq.NewConnection(app.cfg.RabbitMQURL, logger)
				if err != nil {
					logger.Warn("RabbitMQ not available, progress is not published", "error", err)
				} else {
					defer conn.Close()
					if err := mq.SetupTopology(ctx, conn); err != nil {
						logger.Warn("failed to setup topology", "error", err)
					}
					pub := mq.NewProgressPublisher(mq.NewPublisher(conn, logger), def.Name, sess.Addr(), interval, logger)
					sinks = append(sinks, pub)
					out.Success("Progress stream: " + pub.Stream().String())
				}
			}

			if err := eng.RunFlow(ctx, def.Name, settings, flowArgs, sess, progress.Multi(sinks...)); err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Flow %s finished", def.Name))
			return nil
		},
	}

	f := cmd.Flags()
	f.StringArrayVarP(&argPairs, "arg", "a", nil, "Flow argument key=value (repeat a key for a list)")
	f.StringVar(&argsFile, "args-file", "", "JSON file with flow arguments")
	f.StringVar(&settingsFile, "settings", "", "Hospital settings file")
	f.DurationVar(&interval, "progress-interval", mq.DefaultProgressInterval, "Minimum interval between published progress events")
	app.addServerFlags(cmd)

	return cmd
}
