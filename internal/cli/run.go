package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/shaiso/Deployer/internal/domain"
	"github.com/shaiso/Deployer/internal/repo"
)

// openHistory подключается к PostgreSQL и готовит схему истории.
func (a *App) openHistory(ctx context.Context) (*repo.RunRepo, func(), error) {
	if a.cfg.DBURL == "" {
		return nil, nil, ErrHistoryDisabled
	}

	pool, err := repo.NewPool(ctx, a.cfg.DBURL)
	if err != nil {
		return nil, nil, err
	}
	if err := repo.EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, err
	}

	a.logger.Debug("database connected")
	return repo.NewRunRepo(pool), pool.Close, nil
}

// newRunCmd создаёт группу команд истории запусков.
func newRunCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Inspect flow run history",
	}

	cmd.AddCommand(
		newRunListCmd(app),
		newRunShowCmd(app),
	)

	return cmd
}

func newRunListCmd(app *App) *cobra.Command {
	var filter repo.RunFilter
	var status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := app.output(cmd)

			runs, closeHistory, err := app.openHistory(cmd.Context())
			if err != nil {
				return err
			}
			defer closeHistory()

			if status != "" {
				filter.Status = domain.ParseRunStatus(strings.ToUpper(status))
			}

			list, err := runs.List(cmd.Context(), filter)
			if err != nil {
				return err
			}

			headers := []string{"ID", "FLOW", "HOST", "STATUS", "STEP", "CREATED"}
			rows := make([][]string, len(list))
			for i, r := range list {
				rows[i] = []string{
					r.ID.String(),
					r.FlowName,
					r.Host,
					r.Status.String(),
					stepOf(&r),
					r.CreatedAt.Format(time.DateTime),
				}
			}

			out.Print(headers, rows, list)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&filter.FlowName, "flow", "", "Filter by flow name")
	f.StringVar(&status, "status", "", "Filter by status")
	f.IntVar(&filter.Limit, "limit", 50, "Max results")
	f.IntVar(&filter.Offset, "offset", 0, "Skip results")

	return cmd
}

func newRunShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show run details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := app.output(cmd)

			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid run id %q: %w", args[0], err)
			}

			runs, closeHistory, err := app.openHistory(cmd.Context())
			if err != nil {
				return err
			}
			defer closeHistory()

			run, err := runs.GetByID(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("run %s: %w", id, err)
			}

			if out.JSONMode() {
				out.JSON(run)
				return nil
			}

			out.Fields([][2]string{
				{"ID", run.ID.String()},
				{"Flow", run.FlowName},
				{"Host", run.Host},
				{"Status", run.Status.String()},
				{"Step", stepOf(run)},
				{"Started", formatTime(run.StartedAt)},
				{"Finished", formatTime(run.FinishedAt)},
				{"Duration", formatDuration(run)},
				{"Error", run.Error},
			})
			return nil
		},
	}
}

// stepOf возвращает «текущий/всего» в нумерации с единицы.
func stepOf(r *domain.Run) string {
	return strconv.Itoa(r.CurrentStep+1) + "/" + strconv.Itoa(r.StepCount)
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.DateTime)
}

func formatDuration(r *domain.Run) string {
	if r.StartedAt == nil {
		return ""
	}
	return r.Duration().Round(time.Millisecond).String()
}
