package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/shaiso/Deployer/internal/mq"
)

func newProgressCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "progress",
		Short: "Follow flow progress published to RabbitMQ",
	}

	cmd.AddCommand(newProgressWatchCmd(app))
	return cmd
}

func newProgressWatchCmd(app *App) *cobra.Command {
	var stream string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print progress events until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if app.cfg.RabbitMQURL == "" {
				return ErrBrokerDisabled
			}

			conn, err := mq.NewConnection(app.cfg.RabbitMQURL, app.logger)
			if err != nil {
				return err
			}
			defer conn.Close()

			queue, err := mq.DeclareWatchQueue(ctx, conn)
			if err != nil {
				return err
			}

			w := &watcher{out: cmd.OutOrStdout(), stream: stream, json: app.jsonOutput}
			consumer := mq.NewConsumer(conn, app.logger, mq.ConsumerConfig{
				Queue:   queue,
				Handler: w.handle,
			})

			err = consumer.Run(ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVar(&stream, "stream", "", "Only show events of this stream id")
	return cmd
}

// watcher печатает события прогресса.
type watcher struct {
	out    io.Writer
	stream string
	json   bool
}

// streamOf — общая часть всех payload.
type streamOf struct {
	Stream string `json:"stream"`
}

func (w *watcher) handle(_ context.Context, msg *mq.Message) error {
	head, err := mq.ParsePayload[streamOf](msg)
	if err != nil {
		return err
	}
	if w.stream != "" && head.Stream != w.stream {
		return nil
	}

	if w.json {
		return json.NewEncoder(w.out).Encode(msg)
	}

	switch msg.Type {
	case mq.MessageTypeFlowStep:
		p, err := mq.ParsePayload[mq.StepPayload](msg)
		if err != nil {
			return err
		}
		fmt.Fprintf(w.out, "[%s] %s@%s step %d\n", shortStream(p.Stream.String()), p.Flow, p.Host, p.Step)

	case mq.MessageTypeTransferProgress:
		p, err := mq.ParsePayload[mq.TransferPayload](msg)
		if err != nil {
			return err
		}
		fmt.Fprintf(w.out, "[%s] %s %s / %s (%.0f%%)\n", shortStream(p.Stream.String()), p.Flow,
			p.Event.ProcessedSizeFormat, p.Event.TotalSizeFormat, p.Event.ProgressPercent)

	case mq.MessageTypeCommandOutput:
		p, err := mq.ParsePayload[mq.OutputPayload](msg)
		if err != nil {
			return err
		}
		io.WriteString(w.out, p.Output)

	default:
		return fmt.Errorf("unknown message type %q", msg.Type)
	}

	return nil
}

func shortStream(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
