package commands

import (
	"bufio"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tallybot/tally/internal/metrics"
	"github.com/tallybot/tally/internal/service"
)

// repl: feed stdin lines to the treasurer until EOF. A line may switch the
// sender with an "XX: " prefix; otherwise the --from handle applies.
func replCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Interactive treasurer session reading messages from stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.MetricsAddr != "" {
				go func() {
					slog.Info("metrics listener starting", "address", cfg.MetricsAddr)
					if err := metrics.Serve(cfg.MetricsAddr); err != nil {
						slog.Error("metrics listener failed", "error", err)
					}
				}()
			}

			scanner := bufio.NewScanner(cmd.InOrStdin())
			for scanner.Scan() {
				sender, text := splitSender(scanner.Text(), from)
				if sender == "" {
					continue
				}
				reply, ok := treasurer.Handle(cmd.Context(), service.Message{
					Sender: sender,
					Date:   time.Now(),
					Text:   text,
				})
				if ok {
					fmt.Fprintln(cmd.OutOrStdout(), reply)
				}
			}
			return scanner.Err()
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "default sender handle (two uppercase letters)")
	return cmd
}

// splitSender peels an optional "XX: " sender prefix off a line, falling
// back to the given default. An empty sender means the line has no usable
// sender and must be skipped.
func splitSender(line, fallback string) (sender, text string) {
	if len(line) >= 4 && line[2] == ':' && line[3] == ' ' && isHandle(line[:2]) {
		return line[:2], strings.TrimSpace(line[4:])
	}
	return fallback, line
}

func isHandle(s string) bool {
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return len(s) == 2
}
