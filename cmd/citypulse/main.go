// citypulse is the client CLI: it stages documents into a batch,
// sends them to a running citypulsed for extraction (falling back to
// the simulator when the daemon is unavailable), and writes the
// exported dataset next to the inputs.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()

	logLevel := slog.LevelWarn
	if os.Getenv("CITYPULSE_DEBUG") != "" {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	root := &cobra.Command{
		Use:   "citypulse",
		Short: "Extract traffic observations from maps, charts and reports",
	}
	root.AddCommand(newProcessCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
