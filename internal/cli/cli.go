// Package cli implements boxctl, the operator command line for inspecting
// box templates and re-materialising persisted boxes.
package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/iliyamo/box-builder/internal/config"
	"github.com/iliyamo/box-builder/internal/layout"
	"github.com/iliyamo/box-builder/internal/repository"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger   *log.Logger
	Registry *layout.Registry

	out       io.Writer
	openStore func(ctx context.Context) (repository.Store, error)
}

// New creates a CLI writing results to out and logs to logw.
func New(out, logw io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: log.NewWithOptions(logw, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Level:           level,
		}),
		Registry:  layout.Default(),
		out:       out,
		openStore: openConfiguredStore,
	}
}

func (c *CLI) SetLogLevel(level log.Level) { c.Logger.SetLevel(level) }

// RootCommand creates the root cobra command with all subcommands
// registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "boxctl",
		Short:        "Inspect box templates and rebuild stored boxes",
		SilenceUsage: true,
	}
	root.AddCommand(c.templatesCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.rebuildCommand())
	return root
}

func openConfiguredStore(ctx context.Context) (repository.Store, error) {
	cfg, err := config.Read()
	if err != nil {
		return nil, err
	}
	return repository.Open(ctx, cfg)
}
