package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"lsp-finder/src/internal/common"
	"lsp-finder/src/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the finder on stdio",
	Long: `Serve speaks JSON-RPC on stdin/stdout. It is meant to be spawned by
the editor plugin, which keeps the connection for the whole session.
Logs go to stderr only.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunServe(configPath)
	},
}

// RunServe runs the stdio gateway until the connection closes or a
// signal arrives.
func RunServe(configPath string) error {
	cfg := loadConfigWithFallback(configPath)
	applyLogLevel(cfg.LogLevel)

	gateway := server.NewGateway(cfg, stdioPipe{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		common.CLILogger.Info("received shutdown signal, closing connection")
		cancel()
	}()

	common.CLILogger.Info("lsp-finder serving on stdio")
	err := gateway.Serve(ctx)
	if err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func applyLogLevel(level string) {
	if verbose {
		common.SetGlobalLevel(common.LogDebug)
		return
	}
	switch level {
	case "debug":
		common.SetGlobalLevel(common.LogDebug)
	case "warn":
		common.SetGlobalLevel(common.LogWarn)
	case "error":
		common.SetGlobalLevel(common.LogError)
	default:
		common.SetGlobalLevel(common.LogInfo)
	}
}

// stdioPipe welds stdin and stdout into the single stream the JSON-RPC
// connection wants. Close only closes stdout so the editor sees EOF.
type stdioPipe struct{}

func (stdioPipe) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (stdioPipe) Write(p []byte) (int, error) { return os.Stdout.Write(p) }
func (stdioPipe) Close() error                { return os.Stdout.Close() }
