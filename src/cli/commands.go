package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"lsp-finder/src/config"
	"lsp-finder/src/internal/common"
)

const Version = "0.1.0"

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "lsp-finder",
	Short: "lsp-finder - multi-client LSP request multiplexer for fuzzy-finder UIs",
	Long: `lsp-finder fans LSP requests out to every attached client of an editor
LSP ecosystem (nvim-lsp, coc.nvim or vim-lsp), normalizes the results
into finder items and applies the chosen actions.

It talks JSON-RPC on stdin/stdout with the editor plugin: the plugin
calls down with finder/* requests and the finder calls back up with
host/* requests against the live editor.

QUICK START:
  lsp-finder serve                       # Serve on stdio (run by the plugin)
  lsp-finder config generate             # Write the default config file`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("lsp-finder %s\n", Version)
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfigWithFallback(configPath)
		fmt.Printf("default_client: %s\n", cfg.DefaultClient)
		fmt.Printf("request_timeout: %s\n", cfg.RequestTimeout())
		fmt.Printf("overall_timeout: %s\n", cfg.OverallTimeout())
		fmt.Printf("auto_expand_single: %t\n", cfg.AutoExpandSingle)
		fmt.Printf("include_declaration: %t\n", cfg.IncludeDeclaration)
		fmt.Printf("log_level: %s\n", cfg.LogLevel)
		return nil
	},
}

var configGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write the default configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if path == "" {
			path = config.GetDefaultConfigPath()
		}
		if err := config.GenerateDefaultConfig(path); err != nil {
			return err
		}
		common.CLILogger.Info("wrote default config to %s", path)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "debug logging")

	configCmd.AddCommand(configShowCmd, configGenerateCmd)
	rootCmd.AddCommand(serveCmd, configCmd, versionCmd)
}

// loadConfigWithFallback loads the named config, falling back to the
// default path and then to built-in defaults.
func loadConfigWithFallback(path string) *config.Config {
	if path == "" {
		path = config.GetDefaultConfigPath()
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		common.CLILogger.Debug("config %s not loaded (%v), using defaults", path, err)
		return config.GetDefaultConfig()
	}
	return cfg
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}
