package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sarahdemo/board"
	"sarahdemo/config"
	"sarahdemo/dispatch"
	"sarahdemo/persona"
	"sarahdemo/provider"
	"sarahdemo/server"
)

const Version = "v0.01.00"

var (
	// Global flags
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger

	boardProvider string
	clearScope    string
)

// skipConfig marks commands that run before a valid configuration exists.
const skipConfig = "skip-config"

var rootCmd = &cobra.Command{
	Use:     "sarahdemo",
	Short:   "Sarah - AI sales engineer demo backend",
	Version: Version,
	Long: `sarahdemo serves the chat, call and voice routes of the Sarah sales demo.

Sarah talks to a visitor through a completion model and builds their workflow
live on a Monday.com or Trello board.

Run without arguments to start the HTTP server.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if _, ok := cmd.Annotations[skipConfig]; ok {
			return nil
		}

		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		logger, err = config.NewLogger(cfg.Debug || verbose)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

var initConfigCmd = &cobra.Command{
	Use:         "init-config",
	Short:       "Write a commented settings file if none exists",
	Annotations: map[string]string{skipConfig: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if path == "" {
			path = config.GetSettingsFilePath()
		}
		created, err := config.CreateDefaultConfig(path)
		if err != nil {
			return err
		}
		if created {
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "%s already exists\n", path)
		}
		return nil
	},
}

var personasCmd = &cobra.Command{
	Use:   "personas",
	Short: "List the loaded personas",
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := persona.Load(cfg.PersonaDir())
		if err != nil {
			return err
		}
		for _, id := range catalog.IDs() {
			p, _ := catalog.Get(id)
			fmt.Fprintf(cmd.OutOrStdout(), "%-16s %-7s %s\n", p.ID, p.Board, p.Title)
		}
		return nil
	},
}

var personasDumpCmd = &cobra.Command{
	Use:   "dump [persona-id]",
	Short: "Print a persona as TOML, ready to copy into the persona directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := persona.Load(cfg.PersonaDir())
		if err != nil {
			return err
		}
		p, err := catalog.Get(args[0])
		if err != nil {
			return err
		}
		return persona.Dump(cmd.OutOrStdout(), p)
	},
}

var clearBoardCmd = &cobra.Command{
	Use:   "clear-board",
	Short: "Delete every item on the demo board",
	RunE: func(cmd *cobra.Command, args []string) error {
		var adapter board.Adapter
		switch boardProvider {
		case persona.BoardMonday:
			adapter = board.NewMonday(cfg.Monday, cfg.Server.HTTPTimeout, logger)
		case persona.BoardTrello:
			scope := board.ScopeBoard
			if clearScope == "list" {
				scope = board.ScopeList
			}
			adapter = board.NewTrello(cfg.Trello, cfg.Server.HTTPTimeout, logger, board.WithScope(scope))
		default:
			return fmt.Errorf("unknown board provider %q (want monday or trello)", boardProvider)
		}

		if !adapter.Configured() {
			return fmt.Errorf("%s credentials are not configured", adapter.Name())
		}
		n, err := adapter.ClearBoard(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d items from %s\n", n, adapter.Name())
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Settings file (default: ~/.config/sarahdemo/settings.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	clearBoardCmd.Flags().StringVar(&boardProvider, "provider", "", "Board to clear: monday or trello")
	clearBoardCmd.Flags().StringVar(&clearScope, "scope", "board", "Trello scope: list or board")
	_ = clearBoardCmd.MarkFlagRequired("provider")

	personasCmd.AddCommand(personasDumpCmd)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(initConfigCmd)
	rootCmd.AddCommand(personasCmd)
	rootCmd.AddCommand(clearBoardCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	completion, err := provider.Initialize(ctx, cfg, logger)
	if err != nil {
		return err
	}

	catalog, err := persona.Load(cfg.PersonaDir())
	if err != nil {
		return err
	}
	logger.Info("personas loaded", zap.Strings("ids", catalog.IDs()))

	logBoardStatus(cfg, logger)

	if !cfg.Debug && !verbose {
		gin.SetMode(gin.ReleaseMode)
	}

	d := dispatch.New(completion, logger)
	srv := server.New(cfg, d, catalog, logger)
	return srv.Run(ctx)
}

func logBoardStatus(cfg *config.Config, logger *zap.Logger) {
	boards := server.NewBoardFactory(cfg, logger)
	for _, a := range []board.Adapter{boards.Monday(""), boards.Trello(board.ScopeList)} {
		if !a.Configured() {
			logger.Warn("board credentials missing, mutations are no-ops", zap.String("board", a.Name()))
		}
	}
	if cfg.Speech.APIKey == "" {
		logger.Warn("speech API key missing, /api/tts will fail")
	}
}
