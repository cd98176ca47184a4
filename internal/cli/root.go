package cli

import (
	"fmt"
	"slices"

	"github.com/0xRadioAc7iv/go-packetstore/internal/config"
	"github.com/0xRadioAc7iv/go-packetstore/internal/logger"
	"github.com/0xRadioAc7iv/go-packetstore/packetstore"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Dir        string
	ConfigPath string
	Engine     string
	Bprefix    string
	LogLevel   string

	cfg *config.Config
}

// ValidEngines defines the allowed storage engines.
var ValidEngines = []string{string(packetstore.EngineLog), string(packetstore.EngineSQLite)}

// NewRootCommand creates the root command for the packetstore CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "packetstore",
		Short: "Inspect and edit persisted in-flight packets",
		Long: `Inspect and edit the incoming and outgoing packet stores a
publish/subscribe client keeps for its QoS 1 and QoS 2 exchanges.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd)
		},
	}

	// Global flags
	cmd.PersistentFlags().StringVar(&opts.Dir, "dir", "", "store base directory (default ~/.mqtt-packetstore)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file")
	cmd.PersistentFlags().StringVar(&opts.Engine, "engine", string(packetstore.EngineLog), "storage engine (log|sqlite)")
	cmd.PersistentFlags().StringVar(&opts.Bprefix, "bprefix", packetstore.DefaultBinaryPrefix, "prefix marking base64 encoded bytes")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "info", "log level (debug|info|warn|error)")

	cmd.AddCommand(NewLsCommand(opts))
	cmd.AddCommand(NewGetCommand(opts))
	cmd.AddCommand(NewPutCommand(opts))
	cmd.AddCommand(NewDelCommand(opts))
	cmd.AddCommand(NewCountCommand(opts))
	cmd.AddCommand(NewCompactCommand(opts))
	cmd.AddCommand(NewShellCommand(opts))

	return cmd
}

// load merges the config file and environment with flags given explicitly
// on the command line, flags winning.
func (o *RootOptions) load(cmd *cobra.Command) error {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("dir") {
		cfg.Dir = o.Dir
	}
	if flags.Changed("engine") {
		cfg.Engine = o.Engine
	}
	if flags.Changed("bprefix") {
		cfg.Bprefix = o.Bprefix
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = o.LogLevel
	}

	if !slices.Contains(ValidEngines, cfg.Engine) {
		return fmt.Errorf("invalid engine %q: must be one of %v", cfg.Engine, ValidEngines)
	}

	logger.Init(cfg.Log)
	o.cfg = cfg
	return nil
}

func (o *RootOptions) openManager() (*packetstore.Manager, error) {
	cfg := o.cfg
	if cfg == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}

	return packetstore.NewManager(cfg.Dir,
		packetstore.WithManagerLogger(logger.Get()),
		packetstore.WithStoreOptions(
			packetstore.WithEngine(packetstore.EngineKind(cfg.Engine)),
			packetstore.WithBinaryPrefix(cfg.Bprefix),
			packetstore.WithPageSize(cfg.Limit),
			packetstore.WithAutocompactionInterval(cfg.Autocompaction.Interval),
		),
	)
}

// withSession opens the manager for the duration of fn.
func (o *RootOptions) withSession(cmd *cobra.Command, fn func(s *session) error) error {
	m, err := o.openManager()
	if err != nil {
		return err
	}
	defer m.Close()

	return fn(&session{m: m, out: cmd.OutOrStdout()})
}
