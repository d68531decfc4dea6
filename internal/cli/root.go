// Package cli defines the command-line interface for kvcache.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// All linker flags will be set at build time.
var version = "dev"

// Execute runs the root command against os.Args.
func Execute() error {
	return NewRootCmd(viper.New(), os.Stdout).ExecuteContext(context.Background())
}

// app carries per-invocation state shared by subcommands.
type app struct {
	v   *viper.Viper
	out io.Writer
	cfg Config
	log *zap.Logger
}

// NewRootCmd builds the command tree. Each call gets its own viper instance so
// tests can run commands side by side.
func NewRootCmd(v *viper.Viper, out io.Writer) *cobra.Command {
	a := &app{v: v, out: out}

	root := &cobra.Command{
		Use:                "kvcache",
		Short:              "Read and write cache envelopes in a key-value store.",
		Version:            version,
		SilenceErrors:      true,
		SilenceUsage:       true,
		DisableSuggestions: true,
		PersistentPreRunE:  a.setup,
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}
	root.SetOut(out)

	pf := root.PersistentFlags()
	pf.String("config", "", "Path to config file")
	pf.String("backend", DefaultBackend, backendUsage())
	pf.StringSlice("hosts", nil, "Comma-separated host:port list (redis)")
	pf.String("partition", "", "Default namespace (empty => test)")
	pf.String("segment", "", "Default segment (empty => test)")
	pf.String("path", DefaultPath, "Database file (bbolt)")
	pf.String("password", "", "Store password (redis)")
	pf.Int("db", 0, "Database number (redis)")
	pf.String("codec", DefaultCodec, "Item codec: json or msgpack or cbor or proto")
	pf.Int("max-item-bytes", 0, "Reject items larger than this when encoded (0 = unlimited)")
	pf.String("log-level", DefaultLogLevel, "Log level: debug or info or warn or error")
	if err := v.BindPFlags(pf); err != nil {
		panic(fmt.Sprintf("binding root flags: %v", err))
	}

	root.AddCommand(a.getCmd(), a.setCmd(), a.dropCmd(), a.checkSegmentCmd())
	return root
}

// setup merges defaults, config file, env and flags into a.cfg.
func (a *app) setup(_ *cobra.Command, _ []string) error {
	v := a.v
	if configFile := v.GetString("config"); configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(".kvcache")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME")
	}

	v.SetEnvPrefix("KVCACHE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}
	if err := v.Unmarshal(&a.cfg); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}

	log, err := newLogger(a.cfg.LogLevel)
	if err != nil {
		return err
	}
	a.log = log
	return nil
}
