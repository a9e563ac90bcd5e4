// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/go-a2a/a2a-agent/internal/config"
)

// version is overridden at link time.
var version = "dev"

// app is the state shared by every subcommand.
type app struct {
	v       *viper.Viper
	cfgFile string

	cfg    *config.Config
	logger *slog.Logger
}

func newRootCommand() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:           "a2a-agent",
		Short:         "Serve and call A2A agents over JSON-RPC",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default ./"+config.FileName+".yaml)")
	flags.String("log-level", "info", "log level: debug, info, warn or error")
	flags.String("log-format", "text", "log format: text or json")
	bind(flags, "log-level", "log.level")
	bind(flags, "log-format", "log.format")

	root.AddCommand(
		newServeCommand(a),
		newSendCommand(a),
		newCardCommand(a),
		newConfigCommand(a),
	)
	return root
}

// configKeyAnnotation marks a flag with the config key it overrides.
const configKeyAnnotation = "a2a-agent/config-key"

// bind ties the named flag to a config key. Several commands may bind
// their own flag to the same key; only the running command's flags are
// bound, and they only override when set.
func bind(flags *pflag.FlagSet, name, key string) {
	if err := flags.SetAnnotation(name, configKeyAnnotation, []string{key}); err != nil {
		panic(fmt.Sprintf("binding %s: %v", key, err))
	}
}

func (a *app) load(cmd *cobra.Command) error {
	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if keys := f.Annotations[configKeyAnnotation]; len(keys) > 0 && bindErr == nil {
			bindErr = a.v.BindPFlag(keys[0], f)
		}
	})
	if bindErr != nil {
		return bindErr
	}

	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = cfg.Log.NewLogger(cmd.ErrOrStderr())
	slog.SetDefault(a.logger)
	return nil
}
