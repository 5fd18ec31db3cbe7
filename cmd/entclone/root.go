// SPDX-License-Identifier: MIT

package main

import (
	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/katalvlaran/entclone/config"
)

// globals are the persistent flags shared by every subcommand.
type globals struct {
	configPath string
	logLevel   string
	logFormat  string
}

func (g *globals) bind(fs *pflag.FlagSet) {
	fs.StringVarP(&g.configPath, "config", "c", "", "path to a YAML config file")
	fs.StringVar(&g.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	fs.StringVar(&g.logFormat, "log-format", "", "log format (text, json, logfmt)")
}

// load reads the config file and applies flag overrides set on cmd.
func (g *globals) load(cmd *cobra.Command) (*config.Config, *log.Logger, error) {
	v := config.New()
	if g.configPath != "" {
		v.SetConfigFile(g.configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, nil, errors.Wrapf(err, "read %s", g.configPath)
		}
	}
	flags := cmd.Flags()
	for key, name := range map[string]string{
		"log.level":          "log-level",
		"log.format":         "log-format",
		"database.dsn":       "dsn",
		"clone.omit_linkage": "omit-linkage",
	} {
		if f := flags.Lookup(name); f != nil && f.Changed {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, nil, err
			}
		}
	}
	c, err := config.Decode(v)
	if err != nil {
		return nil, nil, err
	}
	logger, err := c.Logger(cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, err
	}

	return c, logger, nil
}

func newRootCmd() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:          "entclone",
		Short:        "Clone entity graphs and persist the copies",
		SilenceUsage: true,
	}
	g.bind(root.PersistentFlags())
	root.AddCommand(newDemoCmd(g))

	return root
}
