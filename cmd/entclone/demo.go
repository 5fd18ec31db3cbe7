// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/glebarez/sqlite"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/katalvlaran/entclone/internal/demo"
)

func newDemoCmd(g *globals) *cobra.Command {
	var (
		tasks   int
		project uint
	)
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Seed a sample project into SQLite and clone it",
		Long: `demo migrates the sample schema, seeds a project with tasks,
comments and tags (unless --project names an existing one), clones the
whole graph and commits the copy in one transaction.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, l, err := g.load(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if c.Database.Timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, c.Database.Timeout)
				defer cancel()
			}

			db, err := gorm.Open(sqlite.Open(c.Database.DSN), &gorm.Config{
				DisableForeignKeyConstraintWhenMigrating: true,
				Logger:                                   logger.Default.LogMode(logger.Silent),
			})
			if err != nil {
				return errors.Wrapf(err, "open %s", c.Database.DSN)
			}
			if err = demo.Migrate(ctx, db); err != nil {
				return err
			}
			if project == 0 {
				src, err := demo.Seed(ctx, db, tasks)
				if err != nil {
					return err
				}
				project = src.ID
				l.Debug("seeded project", "id", project, "tasks", tasks)
			}

			sum, err := demo.Clone(ctx, db, project, c.Clone.OmitLinkage, l)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "project %d cloned to %d: %d entities, %d edges\n",
				sum.SourceID, sum.CloneID, sum.Entities, sum.Edges)

			return err
		},
	}
	fs := cmd.Flags()
	fs.IntVarP(&tasks, "tasks", "n", 3, "tasks to seed")
	fs.UintVarP(&project, "project", "p", 0, "clone an existing project instead of seeding one")
	fs.String("dsn", "", "database DSN (overrides database.dsn)")
	fs.Bool("omit-linkage", true, "leave foreign key fields unset on copies")

	return cmd
}
