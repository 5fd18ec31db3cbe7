// SPDX-License-Identifier: MIT

package demo_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/katalvlaran/entclone/internal/demo"
)

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, demo.Migrate(context.Background(), db))

	return db
}

func TestClone(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	src, err := demo.Seed(ctx, db, 3)
	require.NoError(t, err)

	for _, omit := range []bool{true, false} {
		t.Run(fmt.Sprintf("omit_linkage=%v", omit), func(t *testing.T) {
			sum, err := demo.Clone(ctx, db, src.ID, omit, nil)
			require.NoError(t, err)
			require.Equal(t, src.ID, sum.SourceID)
			require.NotEqual(t, src.ID, sum.CloneID)
			// project, 3 tasks, 6 comments, 2 tags
			require.Equal(t, 12, sum.Entities)
			// 3 tasks + 2 tags from the project, 1 back-pointer and 2 comments per task
			require.Equal(t, 14, sum.Edges)

			clone, err := demo.Load(ctx, db, sum.CloneID)
			require.NoError(t, err)
			require.Equal(t, "apollo", clone.Name)
			require.Len(t, clone.Tasks, 3)
			require.Len(t, clone.Tags, 2)
			for i, task := range clone.Tasks {
				require.Equal(t, fmt.Sprintf("task %d", i+1), task.Title)
				require.Equal(t, sum.CloneID, *task.ProjectID)
				require.Len(t, task.Comments, 2)
				for _, c := range task.Comments {
					require.Equal(t, task.ID, *c.TaskID)
				}
			}

			orig, err := demo.Load(ctx, db, src.ID)
			require.NoError(t, err)
			for _, task := range orig.Tasks {
				require.Equal(t, src.ID, *task.ProjectID, "source keys are untouched")
			}
		})
	}
}

func TestClone_Missing(t *testing.T) {
	db := openDB(t)
	_, err := demo.Clone(context.Background(), db, 404, true, nil)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestSeed_Negative(t *testing.T) {
	_, err := demo.Seed(context.Background(), openDB(t), -1)
	require.Error(t, err)
}
