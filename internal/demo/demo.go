// SPDX-License-Identifier: MIT

// Package demo holds the sample project/task/comment schema used by the
// entclone command, with helpers to seed, load and clone it.
package demo

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"gorm.io/gorm"

	"github.com/katalvlaran/entclone/gormadapter"
	"github.com/katalvlaran/entclone/graphclone"
)

// Project is the root of the demo graph: it owns tasks and shares tags.
type Project struct {
	ID       uint   `gorm:"primaryKey"`
	Name     string `gorm:"not null"`
	Archived bool   `gorm:"not null;default:false"`
	Tasks    []*Task
	Tags     []*Tag `gorm:"many2many:project_tags"`
}

// Task belongs to a project and owns comments.
type Task struct {
	ID        uint  `gorm:"primaryKey"`
	ProjectID *uint `gorm:"index"`
	Project   *Project
	Title     string `gorm:"not null"`
	Done      bool   `gorm:"not null;default:false"`
	Comments  []*Comment
}

// Comment is a leaf note on a task.
type Comment struct {
	ID     uint  `gorm:"primaryKey"`
	TaskID *uint `gorm:"index"`
	Body   string
}

// Tag labels projects through the project_tags join table.
type Tag struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"not null"`
}

// Models lists every demo model, parents first.
func Models() []any {
	return []any{&Project{}, &Task{}, &Comment{}, &Tag{}}
}

// Migrate creates the demo tables.
func Migrate(ctx context.Context, db *gorm.DB) error {
	return errors.Wrap(db.WithContext(ctx).AutoMigrate(Models()...), "demo: migrate")
}

// Seed writes a project with tasks tasks, two comments per task and two
// shared tags, and returns it.
func Seed(ctx context.Context, db *gorm.DB, tasks int) (*Project, error) {
	if tasks < 0 {
		return nil, errors.Newf("demo: negative task count %d", tasks)
	}
	p := &Project{
		Name: "apollo",
		Tags: []*Tag{{Name: "backend"}, {Name: "q3"}},
	}
	for i := 0; i < tasks; i++ {
		p.Tasks = append(p.Tasks, &Task{
			Title: fmt.Sprintf("task %d", i+1),
			Done:  i%2 == 0,
			Comments: []*Comment{
				{Body: fmt.Sprintf("opened task %d", i+1)},
				{Body: "looks good"},
			},
		})
	}
	if err := db.WithContext(ctx).Create(p).Error; err != nil {
		return nil, errors.Wrap(err, "demo: seed")
	}

	return p, nil
}

// Load reads project id with its tasks, their comments and its tags.
// Tasks point back at the loaded project.
func Load(ctx context.Context, db *gorm.DB, id uint) (*Project, error) {
	var p Project
	err := db.WithContext(ctx).
		Preload("Tasks", func(tx *gorm.DB) *gorm.DB { return tx.Order("id") }).
		Preload("Tasks.Comments", func(tx *gorm.DB) *gorm.DB { return tx.Order("id") }).
		Preload("Tags", func(tx *gorm.DB) *gorm.DB { return tx.Order("id") }).
		First(&p, id).Error
	if err != nil {
		return nil, errors.Wrapf(err, "demo: load project %d", id)
	}
	for _, t := range p.Tasks {
		t.Project = &p
	}

	return &p, nil
}

// Summary describes one clone run.
type Summary struct {
	SourceID uint
	CloneID  uint
	Entities int
	Edges    int
}

// Clone copies project id, its tasks, comments and tags, and commits the
// copies in one transaction.
func Clone(ctx context.Context, db *gorm.DB, id uint, omitLinkage bool, logger *log.Logger) (*Summary, error) {
	if logger == nil {
		logger = log.Default()
	}
	src, err := Load(ctx, db, id)
	if err != nil {
		return nil, err
	}
	provider, err := gormadapter.NewProvider(db, Models()...)
	if err != nil {
		return nil, err
	}
	uow, err := gormadapter.NewUnitOfWork(db, gormadapter.WithProvider(provider), gormadapter.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	res, err := graphclone.Run(src, uow,
		graphclone.WithProvider(provider),
		graphclone.WithOmitLinkage(omitLinkage),
		graphclone.WithLogger(logger),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "demo: clone project %d", id)
	}
	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}
	clone := res.Root.(*Project)
	logger.Info("cloned project", "source", src.ID, "clone", clone.ID, "entities", res.Len())

	return &Summary{
		SourceID: src.ID,
		CloneID:  clone.ID,
		Entities: res.Len(),
		Edges:    len(res.Edges()),
	}, nil
}
