// SPDX-License-Identifier: MIT

package gormadapter_test

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/katalvlaran/entclone/gormadapter"
	"github.com/katalvlaran/entclone/graphclone"
	"github.com/katalvlaran/entclone/schema"
	"github.com/katalvlaran/entclone/session"
)

type User struct {
	ID   uint `gorm:"primaryKey"`
	Name string
}

type Label struct {
	ID   uint `gorm:"primaryKey"`
	Name string
}

type Slug struct {
	ID   uint   `gorm:"primaryKey"`
	Code string `gorm:"uniqueIndex"`
}

type Board struct {
	ID      uint `gorm:"primaryKey"`
	Title   string
	OwnerID *uint
	Owner   *User
	Cards   []*Card
	Labels  []*Label `gorm:"many2many:board_labels"`
	Cache   string   `gorm:"-"`
}

type Card struct {
	ID      uint `gorm:"primaryKey"`
	BoardID *uint
	Board   *Board
	Text    string
	Notes   []*Note `gorm:"polymorphic:Owner"`
}

type Note struct {
	ID        uint `gorm:"primaryKey"`
	OwnerID   uint
	OwnerType string
	Body      string
}

type valueShaped struct {
	ID     uint `gorm:"primaryKey"`
	UserID uint
	User   User
}

var models = []any{&User{}, &Label{}, &Slug{}, &Board{}, &Card{}, &Note{}}

// openDB returns an isolated in-memory database with the test models migrated.
func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models...))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	return db
}

func count(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)

	return n
}

func TestProvider_Describe(t *testing.T) {
	p, err := gormadapter.NewProvider(nil, models...)
	require.NoError(t, err)

	d, err := p.Describe(reflect.TypeOf(&Board{}))
	require.NoError(t, err)
	assert.Equal(t, []string{"ID"}, d.Identity)
	assert.Equal(t, []string{"OwnerID"}, d.Linkage)
	rels := make(map[string]schema.Kind)
	for _, r := range d.Relationships {
		rels[r.Name] = r.Kind
	}
	assert.Equal(t, map[string]schema.Kind{"Owner": schema.ToOne, "Cards": schema.ToMany, "Labels": schema.ToMany}, rels)
	_, ok := d.Field("Cache")
	assert.False(t, ok, "gorm:\"-\" fields are not copied")
	_, ok = d.Field("Title")
	assert.True(t, ok)

	d, err = p.Describe(reflect.TypeOf(Card{}))
	require.NoError(t, err)
	assert.Equal(t, []string{"BoardID"}, d.Linkage)

	d, err = p.Describe(reflect.TypeOf(Note{}))
	require.NoError(t, err)
	assert.Equal(t, []string{"OwnerID", "OwnerType"}, d.Linkage, "polymorphic columns are linkage")
	assert.Empty(t, d.Relationships)

	again, err := p.Describe(reflect.TypeOf(&Note{}))
	require.NoError(t, err)
	assert.Same(t, d, again)
}

func TestProvider_Errors(t *testing.T) {
	p, err := gormadapter.NewProvider(nil)
	require.NoError(t, err)

	_, err = p.Describe(reflect.TypeOf(valueShaped{}))
	assert.ErrorIs(t, err, schema.ErrIntrospection)
	assert.ErrorIs(t, err, schema.ErrBadRelationship)

	_, err = p.Describe(reflect.TypeOf(42))
	assert.ErrorIs(t, err, schema.ErrNotStruct)

	_, err = p.Schema(nil)
	assert.ErrorIs(t, err, schema.ErrNilEntity)
}

// seed writes a board owned by an existing user, with two labels and two
// cards carrying polymorphic notes.
func seed(t *testing.T, db *gorm.DB) *Board {
	t.Helper()
	owner := &User{Name: "ada"}
	labels := []*Label{{Name: "red"}, {Name: "blue"}}
	require.NoError(t, db.Create(owner).Error)
	require.NoError(t, db.Create(&labels).Error)

	b := &Board{
		Title:   "roadmap",
		OwnerID: &owner.ID,
		Labels:  labels,
		Cards: []*Card{
			{Text: "plan", Notes: []*Note{{Body: "first"}}},
			{Text: "ship", Notes: []*Note{{Body: "second"}, {Body: "third"}}},
		},
	}
	require.NoError(t, db.Create(b).Error)

	return b
}

func load(t *testing.T, db *gorm.DB, id uint) *Board {
	t.Helper()
	var b Board
	require.NoError(t, db.
		Preload("Owner").
		Preload("Labels").
		Preload("Cards.Notes").
		First(&b, id).Error)

	return &b
}

func TestCloneAndCommit(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	seeded := seed(t, db)
	orig := load(t, db, seeded.ID)

	p, err := gormadapter.NewProvider(db, models...)
	require.NoError(t, err)
	uow, err := gormadapter.NewUnitOfWork(db, gormadapter.WithProvider(p))
	require.NoError(t, err)

	out, err := graphclone.Clone(orig, uow, graphclone.WithProvider(p))
	require.NoError(t, err)
	clone := out.(*Board)
	// board, owner, 2 cards, 2 labels, 3 notes
	require.Equal(t, 9, uow.Len())
	require.Zero(t, clone.ID)
	require.Nil(t, clone.OwnerID)

	require.NoError(t, uow.Commit(ctx))
	require.Zero(t, uow.Len())
	require.Equal(t, 9, uow.Committed())

	require.NotZero(t, clone.ID)
	require.NotEqual(t, orig.ID, clone.ID)

	assert.EqualValues(t, 2, count(t, db, &Board{}))
	assert.EqualValues(t, 2, count(t, db, &User{}))
	assert.EqualValues(t, 4, count(t, db, &Card{}))
	assert.EqualValues(t, 6, count(t, db, &Note{}))
	assert.EqualValues(t, 4, count(t, db, &Label{}))
	var joins int64
	require.NoError(t, db.Table("board_labels").Count(&joins).Error)
	assert.EqualValues(t, 4, joins)

	got := load(t, db, clone.ID)
	require.NotNil(t, got.Owner)
	assert.Equal(t, "ada", got.Owner.Name)
	assert.NotEqual(t, orig.Owner.ID, got.Owner.ID)
	require.Len(t, got.Labels, 2)
	for _, l := range got.Labels {
		assert.NotContains(t, []uint{orig.Labels[0].ID, orig.Labels[1].ID}, l.ID)
	}
	require.Len(t, got.Cards, 2)
	for i, c := range got.Cards {
		require.NotNil(t, c.BoardID)
		assert.Equal(t, clone.ID, *c.BoardID)
		assert.Equal(t, orig.Cards[i].Text, c.Text)
		require.Len(t, c.Notes, len(orig.Cards[i].Notes))
		for j, n := range c.Notes {
			assert.Equal(t, c.ID, n.OwnerID)
			assert.Equal(t, "cards", n.OwnerType)
			assert.Equal(t, orig.Cards[i].Notes[j].Body, n.Body)
		}
	}

	// the source rows are untouched
	again := load(t, db, orig.ID)
	assert.Equal(t, orig.Owner.ID, again.Owner.ID)
	assert.Len(t, again.Cards, 2)
}

func TestUnitOfWork_LinksToExistingRows(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	owner := &User{Name: "grace"}
	tag := &Label{Name: "green"}
	require.NoError(t, db.Create(owner).Error)
	require.NoError(t, db.Create(tag).Error)

	uow, err := gormadapter.NewUnitOfWork(db)
	require.NoError(t, err)
	b := &Board{Title: "fresh", Owner: owner, Labels: []*Label{tag}}
	require.NoError(t, uow.Register(b))
	require.NoError(t, uow.Commit(ctx))

	got := load(t, db, b.ID)
	require.NotNil(t, got.OwnerID)
	assert.Equal(t, owner.ID, *got.OwnerID)
	require.Len(t, got.Labels, 1)
	assert.Equal(t, tag.ID, got.Labels[0].ID)
	assert.EqualValues(t, 1, count(t, db, &User{}))
}

func TestUnitOfWork_FailedCommitRollsBack(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	uow, err := gormadapter.NewUnitOfWork(db)
	require.NoError(t, err)

	first, dup := &Slug{Code: "same"}, &Slug{Code: "same"}
	require.NoError(t, uow.Register(first))
	require.NoError(t, uow.Register(dup))

	err = uow.Commit(ctx)
	require.Error(t, err)
	assert.Zero(t, first.ID, "assigned keys are restored")
	assert.Zero(t, dup.ID)
	assert.Equal(t, 2, uow.Len(), "entities stay staged")
	assert.Zero(t, uow.Committed())
	assert.EqualValues(t, 0, count(t, db, &Slug{}))

	uow.Rollback()
	assert.Zero(t, uow.Len())
	require.NoError(t, uow.Commit(ctx))
}

func TestUnitOfWork_FailedCommitRestoresForeignKeys(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	require.NoError(t, db.Callback().Update().Before("gorm:update").Register("test:fail_cards", func(tx *gorm.DB) {
		if tx.Statement.Schema != nil && tx.Statement.Schema.Name == "Card" {
			_ = tx.AddError(errors.New("boom"))
		}
	}))
	uow, err := gormadapter.NewUnitOfWork(db)
	require.NoError(t, err)

	stale := uint(99)
	b := &Board{Title: "draft"}
	c := &Card{Text: "todo", BoardID: &stale, Board: b}
	b.Cards = []*Card{c}
	require.NoError(t, uow.Register(b))
	require.NoError(t, uow.Register(c))

	err = uow.Commit(ctx)
	require.ErrorContains(t, err, "boom")
	assert.Zero(t, b.ID)
	assert.Zero(t, c.ID)
	require.Same(t, &stale, c.BoardID, "foreign keys are restored")
	assert.EqualValues(t, 99, stale)
	assert.Equal(t, 2, uow.Len())
	assert.EqualValues(t, 0, count(t, db, &Card{}))
}

func TestUnitOfWork_Register(t *testing.T) {
	db := openDB(t)
	uow, err := gormadapter.NewUnitOfWork(db)
	require.NoError(t, err)

	u := &User{Name: "x"}
	require.NoError(t, uow.Register(u))
	require.NoError(t, uow.Register(u))
	assert.Equal(t, 1, uow.Len())

	assert.ErrorIs(t, uow.Register(nil), session.ErrNilEntity)
	assert.ErrorIs(t, uow.Register(User{}), schema.ErrNotStruct)
	assert.ErrorIs(t, uow.Register((*User)(nil)), schema.ErrNilEntity)

	_, err = gormadapter.NewUnitOfWork(nil)
	assert.Error(t, err)
}
