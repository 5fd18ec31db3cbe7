// SPDX-License-Identifier: MIT

package graphclone_test

import (
	"context"
	"fmt"

	"github.com/katalvlaran/entclone/graphclone"
	"github.com/katalvlaran/entclone/session"
)

type Folder struct {
	ID       int       `entity:"pk"`
	ParentID int       `entity:"fk"`
	Parent   *Folder   `entity:"rel"`
	Children []*Folder `entity:"rel"`
	Name     string
}

// ExampleClone copies a folder tree with back-pointers to the parent and
// commits the copies to an in-memory unit of work.
func ExampleClone() {
	root := &Folder{ID: 7, Name: "root"}
	docs := &Folder{ID: 8, ParentID: 7, Parent: root, Name: "docs"}
	pics := &Folder{ID: 9, ParentID: 7, Parent: root, Name: "pics"}
	root.Children = []*Folder{docs, pics}

	uow := session.NewMemory(nil)
	out, err := graphclone.Clone(root, uow)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	clone := out.(*Folder)
	fmt.Println(clone.Name, len(clone.Children), clone.Children[1].Parent == clone)
	fmt.Println("pending:", uow.Len(), "ids:", clone.ID, clone.Children[0].ParentID)

	if err = uow.Commit(context.Background()); err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println("ids:", clone.ID, clone.Children[0].ID, clone.Children[1].ID)
	// Output:
	// root 2 true
	// pending: 3 ids: 0 0
	// ids: 1 2 3
}

// ExampleRun inspects the original→clone mapping of a cyclic graph.
func ExampleRun() {
	a := &Folder{Name: "a"}
	b := &Folder{Name: "b", Parent: a}
	a.Parent = b

	res, err := graphclone.Run(a, session.Discard)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	cb, _ := res.CloneOf(b)
	fmt.Println(res.Len(), cb.(*Folder).Name, cb.(*Folder).Parent == res.Root)
	for _, e := range res.Edges() {
		fmt.Println(e.From, "->", e.To, e.Key)
	}
	// Output:
	// 2 b true
	// 0 -> 1 Parent
	// 1 -> 0 Parent
}
