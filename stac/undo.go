package stac

import (
	"errors"
	"io/fs"

	"github.com/go-git/go-billy/v5/util"
)

// undoLog records the prior content of every file and document touched by a
// multi-document operation, so a failure part-way can put them all back.
type undoLog struct {
	store  *Store
	files  []fileUndo
	things []thingUndo
}

type fileUndo struct {
	name    string
	content []byte
	existed bool
}

type thingUndo struct {
	t        *Thing
	store    *Store
	data     map[string]any
	filename string
	state    State
}

func newUndoLog(s *Store) *undoLog {
	return &undoLog{store: s}
}

// write saves data to name, remembering what name held before.
func (u *undoLog) write(name string, data map[string]any) error {
	b, err := util.ReadFile(u.store.fs, name)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		u.files = append(u.files, fileUndo{name: name})
	case err != nil:
		return err
	default:
		u.files = append(u.files, fileUndo{name: name, content: b, existed: true})
	}
	return u.store.write(name, data)
}

// keep remembers the in-memory state of t before it is changed.
func (u *undoLog) keep(t *Thing) {
	u.things = append(u.things, thingUndo{
		t:        t,
		store:    t.store,
		data:     t.data,
		filename: t.filename,
		state:    t.state,
	})
}

// rollback restores files and documents in reverse order.
func (u *undoLog) rollback() {
	for i := len(u.files) - 1; i >= 0; i-- {
		f := u.files[i]
		var err error
		if f.existed {
			err = util.WriteFile(u.store.fs, f.name, f.content, 0o644)
		} else {
			err = u.store.fs.Remove(f.name)
		}
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			u.store.log.WithError(err).WithField("path", f.name).Warn("rollback failed")
		}
	}
	for i := len(u.things) - 1; i >= 0; i-- {
		th := u.things[i]
		th.t.store = th.store
		th.t.data = th.data
		th.t.filename = th.filename
		th.t.state = th.state
	}
}
