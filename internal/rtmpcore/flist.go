// Output file list (Flist): one node per `play` invocation on a session,
// in invocation order, with a "current" cursor advanced by upstream
// NetStream.Play.Start events. A plain slice plus an index; ordering and
// cursor semantics need no pointer bookkeeping.

package rtmpcore

import (
	"fmt"
	"os"
)

// OutputFile is one persisted stream recording, backing one `play` call.
type OutputFile struct {
	Playpath string
	Path     string
	// StartFlag carries the (possibly coerced) start argument from the
	// `play` invocation that created this file, -1000 for a live stream.
	StartFlag float64
	file      *os.File
}

func (o *OutputFile) Open(dir string) error {
	path := o.Path
	if dir != "" {
		path = dir + string(os.PathSeparator) + path
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := f.Write(CreateFlvHeader()); err != nil {
		f.Close()
		return err
	}
	o.file = f
	return nil
}

func (o *OutputFile) Write(b []byte) error {
	if o.file == nil {
		return fmt.Errorf("rtmpcore: output file %q is not open", o.Path)
	}
	n, err := o.file.Write(b)
	if err != nil {
		return err
	}
	if n != len(b) {
		return fmt.Errorf("rtmpcore: short write to %q (%d/%d bytes)", o.Path, n, len(b))
	}
	return nil
}

func (o *OutputFile) Close() error {
	if o.file == nil {
		return nil
	}
	err := o.file.Close()
	o.file = nil
	return err
}

// Flist is the ordered list of output files opened on one session, with a
// cursor to the file currently receiving media.
type Flist struct {
	files  []*OutputFile
	cursor int // index into files, -1 when no file is current
}

func NewFlist() *Flist {
	return &Flist{cursor: -1}
}

// Append adds a newly opened output file at the tail, per a `play` call.
func (fl *Flist) Append(o *OutputFile) {
	fl.files = append(fl.files, o)
}

// Current returns the file the FLV writer should be appending to, or nil.
func (fl *Flist) Current() *OutputFile {
	if fl.cursor < 0 || fl.cursor >= len(fl.files) {
		return nil
	}
	return fl.files[fl.cursor]
}

// AdvanceOnPlayStart moves the cursor to the first file with an open
// handle if no cursor is set yet, else to the next node after the
// current one (if any).
func (fl *Flist) AdvanceOnPlayStart() {
	if fl.cursor < 0 {
		for i, f := range fl.files {
			if f.file != nil {
				fl.cursor = i
				return
			}
		}
		return
	}
	if fl.cursor+1 < len(fl.files) {
		fl.cursor++
	}
}

// CloseCurrent closes and clears the cursor's file, per a stop-this-stream
// verdict on the matching play stream.
func (fl *Flist) CloseCurrent() error {
	f := fl.Current()
	if f == nil {
		return nil
	}
	err := f.Close()
	fl.cursor = -1
	return err
}

// CloseAll closes every file in the list, used at session teardown.
func (fl *Flist) CloseAll() {
	for _, f := range fl.files {
		f.Close()
	}
	fl.cursor = -1
}
