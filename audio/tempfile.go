package audio

import (
	"errors"
	"io/fs"
	"os"
	"sync"

	pkgerrors "github.com/pkg/errors"

	"github.com/mrsingh-rishi/voice-bridge/model"
)

// TempFile is a spooled copy of an AudioBuffer. Whoever calls Spool owns
// the file and must Close it on every exit path.
type TempFile struct {
	path string
	once sync.Once
	err  error
}

// Spool writes buf to a new file in dir ("" means os.TempDir).
func Spool(dir string, buf model.AudioBuffer) (*TempFile, error) {
	suffix := ".bin"
	if buf.Format.Container != "" {
		suffix = "." + string(buf.Format.Container)
	}

	f, err := os.CreateTemp(dir, "voice-bridge-*"+suffix)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "create temp audio file")
	}

	if _, err := f.Write(buf.Data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, pkgerrors.Wrap(err, "write temp audio file")
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return nil, pkgerrors.Wrap(err, "close temp audio file")
	}

	return &TempFile{path: f.Name()}, nil
}

// Path returns the file location.
func (t *TempFile) Path() string {
	return t.path
}

// Close removes the file. It is idempotent and ignores files that are
// already gone.
func (t *TempFile) Close() error {
	t.once.Do(func() {
		err := os.Remove(t.path)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			t.err = pkgerrors.Wrapf(err, "remove %s", t.path)
		}
	})
	return t.err
}
