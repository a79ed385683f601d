package fs

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// tempPrefix marks in-flight writes. A crash can leave one behind next to
// the target; it is never read back.
const tempPrefix = ".ppi-tmp-"

// syncer is implemented by writers backed by a real file.
type syncer interface {
	Sync() error
}

// WriteFileAtomic replaces path with data so a reader sees either the old
// contents or the new ones. The temp file is created beside path so the final
// rename never crosses filesystems, and it is removed on any failure.
// The parent directory must already exist.
func WriteFileAtomic(fsys FS, path string, data []byte, perm os.FileMode) (err error) {
	dir := filepath.Dir(path)
	tmpPath, w, err := fsys.CreateTemp(dir, tempPrefix+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("create temp file in %s: %w", dir, err)
	}
	defer func() {
		if err != nil {
			_ = fsys.Remove(tmpPath)
		}
	}()

	if err := writeAndClose(w, data); err != nil {
		return fmt.Errorf("write %s: %w", tmpPath, err)
	}
	if err := fsys.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("chmod %s: %w", tmpPath, err)
	}
	if err := fsys.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

// writeAndClose flushes data to stable storage when the writer allows it and
// always closes w. The first error wins.
func writeAndClose(w io.WriteCloser, data []byte) error {
	_, err := w.Write(data)
	if s, ok := w.(syncer); ok && err == nil {
		err = s.Sync()
	}
	if cerr := w.Close(); err == nil {
		err = cerr
	}
	return err
}
