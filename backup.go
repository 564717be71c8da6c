package squareframe

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/k1LoW/errors"
)

const backupPrefix = "squareframe-backup"

// Backup copies the file at path into dir before it gets overwritten and returns the backup path.
// If path does not exist, Backup does nothing and returns an empty string.
// Directories and symbolic links are refused.
func Backup(path, dir string) (_ string, err error) {
	defer func() {
		err = errors.WithStack(err)
	}()
	fi, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", ioError("failed to stat %s: %w", path, err)
	}
	if fi.IsDir() || fi.Mode()&os.ModeSymlink != 0 {
		return "", ioError("%s is a directory or a symbolic link, cannot proceed", path)
	}
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", ioError("failed to create backup directory %s: %w", dir, err)
	}
	backupPath := filepath.Join(dir, backupName(path, time.Now()))
	if err := copyFile(path, backupPath, fi.Mode().Perm()); err != nil {
		return "", ioError("failed to back up original file at %s: %w", path, err)
	}
	return backupPath, nil
}

func backupName(path string, now time.Time) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s-%d-%s%s", backupPrefix, now.UnixMilli(), id, filepath.Ext(path))
}

func copyFile(src, dst string, perm os.FileMode) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(dst)
		}
	}()
	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
