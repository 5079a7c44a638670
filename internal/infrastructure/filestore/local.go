package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/kennygrant/sanitize"
	"go.uber.org/zap"

	"quickjob/internal/pkg/logger"
)

var ErrInvalidName = errors.New("invalid file name")

// Local keeps attachment bytes in a directory on disk. Writes go to a temp
// file first and are renamed into place, so a reader never sees a partial
// file under its final name.
type Local struct {
	root   string
	logger *zap.Logger
}

func NewLocal(root string, log *zap.Logger) (*Local, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, fmt.Errorf("empty storage dir")
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &Local{root: root, logger: logger.OrNop(log)}, nil
}

func (s *Local) Root() string {
	return s.root
}

func (s *Local) Save(ctx context.Context, name string, r io.Reader) error {
	if err := validName(name); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	tmp := filepath.Join(s.root, ".upload-"+uuid.NewString())
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o640)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmp, filepath.Join(s.root, name)); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("move %s into place: %w", name, err)
	}

	s.logger.Debug("attachment stored", zap.String("file", name))
	return nil
}

// Remove deletes a stored file. A missing file is not an error.
func (s *Local) Remove(_ context.Context, name string) error {
	if err := validName(name); err != nil {
		return err
	}
	err := os.Remove(filepath.Join(s.root, name))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (s *Local) Open(name string) (io.ReadCloser, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	return os.Open(filepath.Join(s.root, name))
}

func validName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// SanitizeName turns an uploaded file name into one that is safe to use as a
// path component.
func SanitizeName(original string) string {
	original = strings.ReplaceAll(original, `\`, "/")
	name := sanitize.Name(filepath.Base(original))
	name = strings.TrimLeft(name, ".")
	if name == "" {
		return "unknown"
	}
	return truncateName(name, MaxNameBytes)
}

// MaxNameBytes bounds a sanitized name so that a stored "{id}_" prefix still
// fits within the usual 255 byte file name limit.
const MaxNameBytes = 200

// truncateName cuts name to at most limit bytes on a rune boundary, keeping a
// short extension intact.
func truncateName(name string, limit int) string {
	if len(name) <= limit {
		return name
	}
	ext := filepath.Ext(name)
	if len(ext) > 16 {
		ext = ""
	}
	base := strings.TrimSuffix(name, ext)
	budget := limit - len(ext)
	cut := 0
	for i := range base {
		if i > budget {
			break
		}
		cut = i
	}
	if len(base) <= budget {
		cut = len(base)
	}
	return base[:cut] + ext
}
