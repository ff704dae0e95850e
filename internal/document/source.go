package document

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"docsift-backend/internal/shared/fault"
)

// Source is a uniform handle over a document's origin. Construction is cheap;
// all I/O and failure happens in Load.
type Source interface {
	Load(ctx context.Context) ([]byte, error)
	DisplayName() string
}

// FileSource reads a document from the local filesystem.
type FileSource struct {
	Path string
}

func (s FileSource) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fault.Newf(fault.KindDocument, "file not found: %s", s.Path)
		}
		return nil, fault.Wrap(fault.KindDocument, fmt.Sprintf("read file %s", s.Path), err)
	}
	return data, nil
}

func (s FileSource) DisplayName() string {
	return filepath.Base(s.Path)
}

// InlineSource carries document text supplied directly by the caller.
type InlineSource struct {
	Text string
	Name string
}

func (s InlineSource) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return []byte(s.Text), nil
}

func (s InlineSource) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	return "inline"
}
