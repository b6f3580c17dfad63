package editor

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/matzehuels/erdraw/pkg/errors"
	"github.com/matzehuels/erdraw/pkg/render/sink"
)

// PNGDataURLPrefix is the header every exported data URL must carry.
const PNGDataURLPrefix = "data:image/png;base64,"

// PNGPath returns the export path for a source file: the source path with
// its extension replaced by ".png".
func PNGPath(source string) string {
	return strings.TrimSuffix(source, filepath.Ext(source)) + ".png"
}

// DecodePNGDataURL extracts the PNG bytes from a base64 data URL.
func DecodePNGDataURL(dataURL string) ([]byte, error) {
	b64, ok := strings.CutPrefix(dataURL, PNGDataURLPrefix)
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidMessage, "data url is not a base64 PNG")
	}
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidMessage, err, "decode png data url")
	}
	return data, nil
}

// ExportPNG decodes a snapshot produced by the front end and writes it next
// to the source file. On failure the error is logged and the returned path
// is empty.
func (s *Session) ExportPNG(dataURL string) (string, error) {
	data, err := DecodePNGDataURL(dataURL)
	if err != nil {
		s.logger.Error("export png failed", "err", err)
		return "", err
	}
	path, err := s.writePNG(data)
	if err != nil {
		s.logger.Error("export png failed", "path", path, "err", err)
		return "", err
	}
	s.logger.Info("exported png", "path", path, "bytes", len(data))
	return path, nil
}

// ExportNative renders the current frame server-side at [sink.DefaultScale]
// and writes it next to the source file.
func (s *Session) ExportNative(ctx context.Context, opts ...sink.PNGOption) (string, error) {
	data, err := sink.RenderPNG(ctx, s.Scene(), opts...)
	if err != nil {
		s.logger.Error("render png failed", "err", err)
		return "", err
	}
	path, err := s.writePNG(data)
	if err != nil {
		s.logger.Error("export png failed", "path", path, "err", err)
		return "", err
	}
	s.logger.Info("exported png", "path", path, "bytes", len(data))
	return path, nil
}

func (s *Session) writePNG(data []byte) (string, error) {
	if s.source == "" {
		return "", errors.New(errors.ErrCodeInvalidPath, "session has no source file")
	}
	path := PNGPath(s.source)
	if err := errors.ValidateOutputPath(path); err != nil {
		return path, err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return path, fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
