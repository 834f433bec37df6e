package io

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/matzehuels/traitstack/pkg/errors"
)

// WritePNG encodes img as PNG to w.
func WritePNG(img image.Image, w io.Writer) error {
	enc := png.Encoder{CompressionLevel: png.DefaultCompression}
	if err := enc.Encode(w, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// EncodePNG returns img encoded as PNG bytes.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := WritePNG(img, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ExportPNG writes img to path as PNG, creating parent directories. The file
// only appears at path once it has been completely written.
func ExportPNG(img image.Image, path string) error {
	if err := errors.ValidatePath(path); err != nil {
		return err
	}
	data, err := EncodePNG(img)
	if err != nil {
		return err
	}
	return writeFileAtomic(path, data)
}

// Persist stores data in dir under a name derived from suggested and returns
// the final name. The ".png" suffix is added when missing; collisions get a
// numeric suffix ("hat-1.png").
func Persist(dir string, data []byte, suggested string) (string, error) {
	name := EnsurePNG(filepath.Base(suggested))
	if err := errors.ValidateAssetName(name); err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}

	stem := strings.TrimSuffix(name, filepath.Ext(name))
	for i := 0; ; i++ {
		candidate := name
		if i > 0 {
			candidate = stem + "-" + strconv.Itoa(i) + ".png"
		}
		f, err := os.OpenFile(filepath.Join(dir, candidate), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if os.IsExist(err) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("create %s: %w", candidate, err)
		}
		_, werr := f.Write(data)
		cerr := f.Close()
		if werr != nil || cerr != nil {
			os.Remove(f.Name())
			if werr == nil {
				werr = cerr
			}
			return "", fmt.Errorf("write %s: %w", candidate, werr)
		}
		return candidate, nil
	}
}

// EnsurePNG appends ".png" unless name already ends with it (any case).
func EnsurePNG(name string) string {
	if strings.HasSuffix(strings.ToLower(name), ".png") {
		return name
	}
	return name + ".png"
}

// IsPNG reports whether name has a ".png" suffix (any case).
func IsPNG(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".png")
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", path, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("rename into %s: %w", path, err)
	}
	return nil
}
