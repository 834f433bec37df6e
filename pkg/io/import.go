package io

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"io"
	"os"

	"github.com/disintegration/imaging"

	"github.com/matzehuels/traitstack/pkg/errors"
)

// Decode decodes PNG or JPEG bytes into an origin-based NRGBA image.
//
// Decode returns an error with code DECODE_FAILURE if the bytes are not a
// supported image or the image is empty.
func Decode(data []byte) (*image.NRGBA, error) {
	return Read(bytes.NewReader(data))
}

// Read decodes an image from r. Read does not close r.
func Read(r io.Reader) (*image.NRGBA, error) {
	img, err := imaging.Decode(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDecodeFailure, err, "decode image")
	}
	if img.Bounds().Empty() {
		return nil, errors.New(errors.ErrCodeDecodeFailure, "image has no pixels")
	}
	// imaging.Clone always yields a fresh NRGBA anchored at (0, 0).
	return imaging.Clone(img), nil
}

// ImportImage decodes the image file at path.
func ImportImage(path string) (*image.NRGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	img, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}
