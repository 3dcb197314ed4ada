package oaf

import (
	"context"
	"image"

	// Register the decoders available to DecodeImage.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

// ImageDecoder loads an image from an ephemeral handle.
type ImageDecoder interface {
	DecodeImage(ctx context.Context, handles *HandleRegistry, h Handle) (image.Image, error)
}

// ImageDecoderFunc adapts an ordinary function to the [ImageDecoder] interface.
type ImageDecoderFunc func(ctx context.Context, handles *HandleRegistry, h Handle) (image.Image, error)

// DecodeImage calls f(ctx, handles, h).
func (f ImageDecoderFunc) DecodeImage(ctx context.Context, handles *HandleRegistry, h Handle) (image.Image, error) {
	return f(ctx, handles, h)
}

// StdImageDecoder decodes any format registered with the image package
// (PNG, JPEG and GIF by default).
type StdImageDecoder struct{}

// DecodeImage implements [ImageDecoder]. Content that is not a registered
// image format fails with image.ErrFormat.
func (StdImageDecoder) DecodeImage(ctx context.Context, handles *HandleRegistry, h Handle) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r, err := handles.Open(h)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(r)
	return img, err
}
