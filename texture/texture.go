// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Package texture fetches and decodes texture images.
package texture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// ErrStatus means that a remote texture could not be
// retrieved.
var ErrStatus = errors.New("texture: unexpected HTTP status")

// ErrScheme means that a texture location uses an
// unsupported URL scheme.
var ErrScheme = errors.New("texture: unsupported URL scheme")

// Placeholder is the texel shown while the texture is being
// fetched.
var Placeholder = color.RGBA{0, 0, 255, 255}

// Solid creates a 1x1 image of color c.
func Solid(c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.SetRGBA(0, 0, c)
	return img
}

// Decode decodes an image in any of the registered formats
// (PNG, JPEG, GIF, BMP and WebP) and converts it to RGBA.
func Decode(r io.Reader) (*image.RGBA, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("texture: decode: %w", err)
	}
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return rgba, nil
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Rect, img, b.Min, draw.Src)
	return rgba, nil
}

// Fetch retrieves and decodes the image at loc.
// loc is either an http(s) URL, a file URL or a plain
// file path. client may be nil, in which case
// http.DefaultClient is used.
func Fetch(ctx context.Context, client *http.Client, loc string) (*image.RGBA, error) {
	rc, err := open(ctx, client, loc)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return Decode(rc)
}

func open(ctx context.Context, client *http.Client, loc string) (io.ReadCloser, error) {
	u, err := url.Parse(loc)
	if err != nil {
		return nil, fmt.Errorf("texture: %w", err)
	}
	switch u.Scheme {
	case "http", "https":
	case "file":
		return os.Open(u.Path)
	case "":
		return os.Open(loc)
	default:
		return nil, fmt.Errorf("%w: %q", ErrScheme, u.Scheme)
	}
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, loc, nil)
	if err != nil {
		return nil, fmt.Errorf("texture: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("texture: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %s", ErrStatus, resp.Status)
	}
	return resp.Body, nil
}
