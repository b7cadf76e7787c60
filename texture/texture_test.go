// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package texture

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func gray(w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = uint8(i * 16)
	}
	return img
}

// server serves a 2x3 PNG at /cube.png and counts hits.
func server(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	data := encodePNG(t, gray(2, 3))
	var hits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/cube.png", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "image/png")
		w.Write(data)
	})
	mux.HandleFunc("/junk.png", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not an image"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestSolid(t *testing.T) {
	img := Solid(Placeholder)
	if b := img.Bounds(); b != image.Rect(0, 0, 1, 1) {
		t.Fatalf("Solid: Bounds\nhave %v\nwant %v", b, image.Rect(0, 0, 1, 1))
	}
	if c := img.RGBAAt(0, 0); c != Placeholder {
		t.Fatalf("Solid: RGBAAt\nhave %v\nwant %v", c, Placeholder)
	}
}

func TestDecode(t *testing.T) {
	src := gray(4, 2)
	img, err := Decode(bytes.NewReader(encodePNG(t, src)))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 4, 2), img.Bounds())
	for y := 0; y < 2; y++ {
		for x := 0; x < 4; x++ {
			g := src.GrayAt(x, y).Y
			assert.Equal(t, color.RGBA{g, g, g, 255}, img.RGBAAt(x, y))
		}
	}

	rgba := image.NewRGBA(image.Rect(0, 0, 3, 3))
	rgba.SetRGBA(1, 1, color.RGBA{1, 2, 3, 255})
	img, err = Decode(bytes.NewReader(encodePNG(t, rgba)))
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{1, 2, 3, 255}, img.RGBAAt(1, 1))

	_, err = Decode(bytes.NewReader([]byte("GIF89a?")))
	assert.Error(t, err)
	_, err = Decode(bytes.NewReader(nil))
	assert.ErrorIs(t, err, image.ErrFormat)
}

func TestFetch(t *testing.T) {
	srv, _ := server(t)
	ctx := context.Background()

	img, err := Fetch(ctx, srv.Client(), srv.URL+"/cube.png")
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 2, 3), img.Bounds())

	_, err = Fetch(ctx, srv.Client(), srv.URL+"/missing.png")
	assert.ErrorIs(t, err, ErrStatus)

	_, err = Fetch(ctx, srv.Client(), srv.URL+"/junk.png")
	assert.ErrorIs(t, err, image.ErrFormat)

	_, err = Fetch(ctx, nil, "ftp://example.com/cube.png")
	assert.ErrorIs(t, err, ErrScheme)
}

func TestFetchFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cube.png")
	require.NoError(t, os.WriteFile(path, encodePNG(t, gray(5, 5)), 0o644))
	ctx := context.Background()

	img, err := Fetch(ctx, nil, path)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 5, 5), img.Bounds())

	img, err = Fetch(ctx, nil, "file://"+filepath.ToSlash(path))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 5, 5), img.Bounds())

	_, err = Fetch(ctx, nil, filepath.Join(t.TempDir(), "none.png"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestCacheGet(t *testing.T) {
	srv, hits := server(t)
	c := NewCache(srv.Client(), nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	imgs := make([]*image.RGBA, 8)
	for i := range imgs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			img, err := c.Get(ctx, srv.URL+"/cube.png")
			assert.NoError(t, err)
			imgs[i] = img
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), hits.Load())
	for _, img := range imgs[1:] {
		assert.Same(t, imgs[0], img)
	}
	assert.Equal(t, 1, c.Len())

	_, err := c.Get(ctx, srv.URL+"/missing.png")
	assert.ErrorIs(t, err, ErrStatus)
	assert.Equal(t, 1, c.Len(), "failures are not cached")
}

func TestCachePreload(t *testing.T) {
	srv, hits := server(t)
	c := NewCache(srv.Client(), nil)
	ctx := context.Background()

	require.NoError(t, c.Preload(ctx, srv.URL+"/cube.png", srv.URL+"/cube.png"))
	assert.Equal(t, int32(1), hits.Load())

	err := c.Preload(ctx, srv.URL+"/cube.png", srv.URL+"/missing.png")
	assert.ErrorIs(t, err, ErrStatus)
	assert.Equal(t, int32(1), hits.Load())
}

func TestCacheLoad(t *testing.T) {
	srv, _ := server(t)
	core, logs := observer.New(zap.WarnLevel)
	c := NewCache(srv.Client(), zap.New(core))
	ctx := context.Background()

	img, ok := <-c.Load(ctx, srv.URL+"/cube.png")
	require.True(t, ok)
	assert.Equal(t, image.Rect(0, 0, 2, 3), img.Bounds())

	img, ok = <-c.Load(ctx, srv.URL+"/missing.png")
	assert.False(t, ok)
	assert.Nil(t, img)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "texture fetch failed", logs.All()[0].Message)
}
