package images

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()

	var buf bytes.Buffer
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	require.NoError(t, png.Encode(&buf, img))

	return buf.Bytes()
}

func TestProbe(t *testing.T) {
	ctx := context.Background()

	t.Run("ReadsDimensions", func(t *testing.T) {
		body := pngBytes(t, 640, 480)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write(body)
		}))
		defer srv.Close()

		p := NewProber(time.Second, 1, time.Millisecond)
		dims, err := p.Probe(ctx, srv.URL)
		require.NoError(t, err)

		assert.Equal(t, Dimensions{Width: 640, Height: 480}, dims)
	})

	t.Run("RetriesUpToAttemptLimit", func(t *testing.T) {
		var hits atomic.Int64
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		p := NewProber(time.Second, 3, time.Millisecond)
		_, err := p.Probe(ctx, srv.URL)
		require.Error(t, err)

		assert.EqualValues(t, 3, hits.Load())
	})

	t.Run("RecoversOnLaterAttempt", func(t *testing.T) {
		body := pngBytes(t, 10, 20)
		var hits atomic.Int64
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if hits.Add(1) == 1 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			_, _ = w.Write(body)
		}))
		defer srv.Close()

		p := NewProber(time.Second, 3, time.Millisecond)
		dims, err := p.Probe(ctx, srv.URL)
		require.NoError(t, err)

		assert.Equal(t, Dimensions{Width: 10, Height: 20}, dims)
	})

	t.Run("RejectsNonImageBody", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("<html>not an image</html>"))
		}))
		defer srv.Close()

		p := NewProber(time.Second, 1, time.Millisecond)
		_, err := p.Probe(ctx, srv.URL)
		assert.Error(t, err)
	})
}
