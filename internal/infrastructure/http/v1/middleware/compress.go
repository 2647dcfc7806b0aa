package middleware

import (
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/zstd"
)

var encoderPool = sync.Pool{
	New: func() any {
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault), zstd.WithEncoderConcurrency(1))
		if err != nil {
			panic("create zstd encoder: " + err.Error())
		}
		return enc
	},
}

// Compress encodes response bodies with zstd when the client accepts it.
// HEAD requests and responses without a body are passed through unchanged.
func Compress() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodHead || !acceptsZstd(c.GetHeader("Accept-Encoding")) {
			c.Next()
			return
		}

		enc := encoderPool.Get().(*zstd.Encoder)
		enc.Reset(c.Writer)

		original := c.Writer
		w := &zstdWriter{ResponseWriter: original, enc: enc}
		c.Writer = w

		defer func() {
			c.Writer = original
			if w.started {
				_ = enc.Close()
			}
			enc.Reset(nil)
			encoderPool.Put(enc)
		}()

		c.Next()
	}
}

// zstdWriter switches to compressed output on the first body write.
type zstdWriter struct {
	gin.ResponseWriter
	enc     *zstd.Encoder
	started bool
}

func (w *zstdWriter) start() {
	if w.started {
		return
	}
	w.started = true
	h := w.Header()
	h.Set("Content-Encoding", "zstd")
	h.Add("Vary", "Accept-Encoding")
	h.Del("Content-Length")
}

func (w *zstdWriter) Write(b []byte) (int, error) {
	if len(b) == 0 {
		return 0, nil
	}
	w.start()
	return w.enc.Write(b)
}

func (w *zstdWriter) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

func (w *zstdWriter) Written() bool {
	return w.started || w.ResponseWriter.Written()
}

func (w *zstdWriter) Flush() {
	if w.started {
		_ = w.enc.Flush()
	}
	w.ResponseWriter.Flush()
}

// acceptsZstd reports whether an Accept-Encoding header lists zstd with a
// non-zero quality.
func acceptsZstd(header string) bool {
	for _, part := range strings.Split(header, ",") {
		coding, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		if !strings.EqualFold(strings.TrimSpace(coding), "zstd") {
			continue
		}
		q := strings.ReplaceAll(params, " ", "")
		return q != "q=0" && q != "q=0.0" && q != "q=0.00" && q != "q=0.000"
	}
	return false
}
