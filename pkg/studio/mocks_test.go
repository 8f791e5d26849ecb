package studio

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/shouni/vrazo-kit/pkg/domain"
	"github.com/shouni/vrazo-kit/pkg/kvstore"
	"github.com/shouni/vrazo-kit/pkg/quota"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

// scriptedGateway は呼び出しごとに用意した結果を順に返します。
type scriptedGateway struct {
	mu      sync.Mutex
	results []*domain.GenerationResult
	errs    []error
	calls   int
}

func (g *scriptedGateway) Submit(ctx context.Context, req domain.GenerationRequest) (*domain.GenerationResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	i := g.calls
	g.calls++
	var res *domain.GenerationResult
	var err error
	if i < len(g.results) {
		res = g.results[i]
	}
	if i < len(g.errs) {
		err = g.errs[i]
	}
	return res, err
}

// fakeModels は genai の Models の代わりに固定のレスポンスを返します。
type fakeModels struct {
	resp  *genai.GenerateContentResponse
	calls int
}

func (m *fakeModels) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	m.calls++
	return m.resp, nil
}

func newTestGate(t *testing.T, count int) *quota.Gate {
	t.Helper()
	ctx := context.Background()
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.Local)
	kv := kvstore.NewMemory()
	require.NoError(t, kv.Set(ctx, "vrazo_last_date", now.Format("2006-01-02")))
	require.NoError(t, kv.Set(ctx, "vrazo_daily_count", strconv.Itoa(count)))

	g, err := quota.NewGate(ctx, quota.NewKVStore(kv), quota.WithClock(func() time.Time { return now }))
	require.NoError(t, err)
	return g
}

func testImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 20, G: 120, B: 200, A: 255})
		}
	}
	return img
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, testImage(w, h)))
	return buf.Bytes()
}

func testJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, testImage(w, h), nil))
	return buf.Bytes()
}
