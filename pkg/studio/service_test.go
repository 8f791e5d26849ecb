package studio

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/shouni/vrazo-kit/pkg/composite"
	"github.com/shouni/vrazo-kit/pkg/domain"
	"github.com/shouni/vrazo-kit/pkg/generator"
	"github.com/shouni/vrazo-kit/pkg/imgutil"
	"github.com/shouni/vrazo-kit/pkg/kvstore"
	"github.com/shouni/vrazo-kit/pkg/project"
	"github.com/shouni/vrazo-kit/pkg/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func newTestService(t *testing.T, gw generator.ImageGateway, count int, opts ...Option) (*Service, Gate) {
	t.Helper()
	gate := newTestGate(t, count)
	svc, err := NewService(gw, retry.NewRunner(retry.WithInterval(0)), gate, opts...)
	require.NoError(t, err)
	return svc, gate
}

func TestService_GeneratePhoto(t *testing.T) {
	ctx := context.Background()

	t.Run("残りがあれば1回呼び出して回数を1つ進める", func(t *testing.T) {
		gw := &scriptedGateway{results: []*domain.GenerationResult{domain.ImageResult([]byte("img"), "image/png")}}
		svc, gate := newTestService(t, gw, 0)

		out, err := svc.GeneratePhoto(ctx, "a red cube")
		require.NoError(t, err)
		assert.False(t, out.Empty)
		assert.Equal(t, 1, gw.calls)
		assert.Equal(t, 1, gate.Usage().Count)
		assert.True(t, strings.HasPrefix(out.DataURI(), imgutil.PNGDataURIPrefix))
	})

	t.Run("上限に達していれば呼び出さない", func(t *testing.T) {
		gw := &scriptedGateway{}
		svc, gate := newTestService(t, gw, 3)

		_, err := svc.GeneratePhoto(ctx, "a red cube")
		assert.ErrorIs(t, err, domain.ErrQuotaExhausted)
		var qe *QuotaError
		require.True(t, errors.As(err, &qe))
		assert.Contains(t, qe.UserMessage(), "3 free generations")
		assert.Zero(t, gw.calls)
		assert.Equal(t, 3, gate.Usage().Count)
	})

	t.Run("画像が無い結果では回数を進めない", func(t *testing.T) {
		gw := &scriptedGateway{results: []*domain.GenerationResult{domain.EmptyResult()}}
		svc, gate := newTestService(t, gw, 1)

		out, err := svc.GeneratePhoto(ctx, "a red cube")
		require.NoError(t, err)
		assert.True(t, out.Empty)
		assert.Equal(t, domain.MessageNoImage, out.Message)
		assert.Empty(t, out.DataURI())
		assert.Equal(t, 1, gate.Usage().Count)
	})

	t.Run("過負荷は1回だけ再試行する", func(t *testing.T) {
		gw := &scriptedGateway{
			results: []*domain.GenerationResult{nil, domain.ImageResult([]byte("img"), "image/png")},
			errs:    []error{domain.NewUpstreamUnavailable(domain.ReasonOverloaded, errors.New("503")), nil},
		}
		svc, gate := newTestService(t, gw, 0)

		_, err := svc.GeneratePhoto(ctx, "a red cube")
		require.NoError(t, err)
		assert.Equal(t, 2, gw.calls)
		assert.Equal(t, 1, gate.Usage().Count)
	})

	t.Run("安全フィルターの拒否は再試行せず回数も進めない", func(t *testing.T) {
		gw := &scriptedGateway{errs: []error{domain.NewSafetyRejected(nil)}}
		svc, gate := newTestService(t, gw, 0)

		_, err := svc.GeneratePhoto(ctx, "something")
		assert.ErrorIs(t, err, domain.ErrSafetyRejected)
		ce, ok := domain.AsClassified(err)
		require.True(t, ok)
		assert.Equal(t, domain.MessageSafetyRejected, ce.UserMessage)
		assert.Equal(t, 1, gw.calls)
		assert.Zero(t, gate.Usage().Count)
	})

	t.Run("長すぎるプロンプトは呼び出さない", func(t *testing.T) {
		gw := &scriptedGateway{}
		svc, _ := newTestService(t, gw, 0)

		_, err := svc.GeneratePhoto(ctx, strings.Repeat("x", domain.MaxPromptLength+1))
		assert.ErrorIs(t, err, domain.ErrInputTooLarge)
		assert.Zero(t, gw.calls)
	})
}

func TestService_EnhancePhoto_RoundTrip(t *testing.T) {
	ctx := context.Background()
	restored := testJPEG(t, 8, 8)
	models := &fakeModels{resp: &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{InlineData: &genai.Blob{MIMEType: "image/jpeg", Data: restored}}}},
		}},
	}}
	gw, err := generator.NewGeminiGateway(models, nil)
	require.NoError(t, err)
	svc, gate := newTestService(t, gw, 0)

	src := testJPEG(t, 4, 4)
	out, err := svc.EnhancePhoto(ctx, domain.InlineImage("data:image/jpeg;base64,"+base64.StdEncoding.EncodeToString(src)), domain.Resolution4K)
	require.NoError(t, err)

	// 元が JPEG でも PNG のデータURIとして返る
	uri := out.DataURI()
	require.True(t, strings.HasPrefix(uri, "data:image/png;base64,"))
	decoded, err := imgutil.DecodeBase64Payload(uri)
	require.NoError(t, err)
	assert.Equal(t, restored, decoded)
	assert.Equal(t, 1, models.calls)
	assert.Equal(t, 1, gate.Usage().Count)
}

func TestService_GenerateThumbnail(t *testing.T) {
	ctx := context.Background()
	ref := domain.ImageBytes(testPNG(t, 2, 2))

	t.Run("参照画像が多すぎると呼び出さない", func(t *testing.T) {
		gw := &scriptedGateway{}
		svc, gate := newTestService(t, gw, 0)

		_, err := svc.GenerateThumbnail(ctx, "Title", []domain.ImageRef{ref, ref, ref}, domain.StyleGaming)
		assert.ErrorIs(t, err, domain.ErrMalformed)
		assert.Zero(t, gw.calls)
		assert.Zero(t, gate.Usage().Count)
	})

	t.Run("成功すると回数を進める", func(t *testing.T) {
		gw := &scriptedGateway{results: []*domain.GenerationResult{domain.ImageResult([]byte("thumb"), "image/png")}}
		svc, gate := newTestService(t, gw, 2)

		_, err := svc.GenerateThumbnail(ctx, "Title", []domain.ImageRef{ref}, "")
		require.NoError(t, err)
		assert.Equal(t, 3, gate.Usage().Count)
		assert.Zero(t, svc.Usage().Remaining)
	})
}

func TestService_ComposeAndSave(t *testing.T) {
	ctx := context.Background()
	renderer, err := composite.NewRenderer()
	require.NoError(t, err)
	projects := project.NewStore(kvstore.NewMemory())
	svc, _ := newTestService(t, &scriptedGateway{}, 0, WithRenderer(renderer), WithProjects(projects))

	out, err := svc.Compose(ctx, domain.ImageBytes(testPNG(t, 160, 90)), composite.Overlay{Headline: "WOW", Subtitle: "day 1"}, composite.FormatPNG)
	require.NoError(t, err)
	img, _, err := imgutil.DecodeImage(out)
	require.NoError(t, err)
	assert.Equal(t, 160, img.Bounds().Dx())

	p, err := svc.SaveProject(ctx, "", out, domain.ProjectThumbnail)
	require.NoError(t, err)
	assert.Equal(t, "Generated Image", p.Title)
	assert.True(t, strings.HasPrefix(p.Thumbnail, imgutil.PNGDataURIPrefix))

	list, err := svc.Projects(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	got, err := svc.Project(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, p.Thumbnail, got.Thumbnail)

	require.NoError(t, svc.DeleteProject(ctx, p.ID))
	list, err = svc.Projects(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = svc.Project(ctx, p.ID)
	assert.ErrorIs(t, err, project.ErrNotFound)

	t.Run("画像が無ければ保存しない", func(t *testing.T) {
		_, err := svc.SaveProject(ctx, "x", nil, domain.ProjectPhoto)
		assert.ErrorIs(t, err, domain.ErrMalformed)
	})

	t.Run("壊れた画像の合成は Malformed", func(t *testing.T) {
		_, err := svc.Compose(ctx, domain.ImageBytes([]byte("nope")), composite.Overlay{}, composite.FormatPNG)
		assert.ErrorIs(t, err, domain.ErrMalformed)
	})
}

func TestNewService(t *testing.T) {
	gate := newTestGate(t, 0)

	_, err := NewService(nil, nil, gate)
	assert.Error(t, err)
	_, err = NewService(&scriptedGateway{}, nil, nil)
	assert.Error(t, err)

	svc, err := NewService(&scriptedGateway{}, nil, gate)
	require.NoError(t, err)
	assert.Equal(t, UsageStatus{Date: "2026-10-19", Count: 0, Limit: 3, Remaining: 3}, svc.Usage())

	_, err = svc.Projects(context.Background())
	assert.Error(t, err, "保存先が無ければエラー")
}
