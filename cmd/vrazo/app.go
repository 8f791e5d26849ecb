package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/patrickmn/go-cache"
	"github.com/shouni/go-http-kit/pkg/httpkit"
	"github.com/shouni/go-remote-io/pkg/gcsfactory"
	"github.com/shouni/go-remote-io/pkg/remoteio"

	"github.com/shouni/vrazo-kit/pkg/composite"
	"github.com/shouni/vrazo-kit/pkg/config"
	"github.com/shouni/vrazo-kit/pkg/domain"
	"github.com/shouni/vrazo-kit/pkg/generator"
	"github.com/shouni/vrazo-kit/pkg/kvstore"
	"github.com/shouni/vrazo-kit/pkg/project"
	"github.com/shouni/vrazo-kit/pkg/quota"
	"github.com/shouni/vrazo-kit/pkg/retry"
	"github.com/shouni/vrazo-kit/pkg/studio"
)

type app struct {
	svc     *studio.Service
	reader  remoteio.InputReader
	closers []io.Closer
	logger  *slog.Logger
}

func newApp(ctx context.Context, conf *config.Config, log *slog.Logger) (*app, error) {
	a := &app{logger: log}

	store, err := kvstore.Open(ctx, kvstore.Options{
		Backend:       kvstore.Backend(conf.Store.Backend),
		SQLitePath:    conf.Store.SQLitePath,
		RedisAddr:     conf.Store.RedisAddr,
		RedisPassword: conf.Store.RedisPassword,
		RedisDB:       conf.Store.RedisDB,
		RedisPrefix:   conf.Store.RedisPrefix,
	})
	if err != nil {
		return nil, fmt.Errorf("ストアを開けませんでした: %w", err)
	}
	a.closers = append(a.closers, store)

	if err := a.build(ctx, conf, store); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) build(ctx context.Context, conf *config.Config, store kvstore.Store) error {
	reader, err := a.openReader(ctx, conf)
	if err != nil {
		return err
	}
	a.reader = reader

	gate, err := quota.NewGate(ctx, quota.NewKVStore(store),
		quota.WithLimit(conf.Quota.DailyLimit),
		quota.WithLogger(a.logger),
	)
	if err != nil {
		return err
	}

	gateway, err := newGateway(ctx, conf, reader, a.logger)
	if err != nil {
		return err
	}

	renderer, err := composite.NewRenderer(
		composite.WithMaxWidth(conf.Composite.MaxWidth),
		composite.WithJPEGQuality(conf.Composite.JPEGQuality),
	)
	if err != nil {
		return err
	}

	runner := retry.NewRunner(
		retry.WithMaxAttempts(conf.Retry.MaxAttempts),
		retry.WithInterval(conf.Retry.Interval),
		retry.WithLogger(a.logger),
	)

	a.svc, err = studio.NewService(gateway, runner, gate,
		studio.WithProjects(project.NewStore(store)),
		studio.WithRenderer(renderer),
		studio.WithLogger(a.logger),
	)
	return err
}

// openReader はローカルファイルと gs:// を読む InputReader を返します。
// GCS が無効な場合はローカルファイルのみを扱います。
func (a *app) openReader(ctx context.Context, conf *config.Config) (remoteio.InputReader, error) {
	if !conf.Assets.GCSEnabled {
		return remoteio.NewUniversalInputReader(nil, nil), nil
	}
	factory, err := gcsfactory.New(ctx)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, factory)
	reader, err := factory.InputReader()
	if err != nil {
		return nil, err
	}
	a.logger.Debug("GCS リーダーを有効にしました")
	return reader, nil
}

// newGateway は API キーがある場合に Gemini の Gateway を作成します。
// キーが無い場合は生成系のコマンドだけが失敗するようにします。
func newGateway(ctx context.Context, conf *config.Config, reader remoteio.InputReader, log *slog.Logger) (generator.ImageGateway, error) {
	if conf.Gemini.APIKey == "" {
		log.Debug("GEMINI_API_KEY が未設定のため生成系コマンドは利用できません")
		return missingKeyGateway{}, nil
	}

	client, err := generator.NewGenAIClient(ctx, conf.Gemini.APIKey)
	if err != nil {
		return nil, err
	}
	profile, err := generator.ParseSafetyProfile(conf.Gemini.SafetyProfile)
	if err != nil {
		return nil, err
	}

	assets := generator.NewGeminiImageCore(
		reader,
		httpkit.New(conf.Assets.FetchTimeout),
		cache.New(conf.Assets.CacheTTL, 2*conf.Assets.CacheTTL),
		conf.Assets.CacheTTL,
	)
	return generator.NewGeminiGateway(client.Models, assets,
		generator.WithModel(conf.Gemini.Model),
		generator.WithSafetyProfile(profile),
		generator.WithLogger(log),
	)
}

type missingKeyGateway struct{}

func (missingKeyGateway) Submit(context.Context, domain.GenerationRequest) (*domain.GenerationResult, error) {
	return nil, domain.NewMalformed("GEMINI_API_KEY is not set. Add it to your environment or .env file.", errors.New("missing api key"))
}

// Close は開いた順とは逆にリソースを閉じます。
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			a.logger.Warn("クローズに失敗しました", "error", err)
		}
	}
	a.closers = nil
}
