// vrazo は画像生成・修復・サムネイル合成をローカルで実行する CLI です。
//
//	vrazo [-conf config.yml] <command> [flags]
//
// command: photo, enhance, thumbnail, compose, projects, usage
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/shouni/vrazo-kit/pkg/config"
	"github.com/shouni/vrazo-kit/pkg/domain"
	"github.com/shouni/vrazo-kit/pkg/studio"
	"github.com/shouni/vrazo-kit/pkg/utils"
)

const usageText = `usage: vrazo [-conf config.yml] <command> [flags]

commands:
  photo      -prompt TEXT [-out FILE] [-save]
  enhance    -in FILE|URL [-res 4K|8K] [-out FILE] [-save]
  thumbnail  -title TEXT [-ref FILE|URL]... [-style NAME] [-headline TEXT] [-subtitle TEXT] [-out FILE] [-save]
  compose    -in FILE|gs://URI [-headline TEXT] [-subtitle TEXT] [-format png|jpeg] [-out FILE]
  projects   [-delete ID | -show ID [-out FILE]]
  usage
`

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("vrazo", flag.ContinueOnError)
	configPath := fs.String("conf", "config.yml", "path to config file")
	fs.Usage = func() { fmt.Fprint(os.Stderr, usageText) }
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	conf, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	log := setupLogger(conf.Env)
	slog.SetDefault(log)
	log.Debug("starting vrazo",
		slog.String("config", *configPath),
		slog.String("env", conf.Env),
		slog.String("model", conf.Gemini.Model),
		slog.String("store", conf.Store.Backend),
		utils.Secret(conf.Gemini.APIKey),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, conf, log)
	if err != nil {
		log.Error("初期化に失敗しました", utils.Err(err))
		return 1
	}
	defer a.Close()

	cmd, cmdArgs := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "photo":
		err = a.photo(ctx, cmdArgs)
	case "enhance":
		err = a.enhance(ctx, cmdArgs)
	case "thumbnail":
		err = a.thumbnail(ctx, cmdArgs)
	case "compose":
		err = a.compose(ctx, cmdArgs)
	case "projects":
		err = a.projects(ctx, cmdArgs)
	case "usage":
		err = a.usage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", cmd)
		fs.Usage()
		return 2
	}

	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		log.Debug("command failed", slog.String("command", cmd), utils.Err(err))
		fmt.Fprintln(os.Stderr, userMessage(err))
		return 1
	}
	return 0
}

// userMessage は利用者に見せる1行のメッセージを返します。上流の生のエラーは表示しません。
func userMessage(err error) string {
	var qe *studio.QuotaError
	if errors.As(err, &qe) {
		return qe.UserMessage()
	}
	if ce, ok := domain.AsClassified(err); ok {
		return ce.UserMessage
	}
	return err.Error()
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case config.EnvLocal, config.EnvDev:
		log = slog.New(
			slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	default:
		log = slog.New(
			slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}
