package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/shouni/go-remote-io/pkg/remoteio"

	"github.com/shouni/vrazo-kit/pkg/composite"
	"github.com/shouni/vrazo-kit/pkg/domain"
	"github.com/shouni/vrazo-kit/pkg/imgutil"
	"github.com/shouni/vrazo-kit/pkg/project"
	"github.com/shouni/vrazo-kit/pkg/studio"
)

// refList は -ref を複数回指定するための flag.Value です。
type refList []string

func (r *refList) String() string     { return strings.Join(*r, ",") }
func (r *refList) Set(v string) error { *r = append(*r, v); return nil }

func (a *app) photo(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("photo", flag.ContinueOnError)
	prompt := fs.String("prompt", "", "text prompt (max 800 chars)")
	out := fs.String("out", "", "output file (default: vrazo-photo-<unix>.png)")
	save := fs.Bool("save", false, "save to projects")
	if err := fs.Parse(args); err != nil {
		return err
	}

	res, err := a.svc.GeneratePhoto(ctx, *prompt)
	if err != nil {
		return err
	}
	return a.finish(ctx, res, *out, "photo", *save, project.TitleFromPrompt(*prompt), domain.ProjectPhoto)
}

func (a *app) enhance(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("enhance", flag.ContinueOnError)
	in := fs.String("in", "", "image file or URL")
	res := fs.String("res", "4K", "target resolution (4K or 8K)")
	out := fs.String("out", "", "output file (default: vrazo-enhanced-<unix>.png)")
	save := fs.Bool("save", false, "save to projects")
	if err := fs.Parse(args); err != nil {
		return err
	}

	resolution, err := domain.ParseResolution(*res)
	if err != nil {
		return err
	}
	ref, err := loadRef(ctx, a.reader, *in)
	if err != nil {
		return err
	}
	result, err := a.svc.EnhancePhoto(ctx, ref, resolution)
	if err != nil {
		return err
	}
	return a.finish(ctx, result, *out, "enhanced", *save, "Enhanced "+string(resolution), domain.ProjectPhoto)
}

func (a *app) thumbnail(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("thumbnail", flag.ContinueOnError)
	title := fs.String("title", "", "video title (max 150 chars)")
	style := fs.String("style", "", "Viral Reaction | Tech Review | Cinematic | Gaming")
	headline := fs.String("headline", "", "headline overlay text")
	subtitle := fs.String("subtitle", "", "subtitle overlay text")
	out := fs.String("out", "", "output file (default: vrazo-thumb-<unix>.png)")
	save := fs.Bool("save", false, "save to projects")
	var refs refList
	fs.Var(&refs, "ref", "reference image file or URL (up to 2)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	st, err := domain.ParseStyle(*style)
	if err != nil {
		return err
	}
	images := make([]domain.ImageRef, 0, len(refs))
	for _, r := range refs {
		ref, err := loadRef(ctx, a.reader, r)
		if err != nil {
			return err
		}
		images = append(images, ref)
	}

	res, err := a.svc.GenerateThumbnail(ctx, *title, images, st)
	if err != nil {
		return err
	}
	if res.Empty {
		fmt.Fprintln(os.Stderr, res.Message)
		return nil
	}

	data, mimeType := res.Result.Image.Data, res.Result.Image.MimeType
	overlay := composite.Overlay{Headline: *headline, Subtitle: *subtitle}
	if !overlay.IsEmpty() {
		if data, err = a.svc.Compose(ctx, domain.ImageBytes(data), overlay, composite.FormatPNG); err != nil {
			return err
		}
		mimeType = "image/png"
	}
	return a.write(ctx, data, mimeType, *out, "thumb", *save, *title, domain.ProjectThumbnail)
}

func (a *app) compose(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("compose", flag.ContinueOnError)
	in := fs.String("in", "", "base image file or gs:// URI")
	headline := fs.String("headline", "", "headline overlay text")
	subtitle := fs.String("subtitle", "", "subtitle overlay text")
	format := fs.String("format", "png", "png or jpeg")
	out := fs.String("out", "", "output file (default: vrazo-thumb-<unix>.<format>)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	f, err := composite.ParseFormat(*format)
	if err != nil {
		return err
	}
	base, err := readImage(ctx, a.reader, *in)
	if err != nil {
		return err
	}
	data, err := a.svc.Compose(ctx, domain.ImageBytes(base), composite.Overlay{Headline: *headline, Subtitle: *subtitle}, f)
	if err != nil {
		return err
	}
	path := *out
	if path == "" {
		path = fmt.Sprintf("vrazo-thumb-%d.%s", time.Now().Unix(), f)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("書き込みに失敗しました: %w", err)
	}
	fmt.Println(path)
	return nil
}

func (a *app) projects(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("projects", flag.ContinueOnError)
	del := fs.String("delete", "", "project ID to delete")
	show := fs.String("show", "", "project ID to show")
	out := fs.String("out", "", "with -show: write the saved image to this file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *show != "" {
		return a.showProject(ctx, *show, *out)
	}

	if *del != "" {
		if err := a.svc.DeleteProject(ctx, *del); err != nil {
			return err
		}
		fmt.Printf("deleted %s\n", *del)
		return nil
	}

	list, err := a.svc.Projects(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Println("no projects yet")
		return nil
	}
	for _, p := range list {
		fmt.Printf("%s\t%-9s\t%s\t%s\n", p.ID, p.Type, p.Timestamp.Format(time.DateTime), p.Title)
	}
	return nil
}

func (a *app) usage() error {
	u := a.svc.Usage()
	fmt.Printf("%s: %d/%d used, %d remaining\n", u.Date, u.Count, u.Limit, u.Remaining)
	return nil
}

func (a *app) showProject(ctx context.Context, id, out string) error {
	p, err := a.svc.Project(ctx, id)
	if err != nil {
		return err
	}
	fmt.Printf("id:        %s\ntitle:     %s\ntype:      %s\ntimestamp: %s\n", p.ID, p.Title, p.Type, p.Timestamp.Format(time.DateTime))
	if out == "" {
		return nil
	}
	data, err := domain.InlineImage(p.Thumbnail).Bytes()
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("書き込みに失敗しました: %w", err)
	}
	fmt.Println(out)
	return nil
}

// finish は生成結果をファイルに書き出します。画像が無い場合はメッセージのみを表示します。
func (a *app) finish(ctx context.Context, res *studio.Outcome, out, prefix string, save bool, title string, typ domain.ProjectType) error {
	if res.Empty {
		fmt.Fprintln(os.Stderr, res.Message)
		return nil
	}
	img := res.Result.Image
	return a.write(ctx, img.Data, img.MimeType, out, prefix, save, title, typ)
}

// write は画像を書き出します。out が空の場合は実際の画像形式に合わせた拡張子で名前を付けます。
func (a *app) write(ctx context.Context, data []byte, mimeType, out, prefix string, save bool, title string, typ domain.ProjectType) error {
	path := out
	if path == "" {
		path = outputName(prefix, data, mimeType, time.Now())
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("書き込みに失敗しました: %w", err)
	}
	fmt.Println(path)

	if save {
		p, err := a.svc.SaveProject(ctx, title, data, typ)
		if err != nil {
			return err
		}
		fmt.Printf("saved project %s\n", p.ID)
	}
	return nil
}

// outputName は既定の出力ファイル名を返します。
func outputName(prefix string, data []byte, mimeType string, now time.Time) string {
	ext := imgutil.ExtensionForMIME(imgutil.DetectImageMIME(data, mimeType))
	return fmt.Sprintf("vrazo-%s-%d%s", prefix, now.Unix(), ext)
}

// loadRef は URL ならリモート参照、それ以外は reader でローカルファイルとして読み込みます。
func loadRef(ctx context.Context, reader remoteio.InputReader, s string) (domain.ImageRef, error) {
	switch {
	case s == "":
		return domain.ImageRef{}, nil
	case strings.HasPrefix(s, "http://"), strings.HasPrefix(s, "https://"), remoteio.IsGCSURI(s):
		return domain.RemoteImage(s), nil
	case strings.HasPrefix(s, "data:"):
		return domain.InlineImage(s), nil
	}
	data, err := readImage(ctx, reader, s)
	if err != nil {
		return domain.ImageRef{}, err
	}
	return domain.ImageBytes(data), nil
}

// readImage はローカルファイルまたは gs:// のオブジェクトを読み込みます。
func readImage(ctx context.Context, reader remoteio.InputReader, path string) ([]byte, error) {
	rc, err := reader.Open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("画像を読み込めませんでした: %w", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("画像を読み込めませんでした: %w", err)
	}
	return data, nil
}
