// Package media turns admin uploads into inline previews.
package media

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/sync/errgroup"
)

const previewWorkers = 4

type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
	KindOther Kind = "other"
)

type Preview struct {
	Name    string
	MIME    string
	Kind    Kind
	Size    int64
	DataURL string
}

// Build reads files concurrently and returns their previews in input order.
// When multiple is false only the first file is used.
func Build(ctx context.Context, files []*multipart.FileHeader, multiple bool) ([]Preview, error) {
	if len(files) == 0 {
		return nil, nil
	}
	if !multiple {
		files = files[:1]
	}

	previews := make([]Preview, len(files))
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(previewWorkers)

	for i, fh := range files {
		i, fh := i, fh
		group.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			p, err := read(fh)
			if err != nil {
				return fmt.Errorf("preview %s: %w", fh.Filename, err)
			}
			previews[i] = p
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}
	return previews, nil
}

func read(fh *multipart.FileHeader) (Preview, error) {
	f, err := fh.Open()
	if err != nil {
		return Preview{}, err
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return Preview{}, err
	}
	return FromBytes(fh.Filename, content), nil
}

// FromBytes sniffs the content type instead of trusting the declared one.
func FromBytes(name string, content []byte) Preview {
	mt := mimetype.Detect(content)
	mime := mt.String()
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}

	return Preview{
		Name:    name,
		MIME:    mime,
		Kind:    Classify(mime),
		Size:    int64(len(content)),
		DataURL: "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(content),
	}
}

func Classify(mime string) Kind {
	switch {
	case strings.HasPrefix(mime, "image/"):
		return KindImage
	case strings.HasPrefix(mime, "video/"):
		return KindVideo
	default:
		return KindOther
	}
}
