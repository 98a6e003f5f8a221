package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path"
	"strings"

	"zonebourse-go/internal/model"
)

func (c *Client) ListBourses(ctx context.Context, auth Auth) ([]model.Bourse, error) {
	resp, cancel, err := c.do(ctx, request{method: http.MethodGet, path: "/api/bourses", auth: auth, idempotent: true})
	if err != nil {
		return nil, err
	}
	defer cancel()
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, statusError(resp)
	}

	var bourses []model.Bourse
	if err := decodeJSON(resp, &bourses); err != nil {
		return nil, err
	}
	if bourses == nil {
		bourses = []model.Bourse{}
	}
	return bourses, nil
}

// GetBourse returns one record. A body of the form {"error": "..."} becomes
// an *APIError, wrapped in ErrNotFound when the status is 404.
func (c *Client) GetBourse(ctx context.Context, auth Auth, id model.BourseID) (model.Bourse, error) {
	resp, cancel, err := c.do(ctx, request{
		method:     http.MethodGet,
		path:       "/api/bourse/" + id.String(),
		auth:       auth,
		idempotent: true,
	})
	if err != nil {
		return model.Bourse{}, err
	}
	defer cancel()
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return model.Bourse{}, fmt.Errorf("%w: %v", ErrTransport, err)
	}

	var probe struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return model.Bourse{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if probe.Error != "" {
		apiErr := &APIError{Status: resp.StatusCode, Message: probe.Error}
		if resp.StatusCode == http.StatusNotFound {
			return model.Bourse{}, fmt.Errorf("%w: %w", ErrNotFound, apiErr)
		}
		return model.Bourse{}, apiErr
	}
	if resp.StatusCode == http.StatusNotFound {
		return model.Bourse{}, ErrNotFound
	}

	var bourse model.Bourse
	if err := json.Unmarshal(raw, &bourse); err != nil {
		return model.Bourse{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return bourse, nil
}

// CreateBourse streams the upload as multipart/form-data.
func (c *Client) CreateBourse(ctx context.Context, auth Auth, upload model.BourseUpload) (model.Result, error) {
	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)

	go func() {
		pw.CloseWithError(writeUpload(writer, upload))
	}()

	resp, cancel, err := c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/api/bourses",
		body:        pr,
		contentType: writer.FormDataContentType(),
		auth:        auth,
	})
	if err != nil {
		pr.CloseWithError(err)
		return model.Result{}, err
	}
	defer cancel()
	defer resp.Body.Close()

	env, err := decodeResult(resp)
	return env.result(), err
}

func (c *Client) DeleteBourse(ctx context.Context, auth Auth, id model.BourseID) (model.Result, error) {
	resp, cancel, err := c.do(ctx, request{method: http.MethodDelete, path: "/api/bourse/" + id.String(), auth: auth})
	if err != nil {
		return model.Result{}, err
	}
	defer cancel()
	defer resp.Body.Close()

	env, err := decodeResult(resp)
	return env.result(), err
}

func writeUpload(w *multipart.Writer, upload model.BourseUpload) error {
	for _, field := range upload.Fields.FormValues() {
		if err := w.WriteField(field[0], field[1]); err != nil {
			return err
		}
	}
	if err := writeFile(w, "image", upload.Image); err != nil {
		return err
	}
	if err := writeFile(w, "video", upload.Video); err != nil {
		return err
	}
	for _, fh := range upload.ProcedureMedias {
		if err := writeFile(w, "procedure_medias", fh); err != nil {
			return err
		}
	}
	return w.Close()
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func writeFile(w *multipart.Writer, field string, fh *multipart.FileHeader) error {
	if fh == nil {
		return nil
	}

	src, err := fh.Open()
	if err != nil {
		return fmt.Errorf("open %s: %w", fh.Filename, err)
	}
	defer src.Close()

	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(field), quoteEscaper.Replace(path.Base(fh.Filename))))
	header.Set("Content-Type", contentType)

	part, err := w.CreatePart(header)
	if err != nil {
		return err
	}
	_, err = io.Copy(part, src)
	return err
}

func statusError(resp *http.Response) error {
	var env resultEnvelope
	if err := decodeJSON(resp, &env); err == nil {
		msg := env.Message
		if msg == "" {
			msg = env.Error
		}
		if msg != "" {
			return &APIError{Status: resp.StatusCode, Message: msg}
		}
	}
	return &APIError{Status: resp.StatusCode}
}
