package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"sort"
	"strings"
)

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, opts *RequestOptions) (*Response, error) {
	return c.do(ctx, call{method: http.MethodGet, path: path, opts: opts})
}

// Post sends body as JSON. A nil body is sent as {}.
func (c *Client) Post(ctx context.Context, path string, body any, opts *RequestOptions) (*Response, error) {
	return c.send(ctx, http.MethodPost, path, body, opts)
}

// Put sends body as JSON. A nil body is sent as {}.
func (c *Client) Put(ctx context.Context, path string, body any, opts *RequestOptions) (*Response, error) {
	return c.send(ctx, http.MethodPut, path, body, opts)
}

// Patch sends body as JSON. A nil body is sent as {}.
func (c *Client) Patch(ctx context.Context, path string, body any, opts *RequestOptions) (*Response, error) {
	return c.send(ctx, http.MethodPatch, path, body, opts)
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string, opts *RequestOptions) (*Response, error) {
	return c.do(ctx, call{method: http.MethodDelete, path: path, opts: opts})
}

func (c *Client) send(ctx context.Context, method, path string, body any, opts *RequestOptions) (*Response, error) {
	payload, err := encodeJSON(body)
	if err != nil {
		return nil, &Error{Kind: KindRequest, Method: method, Path: path, Cause: err}
	}
	return c.do(ctx, call{method: method, path: path, body: payload, opts: opts})
}

func encodeJSON(body any) ([]byte, error) {
	if body == nil {
		return []byte("{}"), nil
	}
	if raw, ok := body.(json.RawMessage); ok {
		return raw, nil
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	return data, nil
}

// FormFile is one file part of a multipart upload.
type FormFile struct {
	Field       string
	FileName    string
	ContentType string
	Content     io.Reader
}

// Form is a multipart body.
type Form struct {
	Fields map[string]string
	Files  []FormFile
}

// Upload POSTs form as multipart/form-data. OnProgress in opts observes the
// bytes sent.
func (c *Client) Upload(ctx context.Context, path string, form Form, opts *RequestOptions) (*Response, error) {
	body, contentType, err := encodeMultipart(form)
	if err != nil {
		return nil, &Error{Kind: KindRequest, Method: http.MethodPost, Path: path, Cause: err}
	}
	return c.do(ctx, call{
		method:      http.MethodPost,
		path:        path,
		body:        body,
		contentType: contentType,
		opts:        opts,
	})
}

func encodeMultipart(form Form) ([]byte, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	keys := make([]string, 0, len(form.Fields))
	for k := range form.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := mw.WriteField(k, form.Fields[k]); err != nil {
			return nil, "", fmt.Errorf("failed to write field %s: %w", k, err)
		}
	}

	for _, f := range form.Files {
		if f.Content == nil {
			return nil, "", fmt.Errorf("file part %s has no content", f.Field)
		}
		contentType := f.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			escapeQuotes(f.Field), escapeQuotes(f.FileName)))
		h.Set("Content-Type", contentType)

		part, err := mw.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create part %s: %w", f.Field, err)
		}
		if _, err := io.Copy(part, f.Content); err != nil {
			return nil, "", fmt.Errorf("failed to read %s: %w", f.FileName, err)
		}
	}

	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finish multipart body: %w", err)
	}
	return buf.Bytes(), mw.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

// Download GETs path and streams a successful body into w. An error status
// writes nothing to w. A connection lost mid-body returns a KindNetwork
// error after w has received the bytes read so far.
func (c *Client) Download(ctx context.Context, path string, w io.Writer, opts *RequestOptions) (*Response, error) {
	if w == nil {
		return nil, &Error{Kind: KindRequest, Method: http.MethodGet, Path: path, Cause: fmt.Errorf("nil writer")}
	}
	return c.do(ctx, call{method: http.MethodGet, path: path, opts: opts, sink: w})
}
