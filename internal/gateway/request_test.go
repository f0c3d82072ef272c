package gateway

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/gemora/internal/session"
)

func TestUpload_Multipart(t *testing.T) {
	type part struct {
		name, filename, contentType, value string
	}
	var parts []part
	var gotAuth string

	c, store := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		mr, err := r.MultipartReader()
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		for {
			p, err := mr.NextPart()
			if err == io.EOF {
				break
			}
			if err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			b, _ := io.ReadAll(p)
			parts = append(parts, part{p.FormName(), p.FileName(), p.Header.Get("Content-Type"), string(b)})
		}
		writeJSON(w, http.StatusCreated, map[string]string{"avatarUrl": "/img/1.png"})
	})
	require.NoError(t, store.Set(session.Session{Token: "tok", Role: session.RoleUser}))

	var progress []int64
	var total int64
	resp, err := c.Upload(context.Background(), "/users/avatar", Form{
		Fields: map[string]string{"name": "Nimal", "email": "n@x.lk"},
		Files: []FormFile{{
			Field:       "avatar",
			FileName:    "me.png",
			ContentType: "image/png",
			Content:     strings.NewReader("PNGDATA"),
		}},
	}, &RequestOptions{OnProgress: func(done, t int64) {
		progress = append(progress, done)
		total = t
	}})
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "Bearer tok", gotAuth)

	require.Len(t, parts, 3)
	assert.Equal(t, part{"email", "", "", "n@x.lk"}, parts[0])
	assert.Equal(t, part{"name", "", "", "Nimal"}, parts[1])
	assert.Equal(t, part{"avatar", "me.png", "image/png", "PNGDATA"}, parts[2])

	require.NotEmpty(t, progress)
	assert.Equal(t, total, progress[len(progress)-1], "progress ends at the full size")
}

func TestUpload_MissingContent(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("request must not be sent")
	})

	_, err := c.Upload(context.Background(), "/users/avatar", Form{
		Files: []FormFile{{Field: "avatar", FileName: "x.png"}},
	}, nil)
	gerr, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, KindRequest, gerr.Kind)
}

func TestDownload(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/files/missing" {
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "File not found"})
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = io.WriteString(w, "%PDF-1.4 report")
	})

	t.Run("success streams body", func(t *testing.T) {
		var buf bytes.Buffer
		var last int64
		resp, err := c.Download(context.Background(), "/files/report", &buf, &RequestOptions{
			OnProgress: func(done, _ int64) { last = done },
		})
		require.NoError(t, err)
		assert.Nil(t, resp.Body)
		assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
		assert.Equal(t, "%PDF-1.4 report", buf.String())
		assert.Equal(t, int64(buf.Len()), last)
	})

	t.Run("error status writes nothing", func(t *testing.T) {
		var buf bytes.Buffer
		_, err := c.Download(context.Background(), "/files/missing", &buf, nil)
		require.Error(t, err)
		assert.True(t, IsStatus(err, http.StatusNotFound))
		assert.Zero(t, buf.Len())
	})

	t.Run("nil writer", func(t *testing.T) {
		_, err := c.Download(context.Background(), "/files/report", nil, nil)
		gerr, ok := AsError(err)
		require.True(t, ok)
		assert.Equal(t, KindRequest, gerr.Kind)
	})
}

func TestDownload_TruncatedBody(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "64")
		_, _ = io.WriteString(w, "partial")
	})

	var buf bytes.Buffer
	_, err := c.Download(context.Background(), "/files/report", &buf, nil)

	gerr, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, KindNetwork, gerr.Kind)
	assert.Equal(t, http.StatusOK, gerr.StatusCode)
	assert.Equal(t, "partial", buf.String(), "bytes already received stay in the writer")
}

func TestBackendMessage(t *testing.T) {
	tests := map[string]string{
		`{"message":"m","error":"e"}`: "m",
		`{"error":"e"}`:               "e",
		`{}`:                          "",
		`  just text `:                "just text",
		``:                            "",
		`[1,2]`:                       "",
	}
	for body, want := range tests {
		assert.Equal(t, want, backendMessage([]byte(body)), body)
	}
}
