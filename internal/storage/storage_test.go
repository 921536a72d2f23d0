package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rakeshreddymandala/humaneq-hr/internal/config"
)

func TestLocalSave(t *testing.T) {
	l, err := NewLocal(filepath.Join(t.TempDir(), "uploads"))
	require.NoError(t, err)

	path, err := l.Save("interview_x_user_1.webm", []byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(l.Dir(), "interview_x_user_1.webm"), path)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))

	_, err = l.Save("../escape.webm", []byte("x"))
	assert.Error(t, err)
	_, err = l.Save("", []byte("x"))
	assert.Error(t, err)
}

// fakeS3 records the requests an S3 client sends in path-style mode.
type fakeS3 struct {
	mu       sync.Mutex
	headCode int
	putCode  int
	puts     map[string]string
	types    map[string]string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch r.Method {
	case http.MethodHead:
		w.WriteHeader(f.headCode)
	case http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		f.puts[r.URL.Path] = string(body)
		f.types[r.URL.Path] = r.Header.Get("Content-Type")
		w.WriteHeader(f.putCode)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newTestS3(t *testing.T, f *fakeS3) *S3 {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	s, err := NewS3(context.Background(), config.StorageConfig{
		Bucket:          "media",
		Region:          "us-east-1",
		AccessKeyID:     "AKIDTEST",
		SecretAccessKey: "secret",
		Endpoint:        srv.URL,
		UsePathStyle:    true,
	})
	require.NoError(t, err)
	return s
}

func TestS3PingAndPut(t *testing.T) {
	f := &fakeS3{headCode: http.StatusOK, putCode: http.StatusOK, puts: map[string]string{}, types: map[string]string{}}
	s := newTestS3(t, f)

	require.NoError(t, s.Ping(context.Background()))

	url, err := s.Put(context.Background(), VideoPrefix+"a.webm", []byte("video-bytes"), VideoContentType)
	require.NoError(t, err)
	assert.Equal(t, s.endpoint+"/media/video/a.webm", url)
	assert.Contains(t, f.puts["/media/video/a.webm"], "video-bytes")
	assert.Equal(t, VideoContentType, f.types["/media/video/a.webm"])
}

func TestS3PingFailure(t *testing.T) {
	f := &fakeS3{headCode: http.StatusForbidden, putCode: http.StatusOK, puts: map[string]string{}, types: map[string]string{}}
	s := newTestS3(t, f)
	assert.Error(t, s.Ping(context.Background()))
}

func TestS3URLWithoutEndpoint(t *testing.T) {
	s := &S3{bucket: "media", region: "eu-west-1"}
	assert.Equal(t, "https://media.s3.eu-west-1.amazonaws.com/audio/c1.mp3", s.URL(AudioPrefix+"c1.mp3"))
}

func TestDisabled(t *testing.T) {
	var d ObjectStore = Disabled{}
	assert.ErrorIs(t, d.Ping(context.Background()), ErrNotConfigured)
	_, err := d.Put(context.Background(), "k", nil, "x")
	assert.ErrorIs(t, err, ErrNotConfigured)
}
