package embedded

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var course = fstest.MapFS{
	"course/lessonview.yaml": {Data: []byte("title: Embedded Course\nlessons: pali.json\n")},
	"course/pali.json": {Data: []byte(`{"lessons":[{"name":"Lesson 1","path":"1","exercises":[
		{"title":"Present","table_layout":{"table":[["bhav|ati|"]]}}
	]}]}`)},
}

func TestServeWithOptions(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ready := make(chan string, 1)
	done := make(chan error, 1)
	go func() {
		done <- ServeWithOptions(ctx, Options{
			ContentFS: course,
			RootPath:  "course",
			Addr:      "127.0.0.1:0",
			OnReady:   func(addr string) { ready <- addr },
		})
	}()

	var addr string
	select {
	case addr = <-ready:
	case err := <-done:
		t.Fatalf("server exited early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not become ready")
	}

	resp, err := http.Get("http://" + addr + "/pali/lesson/1")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "Embedded Course")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestServeMissingDocument(t *testing.T) {
	err := ServeWithOptions(context.Background(), Options{
		ContentFS: fstest.MapFS{"course/readme.txt": {Data: []byte("empty")}},
		RootPath:  "course",
		Addr:      "127.0.0.1:0",
	})
	assert.Error(t, err)
}

func TestExtractFS(t *testing.T) {
	dest := t.TempDir()
	require.NoError(t, extractFS(course, "course", dest))

	data, err := os.ReadFile(filepath.Join(dest, "pali.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Lesson 1")
	assert.FileExists(t, filepath.Join(dest, "lessonview.yaml"))

	assert.Error(t, extractFS(course, "missing", dest))
}
