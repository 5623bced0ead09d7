package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func newTestLocal(t *testing.T) *Local {
	t.Helper()
	s, err := NewLocal(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestLocalWriteAndRead(t *testing.T) {
	s := newTestLocal(t)
	ctx := context.Background()

	if err := WriteFile(ctx, s, "a/b/file.bin", []byte("payload")); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got, err := ReadFile(ctx, s, "a/b/file.bin")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "payload" {
		t.Fatalf("got %q, want %q", got, "payload")
	}
}

func TestLocalWriteIsAtomic(t *testing.T) {
	s := newTestLocal(t)
	ctx := context.Background()

	w, err := s.Write(ctx, "manifest")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := io.WriteString(w, "partial"); err != nil {
		t.Fatal(err)
	}
	if ok, _ := s.Exists(ctx, "manifest"); ok {
		t.Fatal("file visible before Close")
	}
	names, err := s.List(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 0 {
		t.Errorf("List during write = %v, want none", names)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if ok, _ := s.Exists(ctx, "manifest"); !ok {
		t.Fatal("file missing after Close")
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestLocalOverwrite(t *testing.T) {
	s := newTestLocal(t)
	ctx := context.Background()
	for _, v := range []string{"first, longer", "second"} {
		if err := WriteFile(ctx, s, "f", []byte(v)); err != nil {
			t.Fatal(err)
		}
	}
	got, _ := ReadFile(ctx, s, "f")
	if string(got) != "second" {
		t.Errorf("got %q, want %q", got, "second")
	}
}

// halfStore hands out writers that write half of a buffer and then fail.
type halfStore struct {
	*Local
}

type halfWriter struct {
	io.WriteCloser
}

func (w halfWriter) Write(p []byte) (int, error) {
	n, _ := w.WriteCloser.Write(p[:len(p)/2])
	return n, errors.New("disk full")
}

func (w halfWriter) Abort() error {
	return w.WriteCloser.(Aborter).Abort()
}

func (s halfStore) Write(ctx context.Context, path string) (io.WriteCloser, error) {
	w, err := s.Local.Write(ctx, path)
	if err != nil {
		return nil, err
	}
	return halfWriter{w}, nil
}

func TestWriteFileFailureKeepsOldContent(t *testing.T) {
	s := newTestLocal(t)
	ctx := context.Background()
	if err := WriteFile(ctx, s, "manifest", []byte("old manifest")); err != nil {
		t.Fatal(err)
	}

	err := WriteFile(ctx, halfStore{s}, "manifest", []byte("new manifest"))
	if err == nil {
		t.Fatal("WriteFile succeeded on a failing writer")
	}
	got, err := ReadFile(ctx, s, "manifest")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "old manifest" {
		t.Errorf("manifest = %q, want the old content", got)
	}
	names, _ := s.List(ctx, "")
	if len(names) != 1 {
		t.Errorf("List = %v, want only the manifest", names)
	}
	entries, _ := os.ReadDir(s.Root())
	if len(entries) != 1 {
		t.Errorf("root holds %d entries, want no leftover temp file", len(entries))
	}
}

func TestLocalAbort(t *testing.T) {
	s := newTestLocal(t)
	ctx := context.Background()
	w, err := s.Write(ctx, "f")
	if err != nil {
		t.Fatal(err)
	}
	io.WriteString(w, "partial")
	if err := w.(Aborter).Abort(); err != nil {
		t.Fatalf("Abort: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("Close after Abort: %v", err)
	}
	if ok, _ := s.Exists(ctx, "f"); ok {
		t.Error("aborted file is visible")
	}
	entries, _ := os.ReadDir(s.Root())
	if len(entries) != 0 {
		t.Errorf("root holds %d entries after Abort", len(entries))
	}
}

func TestLocalCloseAfterFailedWrite(t *testing.T) {
	s := newTestLocal(t)
	ctx := context.Background()
	w, err := s.Write(ctx, "f")
	if err != nil {
		t.Fatal(err)
	}
	// Swap in a read-only handle so the next Write fails.
	af := w.(*atomicFile)
	name := af.Name()
	af.File.Close()
	ro, err := os.Open(name)
	if err != nil {
		t.Fatal(err)
	}
	af.File = ro

	if _, err := w.Write([]byte("data")); err == nil {
		t.Fatal("Write on a read-only handle succeeded")
	}
	if err := w.Close(); err == nil {
		t.Error("Close committed after a failed Write")
	}
	if ok, _ := s.Exists(ctx, "f"); ok {
		t.Error("file visible after a failed Write")
	}
	if _, err := os.Stat(name); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("temp file left behind: %v", err)
	}
}

func TestLocalNotExist(t *testing.T) {
	s := newTestLocal(t)
	ctx := context.Background()

	if _, err := s.Read(ctx, "nope"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Read err = %v, want os.ErrNotExist", err)
	}
	if ok, err := s.Exists(ctx, "nope"); err != nil || ok {
		t.Errorf("Exists = %v, %v; want false, nil", ok, err)
	}
	if err := s.Delete(ctx, "nope"); err != nil {
		t.Errorf("Delete missing: %v", err)
	}
	names, err := s.List(ctx, "nodir")
	if err != nil || len(names) != 0 {
		t.Errorf("List(nodir) = %v, %v; want empty, nil", names, err)
	}
}

func TestLocalList(t *testing.T) {
	s := newTestLocal(t)
	ctx := context.Background()
	for _, p := range []string{"d/2", "d/1", "top"} {
		if err := WriteFile(ctx, s, p, nil); err != nil {
			t.Fatal(err)
		}
	}
	got, err := s.List(ctx, "d")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != "d/1" || got[1] != "d/2" {
		t.Errorf("List(d) = %v", got)
	}
	all, _ := s.List(ctx, "")
	if len(all) != 3 {
		t.Errorf("List() = %v, want 3 entries", all)
	}
}

func TestOpenLocal(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	fs, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, ok := fs.(*Local); !ok {
		t.Fatalf("Open(%q) = %T, want *Local", dir, fs)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("root not created: %v", err)
	}
}

func TestOpenS3(t *testing.T) {
	fs, err := Open("s3://datasets/aligner/en")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	st, ok := fs.(*S3Store)
	if !ok {
		t.Fatalf("Open = %T, want *S3Store", fs)
	}
	if st.bucket != "datasets" || st.prefix != "aligner/en" {
		t.Errorf("bucket, prefix = %q, %q", st.bucket, st.prefix)
	}
	if _, err := Open("s3:///nobucket"); err == nil {
		t.Error("Open without bucket should fail")
	}
}
