package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/listops/listops/internal/lists"
	"github.com/listops/listops/internal/source"
)

func TestFetch(t *testing.T) {
	dir := t.TempDir()
	body := ",CEREALES,\n,101,AVENA,\"$ 1\"\n"
	if err := os.WriteFile(filepath.Join(dir, "mayorista.csv"), []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "sc.csv"), []byte("<html><head><title>x</title></head></html>"), 0644); err != nil {
		t.Fatal(err)
	}

	c := NewConnector(dir)
	ctx := context.Background()
	if err := c.Connect(ctx); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	res, err := c.Fetch(ctx, lists.FromKey("mayorista"))
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if res.Text != body || res.Bytes() != len(body) {
		t.Errorf("Fetch() text = %q", res.Text)
	}

	if _, err := c.Fetch(ctx, lists.FromKey("jujuy")); !errors.Is(err, source.ErrUnknownList) {
		t.Errorf("missing file: error = %v, want ErrUnknownList", err)
	}
	if _, err := c.Fetch(ctx, lists.FromKey("sc")); !errors.Is(err, source.ErrNotCSV) {
		t.Errorf("html file: error = %v, want ErrNotCSV", err)
	}
}

func TestConnectMissingDir(t *testing.T) {
	c := NewConnector(filepath.Join(t.TempDir(), "missing"))
	if err := c.Connect(context.Background()); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestFetchCancelled(t *testing.T) {
	c := NewConnector(t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Fetch(ctx, lists.FromKey("sm")); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}
