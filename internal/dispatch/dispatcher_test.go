package dispatch

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Znapy/pv-organizer/internal/mediakind"
	"github.com/Znapy/pv-organizer/internal/plan"
	"github.com/Znapy/pv-organizer/internal/scan"
	"github.com/Znapy/pv-organizer/internal/thumb"
)

// writeTestPNG writes a small real PNG so the generator has something to
// decode.
func writeTestPNG(t *testing.T, path string, width, height int) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
}

func newTestDispatcher(destRoot string, dryRun bool) *Dispatcher {
	return NewDispatcher(destRoot, thumb.NewGenerator(64, 64, nil), dryRun)
}

func TestExecute_MirrorDirIdempotent(t *testing.T) {
	dest := t.TempDir()
	d := newTestDispatcher(dest, false)

	action := plan.Action{
		Type: plan.ActionMirrorDir,
		Dest: plan.DestinationEntry{RelPath: "album", AbsPath: filepath.Join(dest, "album"), IsDir: true},
	}

	for i := 0; i < 2; i++ {
		out := d.Execute(context.Background(), action)
		if out.Status != StatusSucceeded {
			t.Fatalf("run %d: mirror-dir status = %v, want %v (%s)", i, out.Status, StatusSucceeded, out.Reason)
		}
	}

	info, err := os.Stat(filepath.Join(dest, "album"))
	if err != nil || !info.IsDir() {
		t.Fatalf("mirrored directory missing: %v", err)
	}
}

func TestExecute_MirrorDirOverFileFails(t *testing.T) {
	dest := t.TempDir()
	d := newTestDispatcher(dest, false)

	blocker := filepath.Join(dest, "album")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	out := d.Execute(context.Background(), plan.Action{
		Type: plan.ActionMirrorDir,
		Dest: plan.DestinationEntry{RelPath: "album", AbsPath: blocker, IsDir: true},
	})

	if out.Status != StatusFailed {
		t.Errorf("status = %v, want %v", out.Status, StatusFailed)
	}
	if out.Kind != FailureIO {
		t.Errorf("failure kind = %v, want %v", out.Kind, FailureIO)
	}
}

func TestExecute_CreateWritesThumbnail(t *testing.T) {
	src, dest := t.TempDir(), t.TempDir()
	srcPath := filepath.Join(src, "photo.png")
	writeTestPNG(t, srcPath, 200, 100)

	d := newTestDispatcher(dest, false)
	out := d.Execute(context.Background(), plan.Action{
		Type: plan.ActionCreate,
		Source: scan.SourceEntry{
			RelPath: "photo.png",
			AbsPath: srcPath,
			Kind:    mediakind.KindImage,
			Size:    1,
		},
	})

	if out.Status != StatusSucceeded {
		t.Fatalf("create status = %v, reason %q", out.Status, out.Reason)
	}

	destPath := filepath.Join(dest, "photo.png")
	f, err := os.Open(destPath)
	if err != nil {
		t.Fatalf("thumbnail missing: %v", err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("thumbnail is not valid PNG: %v", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() > 64 || bounds.Dy() > 64 {
		t.Errorf("thumbnail %dx%d exceeds 64x64 bounds", bounds.Dx(), bounds.Dy())
	}
}

func TestExecute_NoTempFilesLeftBehind(t *testing.T) {
	src, dest := t.TempDir(), t.TempDir()
	srcPath := filepath.Join(src, "photo.png")
	writeTestPNG(t, srcPath, 50, 50)

	d := newTestDispatcher(dest, false)
	d.Execute(context.Background(), plan.Action{
		Type:   plan.ActionCreate,
		Source: scan.SourceEntry{RelPath: "photo.png", AbsPath: srcPath, Kind: mediakind.KindImage},
	})

	entries, err := os.ReadDir(dest)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".pvo-tmp-") {
			t.Errorf("temp file %s left behind after successful write", e.Name())
		}
	}
}

func TestExecute_CorruptSourceIsCollaboratorFailure(t *testing.T) {
	src, dest := t.TempDir(), t.TempDir()
	srcPath := filepath.Join(src, "broken.jpg")
	if err := os.WriteFile(srcPath, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}

	d := newTestDispatcher(dest, false)
	out := d.Execute(context.Background(), plan.Action{
		Type:   plan.ActionCreate,
		Source: scan.SourceEntry{RelPath: "broken.jpg", AbsPath: srcPath, Kind: mediakind.KindImage},
	})

	if out.Status != StatusFailed {
		t.Fatalf("status = %v, want %v", out.Status, StatusFailed)
	}
	if out.Kind != FailureCollaborator {
		t.Errorf("failure kind = %v, want %v", out.Kind, FailureCollaborator)
	}
	if out.Reason == "" {
		t.Error("failure should carry a reason")
	}
	if _, err := os.Stat(filepath.Join(dest, "broken.jpg")); !os.IsNotExist(err) {
		t.Error("no destination file should exist after a failed generation")
	}
}

func TestExecute_OrphanDeleteFileAndPrune(t *testing.T) {
	dest := t.TempDir()
	orphan := filepath.Join(dest, "gone", "deep", "old.jpg")
	if err := os.MkdirAll(filepath.Dir(orphan), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(orphan, []byte("thumb"), 0o644); err != nil {
		t.Fatal(err)
	}

	d := newTestDispatcher(dest, false)
	out := d.Execute(context.Background(), plan.Action{
		Type: plan.ActionOrphanDelete,
		Dest: plan.DestinationEntry{RelPath: "gone/deep/old.jpg", AbsPath: orphan, Exists: true},
	})

	if out.Status != StatusSucceeded {
		t.Fatalf("orphan delete status = %v, reason %q", out.Status, out.Reason)
	}
	if _, err := os.Stat(orphan); !os.IsNotExist(err) {
		t.Error("orphan file still exists")
	}
	// emptied parents pruned up to (not including) the root
	if _, err := os.Stat(filepath.Join(dest, "gone")); !os.IsNotExist(err) {
		t.Error("emptied parent directories were not pruned")
	}
	if _, err := os.Stat(dest); err != nil {
		t.Errorf("destination root must survive pruning: %v", err)
	}
}

func TestExecute_OrphanDeleteMissingFileSkips(t *testing.T) {
	dest := t.TempDir()
	d := newTestDispatcher(dest, false)

	out := d.Execute(context.Background(), plan.Action{
		Type: plan.ActionOrphanDelete,
		Dest: plan.DestinationEntry{RelPath: "gone.jpg", AbsPath: filepath.Join(dest, "gone.jpg"), Exists: true},
	})

	if out.Status != StatusSkipped {
		t.Errorf("status = %v, want %v", out.Status, StatusSkipped)
	}
}

func TestExecute_OrphanDeleteNonEmptyDirSkips(t *testing.T) {
	dest := t.TempDir()
	dir := filepath.Join(dest, "keep")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "user-file"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	d := newTestDispatcher(dest, false)
	out := d.Execute(context.Background(), plan.Action{
		Type: plan.ActionOrphanDelete,
		Dest: plan.DestinationEntry{RelPath: "keep", AbsPath: dir, Exists: true, IsDir: true},
	})

	if out.Status != StatusSkipped {
		t.Errorf("status = %v, want %v", out.Status, StatusSkipped)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("non-empty directory must survive: %v", err)
	}
}

func TestExecute_DryRunWritesNothing(t *testing.T) {
	src, dest := t.TempDir(), t.TempDir()
	srcPath := filepath.Join(src, "photo.png")
	writeTestPNG(t, srcPath, 50, 50)

	orphan := filepath.Join(dest, "orphan.jpg")
	if err := os.WriteFile(orphan, []byte("thumb"), 0o644); err != nil {
		t.Fatal(err)
	}

	d := newTestDispatcher(dest, true)

	actions := []plan.Action{
		{Type: plan.ActionMirrorDir, Dest: plan.DestinationEntry{RelPath: "album", AbsPath: filepath.Join(dest, "album"), IsDir: true}},
		{Type: plan.ActionCreate, Source: scan.SourceEntry{RelPath: "photo.png", AbsPath: srcPath, Kind: mediakind.KindImage}},
		{Type: plan.ActionOrphanDelete, Dest: plan.DestinationEntry{RelPath: "orphan.jpg", AbsPath: orphan, Exists: true}},
	}
	for _, a := range actions {
		out := d.Execute(context.Background(), a)
		if out.Status != StatusSucceeded {
			t.Errorf("dry-run %s status = %v, want %v", a.Type, out.Status, StatusSucceeded)
		}
	}

	if _, err := os.Stat(filepath.Join(dest, "album")); !os.IsNotExist(err) {
		t.Error("dry run created a directory")
	}
	if _, err := os.Stat(filepath.Join(dest, "photo.png")); !os.IsNotExist(err) {
		t.Error("dry run wrote a thumbnail")
	}
	if _, err := os.Stat(orphan); err != nil {
		t.Error("dry run deleted an orphan")
	}
}

func TestExecute_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := newTestDispatcher(t.TempDir(), false)
	out := d.Execute(ctx, plan.Action{
		Type:   plan.ActionCreate,
		Source: scan.SourceEntry{RelPath: "photo.png", Kind: mediakind.KindImage},
	})

	if out.Status != StatusCancelled {
		t.Errorf("status = %v, want %v", out.Status, StatusCancelled)
	}
}
