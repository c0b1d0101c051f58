package report

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"radiolens/internal/imageprep"
	"radiolens/internal/vision"
)

func encodePNG(t *testing.T, w, h, seed int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8((x + seed) % 256), G: uint8(y % 256), B: uint8(seed % 256), A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func assertTempDirEmpty(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read temp dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("temp dir has %d entries after pipeline returned, want 0", len(entries))
	}
}

func TestAnalyze_SuccessReturnsReportVerbatim(t *testing.T) {
	dir := t.TempDir()
	fake := &vision.FakeClient{Reply: sampleReport}
	p := NewPipeline(fake, imageprep.Options{TargetWidth: 100, TempDir: dir}, nil)

	res := p.Analyze(context.Background(), bytes.NewReader(encodePNG(t, 60, 30, 1)))
	if !res.OK() {
		t.Fatalf("unexpected fault: %v", res.Err)
	}
	if res.Report != sampleReport {
		t.Fatalf("report was modified")
	}
	if res.Summary != "Pneumonia" {
		t.Fatalf("summary = %q, want Pneumonia", res.Summary)
	}
	if res.RequestID == "" {
		t.Fatal("missing request id")
	}
	if res.Render() != sampleReport {
		t.Fatalf("render must return the report verbatim on success")
	}
	assertTempDirEmpty(t, dir)
}

func TestAnalyze_FaultRendersWarningMarker(t *testing.T) {
	dir := t.TempDir()
	fake := &vision.FakeClient{Err: errors.New("quota exceeded")}
	p := NewPipeline(fake, imageprep.Options{TargetWidth: 100, TempDir: dir}, nil)

	res := p.Analyze(context.Background(), bytes.NewReader(encodePNG(t, 60, 30, 2)))
	if res.Kind != KindAnalysis {
		t.Fatalf("kind = %s, want %s", res.Kind, KindAnalysis)
	}
	rendered := res.Render()
	if !strings.HasPrefix(rendered, WarningMarker) {
		t.Fatalf("render = %q, want warning marker prefix", rendered)
	}
	if !strings.Contains(rendered, "quota exceeded") {
		t.Fatalf("render = %q, want underlying diagnostic", rendered)
	}
	assertTempDirEmpty(t, dir)
}

func TestAnalyze_UndecodableInput(t *testing.T) {
	dir := t.TempDir()
	fake := &vision.FakeClient{Reply: sampleReport}
	p := NewPipeline(fake, imageprep.Options{TargetWidth: 100, TempDir: dir}, nil)

	res := p.Analyze(context.Background(), strings.NewReader("not an image"))
	if res.Kind != KindDecode {
		t.Fatalf("kind = %s, want %s", res.Kind, KindDecode)
	}
	if fake.CallCount() != 0 {
		t.Fatalf("model was called %d times for an undecodable input", fake.CallCount())
	}
	assertTempDirEmpty(t, dir)
}

func TestAnalyze_CacheSkipsSecondCall(t *testing.T) {
	dir := t.TempDir()
	fake := &vision.FakeClient{Reply: sampleReport}
	cache, err := NewCache(16, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	p := NewPipeline(fake, imageprep.Options{TargetWidth: 100, TempDir: dir}, cache)

	src := encodePNG(t, 60, 30, 3)
	first := p.Analyze(context.Background(), bytes.NewReader(src))
	second := p.Analyze(context.Background(), bytes.NewReader(src))

	if !first.OK() || !second.OK() {
		t.Fatalf("unexpected faults: %v / %v", first.Err, second.Err)
	}
	if first.Cached {
		t.Fatal("first result must not be cached")
	}
	if !second.Cached {
		t.Fatal("second result should come from cache")
	}
	if fake.CallCount() != 1 {
		t.Fatalf("model called %d times, want 1", fake.CallCount())
	}
	if second.Report != first.Report || second.Summary != first.Summary {
		t.Fatal("cached result differs from original")
	}
	assertTempDirEmpty(t, dir)
}

func TestAnalyze_OverlappingRequestsDoNotShareArtifacts(t *testing.T) {
	dir := t.TempDir()

	var mu sync.Mutex
	seen := map[string][]byte{}
	release := make(chan struct{})
	fake := &vision.FakeClient{
		OnDescribe: func(ctx context.Context, prompt string, img vision.Image) (string, error) {
			mu.Lock()
			key := string(img.Data)
			seen[key] = append([]byte(nil), img.Data...)
			mu.Unlock()
			<-release // hold both requests in flight at once
			return sampleReport, nil
		},
	}
	p := NewPipeline(fake, imageprep.Options{TargetWidth: 100, TempDir: dir}, nil)

	var wg sync.WaitGroup
	for seed := 0; seed < 2; seed++ {
		wg.Add(1)
		go func(seed int) {
			defer wg.Done()
			res := p.Analyze(context.Background(), bytes.NewReader(encodePNG(t, 60, 30, seed*100)))
			if !res.OK() {
				t.Errorf("fault: %v", res.Err)
			}
		}(seed)
	}
	// Wait until both calls are inside the model before releasing them.
	deadline := time.After(5 * time.Second)
	for {
		mu.Lock()
		n := len(seen)
		mu.Unlock()
		if n == 2 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("requests never overlapped")
		case <-time.After(5 * time.Millisecond):
		}
	}
	close(release)
	wg.Wait()

	if len(seen) != 2 {
		t.Fatalf("expected 2 distinct normalized images, got %d", len(seen))
	}
	assertTempDirEmpty(t, dir)
}

func TestCache_ExpiresByTTL(t *testing.T) {
	cache, err := NewCache(4, 25*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	key := Key("fake", []byte("img"))
	cache.Set(key, "report")
	if _, ok := cache.Get(key); !ok {
		t.Fatal("fresh entry missing")
	}
	time.Sleep(40 * time.Millisecond)
	if _, ok := cache.Get(key); ok {
		t.Fatal("expired entry still served")
	}
}
