// internal/services/helpers_test.go
package services

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/goldenrice/rice-backend/internal/config"
	"github.com/goldenrice/rice-backend/internal/models"
)

func pngBytes(t testing.TB, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// fileHeader builds a real multipart file header the way gin hands them out.
func fileHeader(t testing.TB, filename string, content []byte) *multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(int64(len(content)) + 4096)
	require.NoError(t, err)
	t.Cleanup(func() { form.RemoveAll() })
	return form.File["file"][0]
}

type multipartFile struct {
	name string
	body []byte
}

func headers(t testing.TB, files []*multipartFile) []*multipart.FileHeader {
	t.Helper()
	out := make([]*multipart.FileHeader, len(files))
	for i, f := range files {
		out[i] = fileHeader(t, f.name, f.body)
	}
	return out
}

func newTestStorage(t testing.TB) (*StorageService, string) {
	t.Helper()
	dir := t.TempDir()
	storage := NewStorageService(NewLocalStore(dir, "/uploads/files"), config.UploadConfig{
		MaxImageSizeMB:   10,
		MaxProofSizeMB:   5,
		MaxProductImages: 4,
	})
	storage.now = fixedClock(time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC))
	return storage, dir
}

func fixedClock(at time.Time) Clock {
	return func() time.Time { return at }
}

type notification struct {
	kind     string
	orderID  string
	from     models.OrderStatus
	to       models.OrderStatus
	accepted bool
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []notification
}

func (n *recordingNotifier) OrderPlaced(_ context.Context, order *models.Order) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, notification{kind: "placed", orderID: order.ID.String(), to: order.Status})
}

func (n *recordingNotifier) OrderStatusChanged(_ context.Context, order *models.Order, from models.OrderStatus) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, notification{kind: "status", orderID: order.ID.String(), from: from, to: order.Status})
}

func (n *recordingNotifier) PaymentReviewed(_ context.Context, order *models.Order, accepted bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, notification{kind: "payment", orderID: order.ID.String(), to: order.Status, accepted: accepted})
}

func (n *recordingNotifier) kinds() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.events))
	for i, e := range n.events {
		out[i] = e.kind
	}
	return out
}
