package photodrift

import (
	"fmt"
	"image"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/anthonynsimon/bild/clone"

	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

const loadTimeout = 15 * time.Second

var photoClient = &http.Client{Timeout: loadTimeout}

// LoadBitmaps fetches and decodes every locator in parallel. A locator that
// fails to fetch or decode is logged and dropped; the relative order of the
// successes matches the input order. The call returns only after every
// locator has settled.
func LoadBitmaps(locators []string, log Logger) []image.Image {
	results := make([]image.Image, len(locators))

	var wg sync.WaitGroup
	for i, locator := range locators {
		wg.Add(1)
		go func(i int, locator string) {
			defer wg.Done()
			bitmap, err := loadBitmap(locator)
			if err != nil {
				log.Warnf("photo %q skipped: %v", locator, err)
				return
			}
			results[i] = bitmap
		}(i, locator)
	}
	wg.Wait()

	loaded := make([]image.Image, 0, len(results))
	for _, bitmap := range results {
		if bitmap != nil {
			loaded = append(loaded, bitmap)
		}
	}
	return loaded
}

func loadBitmap(locator string) (image.Image, error) {
	var reader io.ReadCloser
	if strings.HasPrefix(locator, "http://") || strings.HasPrefix(locator, "https://") {
		resp, err := photoClient.Get(locator)
		if err != nil {
			return nil, fmt.Errorf("fetch: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("fetch: unexpected status %s", resp.Status)
		}
		reader = resp.Body
	} else {
		file, err := os.Open(locator)
		if err != nil {
			return nil, fmt.Errorf("open: %w", err)
		}
		reader = file
	}
	defer reader.Close()

	bitmap, _, err := image.Decode(reader)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	// Normalize to RGBA up front so the atlas blit never sees exotic
	// decoder-native formats.
	return clone.AsRGBA(bitmap), nil
}
