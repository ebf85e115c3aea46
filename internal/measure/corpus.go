package measure

import (
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "golang.org/x/image/webp"
)

var corpusExtensions = map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".webp": true}

// FromImage converts any decoded image to interleaved RGB, dropping alpha.
func FromImage(src image.Image) *Image {
	b := src.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), src, b.Min, draw.Src)

	out := &Image{Width: b.Dx(), Height: b.Dy(), Pix: make([]byte, 0, b.Dx()*b.Dy()*3)}
	for i := 0; i < len(rgba.Pix); i += 4 {
		out.Pix = append(out.Pix, rgba.Pix[i], rgba.Pix[i+1], rgba.Pix[i+2])
	}
	return out
}

// LoadCorpus decodes every PNG, JPEG or WebP directly under dir, sorted by name.
func LoadCorpus(dir string) ([]SourceImage, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read corpus %s: %w", dir, err)
	}
	var out []SourceImage
	for _, e := range entries {
		if e.IsDir() || !corpusExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		img, err := loadImage(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		out = append(out, SourceImage{Name: e.Name(), Image: img})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("corpus %s: no images", dir)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func loadImage(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return FromImage(src), nil
}
