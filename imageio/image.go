// Package imageio converts between image files and box2pix tensors.
package imageio

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"github.com/chai2010/tiff"
	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
	"github.com/sugarme/gotch"
	"github.com/sugarme/gotch/ts"
	"golang.org/x/image/draw"
)

// Stride is the coarsest stride of the dense decoders. Inputs that are a
// multiple of it avoid ceil-mode rounding at every level.
const Stride = 64

// Read decodes a png, jpeg or tiff file.
func Read(filename string) (image.Image, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".tiff", ".tif":
		f, err := os.Open(filename)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return tiff.Decode(f)
	case ".png", ".jpg", ".jpeg":
		return imaging.Open(filename)
	default:
		return nil, fmt.Errorf("unsupported image format: %q", filepath.Ext(filename))
	}
}

// FitSize rounds w and h to the nearest positive multiple of multiple.
func FitSize(w, h, multiple int) (int, int) {
	round := func(v int) int {
		r := (v + multiple/2) / multiple * multiple
		if r < multiple {
			r = multiple
		}
		return r
	}
	return round(w), round(h)
}

// Fit resizes img (bilinear) so that both sides are multiples of Stride.
func Fit(img image.Image) image.Image {
	b := img.Bounds()
	w, h := FitSize(b.Dx(), b.Dy(), Stride)
	if w == b.Dx() && h == b.Dy() {
		return img
	}
	return resize.Resize(uint(w), uint(h), img, resize.Bilinear)
}

// ResizeLabels resizes a label image with nearest neighbour sampling so that
// class ids are never blended.
func ResizeLabels(img image.Image, w, h int) image.Image {
	b := img.Bounds()
	if b.Dx() == w && b.Dy() == h {
		return img
	}
	dst := image.NewGray(image.Rect(0, 0, w, h))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// ToTensor converts img to a (1, 3, H, W) float tensor in [0, 1].
func ToTensor(img image.Image, device gotch.Device) *ts.Tensor {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	plane := w * h
	vals := make([]float32, 3*plane)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			i := y*w + x
			vals[i] = float32(r) / 0xffff
			vals[plane+i] = float32(g) / 0xffff
			vals[2*plane+i] = float32(bl) / 0xffff
		}
	}

	return ts.MustOfSlice(vals).MustView([]int64{1, 3, int64(h), int64(w)}, true).MustTo(device, true)
}

// LabelMap is a dense per-pixel class map, row major.
type LabelMap struct {
	Width, Height int
	Labels        []int64
}

// Argmax reduces the first batch element of an (N, C, H, W) score tensor
// over channels.
func Argmax(scores *ts.Tensor) (*LabelMap, error) {
	size := scores.MustSize()
	if len(size) != 4 {
		return nil, fmt.Errorf("argmax: expected (N, C, H, W), got %v", size)
	}
	h, w := int(size[2]), int(size[3])

	labels := scores.MustNarrow(0, 0, 1, false).MustArgmax([]int64{1}, false, true).MustTo(gotch.CPU, true)
	defer labels.MustDrop()

	return &LabelMap{Width: w, Height: h, Labels: labels.Int64Values()}, nil
}

// LabelsFromImage reads class ids from the gray level of each pixel.
func LabelsFromImage(img image.Image) *LabelMap {
	b := img.Bounds()
	m := &LabelMap{Width: b.Dx(), Height: b.Dy(), Labels: make([]int64, b.Dx()*b.Dy())}
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			g := color.GrayModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray)
			m.Labels[y*m.Width+x] = int64(g.Y)
		}
	}
	return m
}

// Colorize renders a label map with pal.
func Colorize(m *LabelMap, pal Palette) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, m.Width, m.Height))
	for i, l := range m.Labels {
		img.Set(i%m.Width, i/m.Width, pal.Color(l))
	}
	return img
}

// SaveLabels colorizes m and writes it to filename; the format follows the
// extension.
func SaveLabels(m *LabelMap, pal Palette, filename string) error {
	return imaging.Save(Colorize(m, pal), filename)
}
