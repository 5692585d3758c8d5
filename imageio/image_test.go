package imageio_test

import (
	"image"
	"image/color"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sugarme/gotch"
	"github.com/sugarme/gotch/ts"

	"github.com/sugarme/box2pix/imageio"
)

func TestFitSize(t *testing.T) {
	for _, tc := range []struct{ w, h, ww, wh int }{
		{2048, 1024, 2048, 1024},
		{2000, 1000, 1984, 1024},
		{10, 10, 64, 64},
		{95, 97, 64, 128},
	} {
		w, h := imageio.FitSize(tc.w, tc.h, imageio.Stride)
		assert.Equal(t, tc.ww, w)
		assert.Equal(t, tc.wh, h)
	}
}

func TestFit(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 100, 70))
	out := imageio.Fit(img)
	assert.Equal(t, 128, out.Bounds().Dx())
	assert.Equal(t, 64, out.Bounds().Dy())

	same := image.NewRGBA(image.Rect(0, 0, 64, 128))
	assert.Same(t, same, imageio.Fit(same))
}

func TestResizeLabelsKeepsIDs(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 4, 4))
	for i := range src.Pix {
		src.Pix[i] = uint8(i % 3)
	}
	out := imageio.ResizeLabels(src, 8, 8)
	m := imageio.LabelsFromImage(out)
	for _, l := range m.Labels {
		assert.Contains(t, []int64{0, 1, 2}, l)
	}
}

func TestToTensor(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.NRGBA{255, 0, 0, 255})
	img.Set(1, 0, color.NRGBA{0, 0, 255, 255})

	x := imageio.ToTensor(img, gotch.CPU)
	defer x.MustDrop()
	assert.Equal(t, []int64{1, 3, 1, 2}, x.MustSize())
	assert.InDeltaSlice(t, []float64{1, 0, 0, 0, 0, 1}, x.Float64Values(), 1e-6)
}

func TestArgmax(t *testing.T) {
	// 3 classes on a 1x2 map, two batch elements; only the first is used
	x := ts.MustOfSlice([]float32{
		0.1, 0.9,
		0.5, 0.2,
		0.3, 0.1,

		9, 9,
		0, 0,
		0, 0,
	}).MustView([]int64{2, 3, 1, 2}, true)
	defer x.MustDrop()

	m, err := imageio.Argmax(x)
	require.NoError(t, err)
	assert.Equal(t, 2, m.Width)
	assert.Equal(t, 1, m.Height)
	assert.Equal(t, []int64{1, 0}, m.Labels)
}

func TestSaveLabelsRoundTrip(t *testing.T) {
	m := &imageio.LabelMap{Width: 3, Height: 2, Labels: []int64{0, 1, 2, 2, 1, 0}}
	pal := imageio.DefaultPalette(3)
	file := filepath.Join(t.TempDir(), "labels.png")
	require.NoError(t, imageio.SaveLabels(m, pal, file))

	img, err := imageio.Read(file)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 3, 2), img.Bounds())

	r, g, b, _ := img.At(1, 0).RGBA()
	want := pal.Color(1)
	assert.Equal(t, uint32(want.R), r>>8)
	assert.Equal(t, uint32(want.G), g>>8)
	assert.Equal(t, uint32(want.B), b>>8)

	_, err = imageio.Read("labels.bmp")
	assert.Error(t, err)
}

func TestReadPalette(t *testing.T) {
	csv := `id,name,r,g,b
0,background,0,0,0
1,car,0,0,142
2,person,220,20,60
`
	pal, err := imageio.ReadPalette(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, pal, 3)
	assert.Equal(t, []string{"background", "car", "person"}, pal.Names())
	assert.Equal(t, color.NRGBA{220, 20, 60, 255}, pal.Color(2))
	assert.Equal(t, color.NRGBA{}, pal.Color(7))

	_, err = imageio.ReadPalette(strings.NewReader("id,label\n0,x\n"))
	assert.Error(t, err)
}

func TestDefaultPalette(t *testing.T) {
	pal := imageio.DefaultPalette(20)
	require.Len(t, pal, 20)
	assert.Equal(t, "class_19", pal[19].Name)
	assert.Equal(t, color.NRGBA{128, 64, 128, 255}, pal.Color(1))
}
