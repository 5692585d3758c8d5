package imageio

import (
	"fmt"
	"image/color"
	"io"
	"os"

	"github.com/go-gota/gota/dataframe"
)

// Class is one semantic class with its display color.
type Class struct {
	ID    int64
	Name  string
	Color color.NRGBA
}

// Palette maps class ids to colors.
type Palette []Class

// cityscapes-like colors for the default 11 box2pix classes
var defaultColors = []color.NRGBA{
	{0, 0, 0, 255},
	{128, 64, 128, 255},
	{244, 35, 232, 255},
	{220, 20, 60, 255},
	{255, 0, 0, 255},
	{0, 0, 142, 255},
	{0, 0, 70, 255},
	{0, 60, 100, 255},
	{0, 80, 100, 255},
	{0, 0, 230, 255},
	{119, 11, 32, 255},
}

// DefaultPalette returns a palette of n classes named class_<id>.
func DefaultPalette(n int) Palette {
	pal := make(Palette, n)
	for i := range pal {
		c := color.NRGBA{uint8(37 * i), uint8(91 * i), uint8(157 * i), 255}
		if i < len(defaultColors) {
			c = defaultColors[i]
		}
		pal[i] = Class{ID: int64(i), Name: fmt.Sprintf("class_%d", i), Color: c}
	}
	return pal
}

// Color returns the color of class id, or transparent black for unknown ids.
func (p Palette) Color(id int64) color.NRGBA {
	for _, c := range p {
		if c.ID == id {
			return c.Color
		}
	}
	return color.NRGBA{}
}

// Names returns class names in palette order.
func (p Palette) Names() []string {
	names := make([]string, len(p))
	for i, c := range p {
		names[i] = c.Name
	}
	return names
}

// ReadPalette parses a CSV with header `id,name,r,g,b`.
func ReadPalette(r io.Reader) (Palette, error) {
	df := dataframe.ReadCSV(r, dataframe.HasHeader(true))
	if df.Err != nil {
		return nil, df.Err
	}

	df = df.Select([]string{"id", "name", "r", "g", "b"})
	if df.Err != nil {
		return nil, fmt.Errorf("palette: %w", df.Err)
	}

	ids, err := df.Col("id").Int()
	if err != nil {
		return nil, fmt.Errorf("palette: id column: %w", err)
	}
	names := df.Col("name").Records()
	var rgb [3][]int
	for i, col := range []string{"r", "g", "b"} {
		if rgb[i], err = df.Col(col).Int(); err != nil {
			return nil, fmt.Errorf("palette: %s column: %w", col, err)
		}
	}

	pal := make(Palette, len(ids))
	for i := range ids {
		pal[i] = Class{
			ID:    int64(ids[i]),
			Name:  names[i],
			Color: color.NRGBA{uint8(rgb[0][i]), uint8(rgb[1][i]), uint8(rgb[2][i]), 255},
		}
	}

	return pal, nil
}

// LoadPalette reads a palette CSV file.
func LoadPalette(filename string) (Palette, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ReadPalette(f)
}
