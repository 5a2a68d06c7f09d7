package quad

import (
	"bytes"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/cockroachdb/errors"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// Texture is tightly packed 8 bit RGBA, rows top to bottom.
type Texture struct {
	Width  int
	Height int
	Pixels []byte
}

// Size is the byte length of the pixel data.
func (t *Texture) Size() int {
	return len(t.Pixels)
}

// LoadTexture decodes the image at path. An empty path yields a generated
// checkerboard.
func LoadTexture(path string) (*Texture, error) {
	if path == "" {
		return Checkerboard(256, 32), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read texture")
	}

	texture, err := DecodeTexture(data)
	if err != nil {
		return nil, errors.Wrapf(err, "decode texture %s", path)
	}

	return texture, nil
}

// DecodeTexture accepts png, jpeg, gif, bmp and webp.
func DecodeTexture(data []byte) (*Texture, error) {
	decoded, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	bounds := decoded.Bounds()
	if bounds.Empty() {
		return nil, errors.Newf("%s image has no pixels", format)
	}

	return FromImage(decoded), nil
}

func FromImage(img image.Image) *Texture {
	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)

	return &Texture{
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Pixels: rgba.Pix,
	}
}

// Checkerboard draws a size x size texture of alternating light and dark
// cells.
func Checkerboard(size, cell int) *Texture {
	light := color.RGBA{R: 0xe0, G: 0xe0, B: 0xe0, A: 0xff}
	dark := color.RGBA{R: 0x40, G: 0x40, B: 0x40, A: 0xff}

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if (x/cell+y/cell)%2 == 0 {
				img.SetRGBA(x, y, light)
			} else {
				img.SetRGBA(x, y, dark)
			}
		}
	}

	return &Texture{Width: size, Height: size, Pixels: img.Pix}
}
