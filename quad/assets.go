package quad

import (
	"context"
	"encoding/binary"
	"os"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"

	"github.com/vkngwrapper/texturedquad/gpu"
)

const spirvMagic = 0x07230203

// Assets is everything the quad needs from disk.
type Assets struct {
	VertexShader   []uint32
	FragmentShader []uint32
	Texture        *Texture
}

// LoadAssets reads both shaders and the texture concurrently.
func LoadAssets(ctx context.Context, vertexPath, fragmentPath, texturePath string) (*Assets, error) {
	assets := &Assets{}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		code, err := LoadShader(vertexPath)
		assets.VertexShader = code
		return err
	})
	g.Go(func() error {
		code, err := LoadShader(fragmentPath)
		assets.FragmentShader = code
		return err
	})
	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		texture, err := LoadTexture(texturePath)
		assets.Texture = texture
		return err
	})

	err := g.Wait()
	if err != nil {
		return nil, err
	}

	gpu.Logger().Debug("assets loaded",
		"vertex_words", len(assets.VertexShader),
		"fragment_words", len(assets.FragmentShader),
		"texture_width", assets.Texture.Width,
		"texture_height", assets.Texture.Height)
	return assets, nil
}

// LoadShader reads a SPIR-V module.
func LoadShader(path string) ([]uint32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read shader")
	}

	code, err := bytesToBytecode(data)
	if err != nil {
		return nil, errors.Wrapf(err, "shader %s", path)
	}
	return code, nil
}

func bytesToBytecode(b []byte) ([]uint32, error) {
	if len(b) == 0 || len(b)%4 != 0 {
		return nil, errors.Newf("SPIR-V length %d is not a positive multiple of 4", len(b))
	}

	byteCode := make([]uint32, len(b)/4)
	for i := range byteCode {
		byteCode[i] = binary.LittleEndian.Uint32(b[i*4:])
	}

	if byteCode[0] != spirvMagic {
		return nil, errors.Newf("bad SPIR-V magic %#08x", byteCode[0])
	}

	return byteCode, nil
}
