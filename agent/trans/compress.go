package trans

import (
	"github.com/klauspost/compress/zstd"
)

var (
	zEncoder *zstd.Encoder
	zDecoder *zstd.Decoder
)

func init() {
	var err error
	zEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic(err)
	}
	zDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic(err)
	}
}

// Compress compresses the body with zstd.
func Compress(b []byte) []byte {
	return zEncoder.EncodeAll(b, make([]byte, 0, len(b)))
}

// Decompress decompresses zstd compressed body.
func Decompress(b []byte) ([]byte, error) {
	return zDecoder.DecodeAll(b, nil)
}
