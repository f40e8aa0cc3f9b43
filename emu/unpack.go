package emu

// Pixel values of the expanded frame buffer.
const (
	PixelOff = 0x00
	PixelOn  = 0xFF
)

// Unpack expands a packed 1-bpp LCD buffer (PackedSize bytes) into one
// byte per pixel (ExpandedSize bytes). Bit 7 of the first byte of each row
// is a controller flag rather than a pixel, so column 0 is always cleared.
func Unpack(dst, src []byte) {
	if len(src) < PackedSize || len(dst) < ExpandedSize {
		panic("emu: Unpack buffer too small")
	}

	for y := 0; y < Rows; y++ {
		row := dst[y*Cols : (y+1)*Cols]
		packed := src[y*BytesPerRow : (y+1)*BytesPerRow]
		for j, p := range packed {
			out := row[j*8 : j*8+8]
			for k := 0; k < 8; k++ {
				if p&(0x80>>k) != 0 {
					out[k] = PixelOn
				} else {
					out[k] = PixelOff
				}
			}
		}
		row[0] = PixelOff
	}
}
