package ocr

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// SelfTestPhrase is drawn by RenderTestImage.
const SelfTestPhrase = "Hello Tesseract!"

// RenderTestImage draws text in black on a white 300x100 canvas, then scales
// it up so the bitmap font is large enough to recognise.
func RenderTestImage(text string, scale int) image.Image {
	if scale < 1 {
		scale = 1
	}
	src := image.NewRGBA(image.Rect(0, 0, 300, 100))
	draw.Draw(src, src.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  src,
		Src:  image.Black,
		Face: basicfont.Face7x13,
		Dot:  fixed.P(10, 30),
	}
	d.DrawString(text)

	if scale == 1 {
		return src
	}
	dst := image.NewRGBA(image.Rect(0, 0, 300*scale, 100*scale))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}
