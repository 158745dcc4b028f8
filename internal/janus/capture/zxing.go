package capture

import (
	"image"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// ZXingRecognizer reads QR codes and Code 128 barcodes, the two symbologies
// printed on attendee ID cards.
type ZXingRecognizer struct {
	readers []gozxing.Reader
	hints   map[gozxing.DecodeHintType]interface{}
}

func NewZXingRecognizer() *ZXingRecognizer {
	return &ZXingRecognizer{
		readers: []gozxing.Reader{
			qrcode.NewQRCodeReader(),
			oned.NewCode128Reader(),
		},
		hints: map[gozxing.DecodeHintType]interface{}{
			gozxing.DecodeHintType_TRY_HARDER: true,
		},
	}
}

func (r *ZXingRecognizer) Recognize(img image.Image) (string, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", err
	}

	for _, rd := range r.readers {
		res, err := rd.Decode(bmp, r.hints)
		rd.Reset()
		if err == nil {
			return res.GetText(), nil
		}
	}
	return "", ErrNoCode
}
