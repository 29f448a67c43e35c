package io

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg" // register JPEG decoder for image.Decode
	_ "image/png"  // register PNG decoder for image.Decode
	"io"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	opctx "dreip/pkg/context"
	"dreip/pkg/metrics"
)

// ReadPDF extracts the embedded QR image from a receipt PDF and decodes it
// back into a ReceiptCode, grounded on the teacher's PicReader.Read /
// readCodeFromFile / decodeFromImage chain (the camera-capture and CUPS
// printing stages have no counterpart here — this system has no physical
// kiosk).
func ReadPDF(octx *opctx.OperationContext, pdfBytes []byte) (*ReceiptCode, error) {
	var code *ReceiptCode
	err := octx.Recorder.Record("io.read_receipt_pdf", metrics.MDiskRead, func() error {
		result, err := decodeFromPDF(pdfBytes)
		if err != nil {
			return err
		}
		c := &ReceiptCode{}
		if err := c.Deserialize([]byte(result.GetText())); err != nil {
			return err
		}
		code = c
		return nil
	})
	return code, err
}

func decodeFromPDF(pdfBytes []byte) (*gozxing.Result, error) {
	extracted, err := api.ExtractImagesRaw(bytes.NewReader(pdfBytes), nil, nil)
	if err != nil {
		return nil, fmt.Errorf("extracting images from receipt PDF: %w", err)
	}
	for _, imgs := range extracted {
		for _, img := range imgs {
			result, err := decodeQR(img)
			if err == nil {
				return result, nil
			}
		}
	}
	return nil, fmt.Errorf("no decodable QR code found in receipt PDF")
}

func decodeQR(r io.Reader) (*gozxing.Result, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("image.Decode failed: %w", err)
	}
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return nil, fmt.Errorf("gozxing.NewBinaryBitmapFromImage failed: %w", err)
	}
	hints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_PURE_BARCODE: true,
		gozxing.DecodeHintType_TRY_HARDER:   true,
	}
	return qrcode.NewQRCodeReader().Decode(bmp, hints)
}
