package io

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"io"

	"github.com/jung-kurt/gofpdf"
	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
	"github.com/makiuchi-d/gozxing/qrcode/decoder"

	opctx "dreip/pkg/context"
	"dreip/pkg/metrics"
)

const (
	qrCodeSize     = 512
	pdfPointsPerMM = 2.8346
)

// WritePDF encodes a ReceiptCode as a QR image and wraps it in a
// single-page PDF, grounded on the teacher's SaveWriter/writeImageToPDF
// pair. It returns the PDF bytes rather than writing to a configured
// picture directory, since the demo CLI decides where receipts land.
func WritePDF(octx *opctx.OperationContext, code *ReceiptCode) ([]byte, error) {
	var out []byte
	err := octx.Recorder.Record("io.write_receipt_pdf", metrics.MDiskWrite, func() error {
		img, err := generateCodeImage(code)
		if err != nil {
			return err
		}
		buf := new(bytes.Buffer)
		if err := writeImageToPDF(img, buf); err != nil {
			return fmt.Errorf("wrapping receipt QR in PDF: %w", err)
		}
		out = buf.Bytes()
		return nil
	})
	return out, err
}

func generateCodeImage(code *ReceiptCode) (image.Image, error) {
	serialized, err := code.Serialize()
	if err != nil {
		return nil, fmt.Errorf("serializing receipt code: %w", err)
	}
	encoder := qrcode.NewQRCodeWriter()
	hints := map[gozxing.EncodeHintType]interface{}{
		gozxing.EncodeHintType_ERROR_CORRECTION: decoder.ErrorCorrectionLevel_M,
	}
	img, err := encoder.Encode(string(serialized), gozxing.BarcodeFormat_QR_CODE, qrCodeSize, qrCodeSize, hints)
	if err != nil {
		return nil, fmt.Errorf("encoding receipt QR: %w", err)
	}
	return img, nil
}

func writeImageToPDF(img image.Image, w io.Writer) error {
	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: 95}); err != nil {
		return fmt.Errorf("jpeg encoding failed: %w", err)
	}

	widthMM := float64(img.Bounds().Dx()) / pdfPointsPerMM
	heightMM := float64(img.Bounds().Dy()) / pdfPointsPerMM
	pageSize := gofpdf.SizeType{Wd: widthMM, Ht: heightMM}

	pdf := gofpdf.NewCustom(&gofpdf.InitType{UnitStr: "mm", Size: pageSize})
	pdf.AddPageFormat("P", pageSize)

	options := gofpdf.ImageOptions{ImageType: "JPEG", ReadDpi: true}
	pdf.RegisterImageOptionsReader("receipt.jpg", options, buf)
	pdf.ImageOptions("receipt.jpg", 0, 0, widthMM, heightMM, false, options, 0, "")

	return pdf.Output(w)
}
