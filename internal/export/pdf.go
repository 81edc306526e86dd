package export

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"image"
	"image/png"
	"strings"
	"time"

	"plan-studio/internal/plan/scene"
)

// ============================================================
// PDF export
// ============================================================

const (
	pageWidth  = 595.28 // A4 portrait, points
	pageHeight = 841.89
	pageMargin = 40.0

	pdfFontSize    = 11.0
	pdfTitleSize   = 16.0
	pdfLineSpacing = 16.0
)

// PlanPDF rasterizes the scene graph and wraps the image in a single-page
// PDF, scaled to fit the page while keeping the aspect ratio.
func PlanPDF(g *scene.Graph, timeout time.Duration) ([]byte, error) {
	pngData, err := RasterizePNG(g, timeout)
	if err != nil {
		return nil, err
	}

	img, err := png.Decode(bytes.NewReader(pngData))
	if err != nil {
		return nil, &SerializationError{Format: "pdf", Err: err}
	}

	data, err := imagePDF(img)
	if err != nil {
		return nil, &SerializationError{Format: "pdf", Err: err}
	}
	return data, nil
}

// TextPDF lays out a title and a list of lines onto as many pages as needed.
// Long lines are wrapped at a fixed column.
func TextPDF(title string, lines []string) ([]byte, error) {
	data, err := textPDF(title, lines)
	if err != nil {
		return nil, &SerializationError{Format: "pdf", Err: err}
	}
	return data, nil
}

// ============================================================
// Document assembly
// ============================================================

// pdfWriter accumulates numbered objects and emits the xref table at the
// end. Object 0 is the mandatory free entry.
type pdfWriter struct {
	buf     bytes.Buffer
	offsets []int
}

func newPDFWriter() *pdfWriter {
	w := &pdfWriter{}
	w.buf.WriteString("%PDF-1.4\n")
	return w
}

// addObject writes body as the next numbered object and returns its number.
func (w *pdfWriter) addObject(body string) int {
	num := len(w.offsets) + 1
	w.offsets = append(w.offsets, w.buf.Len())
	fmt.Fprintf(&w.buf, "%d 0 obj\n%s\nendobj\n", num, body)
	return num
}

func (w *pdfWriter) addStream(dict string, stream []byte) int {
	num := len(w.offsets) + 1
	w.offsets = append(w.offsets, w.buf.Len())
	fmt.Fprintf(&w.buf, "%d 0 obj\n<< %s /Length %d >>\nstream\n", num, dict, len(stream))
	w.buf.Write(stream)
	w.buf.WriteString("\nendstream\nendobj\n")
	return num
}

func (w *pdfWriter) finish(rootNum int) []byte {
	xrefStart := w.buf.Len()
	fmt.Fprintf(&w.buf, "xref\n0 %d\n", len(w.offsets)+1)
	w.buf.WriteString("0000000000 65535 f \n")
	for _, off := range w.offsets {
		fmt.Fprintf(&w.buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&w.buf, "trailer\n<< /Size %d /Root %d 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		len(w.offsets)+1, rootNum, xrefStart)
	return w.buf.Bytes()
}

// ============================================================
// Image page
// ============================================================

func imagePDF(img image.Image) ([]byte, error) {
	bounds := img.Bounds()
	iw, ih := bounds.Dx(), bounds.Dy()

	// Flatten to 8-bit RGB and deflate for the XObject stream.
	raw := make([]byte, 0, iw*ih*3)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			raw = append(raw, byte(r>>8), byte(g>>8), byte(b>>8))
		}
	}
	var zbuf bytes.Buffer
	zw := zlib.NewWriter(&zbuf)
	if _, err := zw.Write(raw); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}

	// Fit inside the margins, centered.
	availW := pageWidth - 2*pageMargin
	availH := pageHeight - 2*pageMargin
	scale := availW / float64(iw)
	if s := availH / float64(ih); s < scale {
		scale = s
	}
	drawW := float64(iw) * scale
	drawH := float64(ih) * scale
	offX := (pageWidth - drawW) / 2
	offY := (pageHeight - drawH) / 2

	w := newPDFWriter()
	imgNum := w.addStream(fmt.Sprintf(
		"/Type /XObject /Subtype /Image /Width %d /Height %d /ColorSpace /DeviceRGB /BitsPerComponent 8 /Filter /FlateDecode",
		iw, ih), zbuf.Bytes())

	content := fmt.Sprintf("q %.2f 0 0 %.2f %.2f %.2f cm /Im0 Do Q", drawW, drawH, offX, offY)
	contentNum := w.addStream("", []byte(content))

	pageNum := w.addObject(fmt.Sprintf(
		"<< /Type /Page /Parent %d 0 R /MediaBox [0 0 %.2f %.2f] /Resources << /XObject << /Im0 %d 0 R >> >> /Contents %d 0 R >>",
		pageNum0(w), pageWidth, pageHeight, imgNum, contentNum))
	pagesNum := w.addObject(fmt.Sprintf("<< /Type /Pages /Kids [%d 0 R] /Count 1 >>", pageNum))
	rootNum := w.addObject(fmt.Sprintf("<< /Type /Catalog /Pages %d 0 R >>", pagesNum))

	return w.finish(rootNum), nil
}

// pageNum0 predicts the Pages object number: it is allocated right after
// the page object being written.
func pageNum0(w *pdfWriter) int {
	return len(w.offsets) + 2
}

// ============================================================
// Text pages
// ============================================================

const wrapColumn = 90

func textPDF(title string, lines []string) ([]byte, error) {
	wrapped := make([]string, 0, len(lines))
	for _, line := range lines {
		wrapped = append(wrapped, wrapLine(line, wrapColumn)...)
	}

	avail := pageHeight - 2*pageMargin - 2*pdfLineSpacing
	linesPerPage := int(avail / pdfLineSpacing)
	if linesPerPage < 1 {
		linesPerPage = 1
	}

	var pages [][]string
	for start := 0; start < len(wrapped) || start == 0; start += linesPerPage {
		end := start + linesPerPage
		if end > len(wrapped) {
			end = len(wrapped)
		}
		pages = append(pages, wrapped[start:end])
	}

	w := newPDFWriter()
	fontNum := w.addObject("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>")

	pagesNum := len(w.offsets) + 2*len(pages) + 1
	pageNums := make([]int, 0, len(pages))
	for i, pageLines := range pages {
		var content strings.Builder
		y := pageHeight - pageMargin
		if i == 0 {
			fmt.Fprintf(&content, "BT /F1 %.1f Tf %.2f %.2f Td (%s) Tj ET\n",
				pdfTitleSize, pageMargin, y, escapePDFText(title))
			y -= 2 * pdfLineSpacing
		}
		for _, line := range pageLines {
			fmt.Fprintf(&content, "BT /F1 %.1f Tf %.2f %.2f Td (%s) Tj ET\n",
				pdfFontSize, pageMargin, y, escapePDFText(line))
			y -= pdfLineSpacing
		}

		contentNum := w.addStream("", []byte(content.String()))
		pageNums = append(pageNums, w.addObject(fmt.Sprintf(
			"<< /Type /Page /Parent %d 0 R /MediaBox [0 0 %.2f %.2f] /Resources << /Font << /F1 %d 0 R >> >> /Contents %d 0 R >>",
			pagesNum, pageWidth, pageHeight, fontNum, contentNum)))
	}

	kids := make([]string, len(pageNums))
	for i, n := range pageNums {
		kids[i] = fmt.Sprintf("%d 0 R", n)
	}
	w.addObject(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>",
		strings.Join(kids, " "), len(pageNums)))
	rootNum := w.addObject(fmt.Sprintf("<< /Type /Catalog /Pages %d 0 R >>", pagesNum))

	return w.finish(rootNum), nil
}

func wrapLine(line string, col int) []string {
	if len(line) <= col {
		return []string{line}
	}
	var out []string
	for len(line) > col {
		cut := strings.LastIndex(line[:col], " ")
		if cut <= 0 {
			cut = col
		}
		out = append(out, strings.TrimRight(line[:cut], " "))
		line = strings.TrimLeft(line[cut:], " ")
	}
	if line != "" {
		out = append(out, line)
	}
	return out
}

func escapePDFText(s string) string {
	r := strings.NewReplacer("\\", "\\\\", "(", "\\(", ")", "\\)")
	return r.Replace(s)
}
