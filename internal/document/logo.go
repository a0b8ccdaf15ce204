package document

import (
	"bytes"
	"context"
	"fmt"
	"github.com/go-pdf/fpdf"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const maxLogoBytes = 5 << 20

// Logo is the header image drawn on every document.
type Logo struct {
	Data []byte
	Type string // PNG, JPG or GIF
}

// LoadLogo reads the logo from a local path or an http(s) URL. Remote
// fetches are bounded by timeout.
func LoadLogo(ctx context.Context, ref string, timeout time.Duration) (*Logo, error) {
	var data []byte
	var err error
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		data, err = fetchLogo(ctx, ref, timeout)
	} else {
		data, err = os.ReadFile(ref)
	}
	if err != nil {
		return nil, err
	}
	return NewLogo(data)
}

// NewLogo accepts data only when it decodes as an image and fpdf can
// embed it.
func NewLogo(data []byte) (*Logo, error) {
	var typ string
	switch http.DetectContentType(data) {
	case "image/png":
		typ = "PNG"
	case "image/jpeg":
		typ = "JPG"
	case "image/gif":
		typ = "GIF"
	default:
		return nil, fmt.Errorf("unsupported logo format")
	}
	if _, _, err := image.Decode(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("decode logo: %w", err)
	}

	logo := &Logo{Data: data, Type: typ}
	if err := logo.register(fpdf.New("P", "mm", "A4", "")); err != nil {
		return nil, err
	}
	return logo, nil
}

// register adds the logo to pdf as "logo". fpdf panics on some malformed
// images; the panic comes back as an error.
func (l *Logo) register(pdf *fpdf.Fpdf) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("register logo: %v", r)
		}
	}()

	pdf.RegisterImageOptionsReader("logo", fpdf.ImageOptions{ImageType: l.Type}, bytes.NewReader(l.Data))
	if pdf.Err() {
		return fmt.Errorf("register logo: %w", pdf.Error())
	}
	return nil
}

func fetchLogo(ctx context.Context, url string, timeout time.Duration) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch logo: status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxLogoBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxLogoBytes {
		return nil, fmt.Errorf("fetch logo: larger than %d bytes", maxLogoBytes)
	}
	return data, nil
}
