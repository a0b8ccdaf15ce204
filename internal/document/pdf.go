package document

import (
	"bytes"
	"fmt"
	"github.com/go-pdf/fpdf"
	"github.com/rs/zerolog"
	"order-intake-service/internal/entity"
	"os"
	"strings"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

// Document is a rendered order confirmation.
type Document struct {
	Filename string
	Content  []byte
}

// RenderError aborts a submission before any email is attempted.
type RenderError struct {
	OrderID string
	Err     error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render order %s: %v", e.OrderID, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// FileName is the deterministic document name for a cédula. Two orders
// from the same cédula share a name; the later one wins.
func FileName(cedula string) string {
	safe := strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(cedula)
	return fmt.Sprintf("pedido_%s.pdf", safe)
}

// Renderer lays an order out on a single A4 page. A long cart is not
// paginated.
type Renderer struct {
	layout Layout
	logo   *Logo

	uncompressed bool
}

func NewRenderer(layout Layout, logo *Logo) *Renderer {
	return &Renderer{layout: layout, logo: logo}
}

func (r *Renderer) Render(order *entity.Order) (*Document, error) {
	if len(r.layout.Columns) == 0 {
		return nil, &RenderError{OrderID: order.ID, Err: fmt.Errorf("layout %q has no columns", r.layout.Name)}
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(!r.uncompressed)
	pdf.SetCreationDate(order.SubmittedAt)
	pdf.SetTitle("PEDIDO - "+order.Customer.Nombre, true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	if r.logo != nil {
		if err := r.logo.register(pdf); err != nil {
			logger.Warn().Err(err).Msgf("Skipping logo on order %s", order.ID)
			pdf.ClearError()
		} else {
			pdf.ImageOptions("logo", 70, 10, 70, 0, false, fpdf.ImageOptions{ImageType: r.logo.Type}, 0, "")
		}
	}

	c := order.Customer
	pdf.SetFont("Helvetica", "B", 14)
	pdf.Ln(35)
	pdf.CellFormat(0, 10, tr("PEDIDO - "+c.Nombre), "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 12)
	pdf.CellFormat(0, 10, tr(fmt.Sprintf("Cédula: %s | Tel: %s | Correo: %s", c.Cedula, c.Telefono, c.Correo)), "", 1, "", false, 0, "")
	pdf.CellFormat(0, 10, tr("Fecha: "+order.SubmittedAt.Format(entity.TimestampLayout)), "", 1, "", false, 0, "")
	pdf.CellFormat(0, 10, tr("Comentario: "+c.Comentario), "", 1, "", false, 0, "")
	pdf.Ln(5)

	table := r.layout.Table(order)
	pdf.SetFont("Helvetica", "B", 12)
	for i, title := range table.Header {
		pdf.CellFormat(r.layout.Columns[i].Width, 10, tr(title), "1", 0, "", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 12)
	for _, row := range table.Rows {
		for i, v := range row {
			pdf.CellFormat(r.layout.Columns[i].Width, 10, tr(v), "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	last := r.layout.Columns[len(r.layout.Columns)-1]
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(r.layout.FooterWidth(), 10, table.Footer[0], "1", 0, "", false, 0, "")
	pdf.CellFormat(last.Width, 10, table.Footer[1], "1", 0, "", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		logger.Error().Err(err).Msgf("Error rendering order %s", order.ID)
		return nil, &RenderError{OrderID: order.ID, Err: err}
	}

	return &Document{Filename: FileName(c.Cedula), Content: buf.Bytes()}, nil
}
