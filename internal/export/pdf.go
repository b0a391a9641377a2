// Package export renders a live cart or a shared snapshot into a paginated,
// category-segmented PDF document.
package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/stevnathans/hustlecare-sub000/internal/cart"
	"github.com/stevnathans/hustlecare-sub000/internal/grouping"
)

// Document is the input to Render: the flat items plus the aggregator's
// grouping for them. The renderer never regroups or mutates either.
type Document struct {
	Name         string
	BusinessName string
	GeneratedAt  time.Time
	Items        []cart.LineItem
	Groups       []grouping.CategoryGroup
}

type Renderer struct {
	marginLeft float64
	marginTop  float64
	breakBelow float64

	rowHeight    float64
	headerHeight float64
}

func NewRenderer() *Renderer {
	return &Renderer{
		marginLeft:   15,
		marginTop:    15,
		breakBelow:   18,
		rowHeight:    7,
		headerHeight: 9,
	}
}

// Column widths, summing to the A4 content width with 15mm side margins.
const (
	colName  = 90.0
	colQty   = 20.0
	colPrice = 35.0
	colTotal = 35.0
)

// Render produces the complete PDF, or an error with no partial output.
func (r *Renderer) Render(doc Document) ([]byte, error) {
	if len(doc.Items) == 0 {
		return nil, fmt.Errorf("cannot export an empty list")
	}
	for _, it := range doc.Items {
		if it.Quantity < 1 {
			return nil, fmt.Errorf("line item %d: invalid quantity %d", it.ProductID, it.Quantity)
		}
		if it.Price < 0 {
			return nil, fmt.Errorf("line item %d: negative price", it.ProductID)
		}
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(doc.Name, true)
	pdf.SetMargins(r.marginLeft, r.marginTop, r.marginLeft)
	pdf.SetAutoPageBreak(true, r.breakBelow)

	// Disclaimer on the principal page only.
	pdf.SetFooterFunc(func() {
		if pdf.PageNo() != 1 {
			return
		}
		pdf.SetY(-14)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(120, 120, 120)
		pdf.CellFormat(0, 5, "All figures are estimates. Actual prices may vary by vendor and region.", "", 0, "C", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	})

	pdf.AddPage()

	r.renderHeader(pdf, doc)
	r.renderSummary(pdf, doc)

	if grouping.HasCategorized(doc.Items) {
		for _, group := range doc.Groups {
			r.renderCategory(pdf, group)
		}
	} else {
		// Degenerate cart with no categories at all: one flat table.
		r.renderColumnHeader(pdf)
		for _, it := range doc.Items {
			r.renderItemRow(pdf, it)
		}
	}

	if pdf.Err() {
		return nil, fmt.Errorf("generate document: %w", pdf.Error())
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("generate document: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) renderHeader(pdf *fpdf.Fpdf, doc Document) {
	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, r.fit(pdf, doc.Name, 180), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(100, 100, 100)
	if doc.BusinessName != "" {
		pdf.CellFormat(0, 5, "Startup requirements for "+doc.BusinessName, "", 1, "L", false, 0, "")
	}
	pdf.CellFormat(0, 5, "Generated "+doc.GeneratedAt.Format("January 2, 2006"), "", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(4)
}

func (r *Renderer) renderSummary(pdf *fpdf.Fpdf, doc Document) {
	totalItems := cart.TotalItems(doc.Items)
	totalCost := cart.TotalCost(doc.Items)

	pdf.SetFillColor(245, 245, 245)
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(90, 10, fmt.Sprintf("  %d items", totalItems), "", 0, "L", true, 0, "")
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(90, 10, fmt.Sprintf("Estimated total: %s  ", money(totalCost)), "", 1, "R", true, 0, "")
	pdf.Ln(5)
}

func (r *Renderer) renderCategory(pdf *fpdf.Fpdf, group grouping.CategoryGroup) {
	// A category band must never sit orphaned at the bottom of a page: require
	// room for the band, the column header, and at least one row.
	r.ensureSpace(pdf, r.headerHeight+2*r.rowHeight)

	pdf.SetFillColor(230, 236, 245)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(colName, r.headerHeight, " "+group.Name, "", 0, "L", true, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(colQty+colPrice, r.headerHeight, fmt.Sprintf("%d items", group.TotalItems), "", 0, "R", true, 0, "")
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(colTotal, r.headerHeight, money(group.Subtotal)+" ", "", 1, "R", true, 0, "")

	r.renderColumnHeader(pdf)

	for _, req := range group.Requirements {
		// Same rule for requirement sub-headings.
		r.ensureSpace(pdf, 2*r.rowHeight)

		pdf.SetFont("Helvetica", "I", 10)
		pdf.SetTextColor(80, 80, 80)
		pdf.CellFormat(0, r.rowHeight, " "+req.Name, "", 1, "L", false, 0, "")
		pdf.SetTextColor(0, 0, 0)

		for _, it := range req.Items {
			r.renderItemRow(pdf, it)
		}
	}
	pdf.Ln(4)
}

func (r *Renderer) renderColumnHeader(pdf *fpdf.Fpdf) {
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetTextColor(100, 100, 100)
	pdf.CellFormat(colName, 6, " Product", "B", 0, "L", false, 0, "")
	pdf.CellFormat(colQty, 6, "Qty", "B", 0, "C", false, 0, "")
	pdf.CellFormat(colPrice, 6, "Unit price", "B", 0, "R", false, 0, "")
	pdf.CellFormat(colTotal, 6, "Subtotal ", "B", 1, "R", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
}

func (r *Renderer) renderItemRow(pdf *fpdf.Fpdf, it cart.LineItem) {
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(colName, r.rowHeight, "   "+r.fit(pdf, it.Name, colName-6), "", 0, "L", false, 0, "")
	pdf.CellFormat(colQty, r.rowHeight, fmt.Sprintf("%d", it.Quantity), "", 0, "C", false, 0, "")
	pdf.CellFormat(colPrice, r.rowHeight, money(it.Price), "", 0, "R", false, 0, "")
	pdf.CellFormat(colTotal, r.rowHeight, money(float64(it.Quantity)*it.Price)+" ", "", 1, "R", false, 0, "")
}

// ensureSpace starts a new page when fewer than needed millimeters remain.
func (r *Renderer) ensureSpace(pdf *fpdf.Fpdf, needed float64) {
	_, pageH := pdf.GetPageSize()
	if pdf.GetY()+needed > pageH-r.breakBelow {
		pdf.AddPage()
	}
}

// fit truncates a string to the given width, appending an ellipsis.
func (r *Renderer) fit(pdf *fpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && pdf.GetStringWidth(string(runes)+"...") > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}

func money(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}

// Filename derives a filesystem-safe download name with a timestamp suffix.
func Filename(name string, now time.Time) string {
	s := strings.TrimSpace(name)
	if s == "" {
		s = "list"
	}
	s = strings.Map(func(c rune) rune {
		switch {
		case c == ' ':
			return '_'
		case strings.ContainsRune(`/\:*?"<>|`, c):
			return '-'
		default:
			return c
		}
	}, s)
	return fmt.Sprintf("%s_%d.pdf", s, now.UnixMilli())
}
