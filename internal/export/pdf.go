package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register decoder
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-pdf/fpdf"

	"github.com/julianstephens/callboard/internal/calendar"
	"github.com/julianstephens/callboard/internal/constants"
	"github.com/julianstephens/callboard/internal/logger"
	"github.com/julianstephens/callboard/internal/models"
)

const maxLogoBytes = 5 << 20

// ErrIncompleteProfile is returned for a resume without a name
var ErrIncompleteProfile = errors.New("profile name cannot be empty")

// PDFOptions controls branding shared by every generated document
type PDFOptions struct {
	Branding         string
	WatermarkMode    string // constants.WatermarkNone, WatermarkText or WatermarkLogo
	WatermarkText    string
	WatermarkLogo    string // http(s) URL or local path
	WatermarkOpacity float64
	// Uncompressed leaves page content streams readable
	Uncompressed bool
}

// PDFRenderer lays out resumes and calendars on letter-size pages
type PDFRenderer struct {
	opts   PDFOptions
	client *http.Client
	logger *log.Logger
}

func NewPDFRenderer(opts PDFOptions, client *http.Client, l *log.Logger) *PDFRenderer {
	if client == nil {
		client = &http.Client{Timeout: constants.LogoFetchTimeout}
	}
	if l == nil {
		l = logger.Default()
	}
	if opts.WatermarkOpacity <= 0 || opts.WatermarkOpacity > 1 {
		opts.WatermarkOpacity = constants.DefaultWatermarkOpacity
	}
	if opts.WatermarkMode == "" {
		opts.WatermarkMode = constants.WatermarkNone
	}
	return &PDFRenderer{opts: opts, client: client, logger: l}
}

// document wraps one fpdf instance with the shared layout helpers
type document struct {
	pdf     *fpdf.Fpdf
	tr      func(string) string
	width   float64 // printable width
	limitY  float64 // lowest y content may reach
	logo    string  // registered image name, empty without a logo
	logoW   float64
	logoH   float64
	opacity float64
}

func (r *PDFRenderer) newDocument(ctx context.Context, title string) *document {
	pdf := fpdf.New("P", "pt", constants.PDFPageSize, "")
	pdf.SetMargins(constants.PDFMarginPt, constants.PDFMarginPt, constants.PDFMarginPt)
	pdf.SetAutoPageBreak(true, constants.PDFMarginPt)
	pdf.SetCompression(!r.opts.Uncompressed)
	pdf.SetTitle(title, true)
	pdf.SetCreator(constants.AppName+" "+constants.Version, true)
	pdf.AliasNbPages("")

	pageW, pageH := pdf.GetPageSize()
	d := &document{
		pdf:     pdf,
		tr:      pdf.UnicodeTranslatorFromDescriptor(""),
		width:   pageW - 2*constants.PDFMarginPt,
		limitY:  pageH - constants.PDFMarginPt,
		opacity: r.opts.WatermarkOpacity,
	}

	if r.opts.WatermarkMode == constants.WatermarkLogo && r.opts.WatermarkLogo != "" {
		if err := r.registerLogo(ctx, d); err != nil {
			// The document is still useful without the logo
			r.logger.Warn("skipping watermark logo", "source", r.opts.WatermarkLogo, "err", err)
		}
	}

	pdf.SetHeaderFunc(func() { r.drawWatermark(d) })
	pdf.SetFooterFunc(func() { r.drawFooter(d) })
	return d
}

func (r *PDFRenderer) registerLogo(ctx context.Context, d *document) error {
	data, err := r.fetchLogo(ctx, r.opts.WatermarkLogo)
	if err != nil {
		return err
	}
	// fpdf errors are sticky, so reject bad images before it sees them
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("unreadable image: %w", err)
	}
	info := d.pdf.RegisterImageOptionsReader("watermark", fpdf.ImageOptions{ImageType: format}, bytes.NewReader(data))
	if info == nil || d.pdf.Err() {
		return fmt.Errorf("failed to register image: %v", d.pdf.Error())
	}
	d.logo = "watermark"
	d.logoW, d.logoH = info.Width(), info.Height()
	return nil
}

func (r *PDFRenderer) fetchLogo(ctx context.Context, source string) ([]byte, error) {
	if !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://") {
		return os.ReadFile(source)
	}

	ctx, cancel := context.WithTimeout(ctx, constants.LogoFetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxLogoBytes))
}

func (r *PDFRenderer) drawWatermark(d *document) {
	pdf := d.pdf
	pageW, pageH := pdf.GetPageSize()

	switch {
	case r.opts.WatermarkMode == constants.WatermarkLogo && d.logo != "":
		w := pageW / 2
		h := w * d.logoH / d.logoW
		pdf.SetAlpha(d.opacity, "Normal")
		pdf.ImageOptions(d.logo, (pageW-w)/2, (pageH-h)/2, w, h, false, fpdf.ImageOptions{}, 0, "")
		pdf.SetAlpha(1, "Normal")

	case r.opts.WatermarkMode == constants.WatermarkText && r.opts.WatermarkText != "":
		text := d.tr(r.opts.WatermarkText)
		pdf.SetFont("Helvetica", "B", 28)
		pdf.SetTextColor(120, 120, 120)
		pdf.SetAlpha(d.opacity, "Normal")
		step := pdf.GetStringWidth(text) + 60
		for y := 120.0; y < pageH; y += 160 {
			for x := -40.0; x < pageW; x += step {
				pdf.TransformBegin()
				pdf.TransformRotate(30, x, y)
				pdf.Text(x, y, text)
				pdf.TransformEnd()
			}
		}
		pdf.SetAlpha(1, "Normal")
		pdf.SetTextColor(0, 0, 0)
	}

	// Header funcs leave the cursor wherever they drew; reset to the top margin
	pdf.SetXY(constants.PDFMarginPt, constants.PDFMarginPt)
}

func (r *PDFRenderer) drawFooter(d *document) {
	pdf := d.pdf
	pdf.SetY(-constants.PDFFooterOffset - 10)
	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(128, 128, 128)
	branding := r.opts.Branding
	if branding == "" {
		branding = constants.DefaultBranding
	}
	pdf.CellFormat(d.width/2, 10, d.tr(branding), "", 0, "L", false, 0, "")
	pdf.CellFormat(d.width/2, 10, fmt.Sprintf("Page %d of {nb}", pdf.PageNo()), "", 0, "R", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
}

// ensureSpace starts a new page when h points would not fit
func (d *document) ensureSpace(h float64) {
	if d.pdf.GetY()+h > d.limitY {
		d.pdf.AddPage()
	}
}

func (d *document) header(title string, lines ...string) {
	pdf := d.pdf
	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(d.width, 26, d.tr(title), "", 1, "L", false, 0, "")

	var contact []string
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			contact = append(contact, l)
		}
	}
	if len(contact) > 0 {
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(d.width, 14, d.tr(strings.Join(contact, "  |  ")), "", 1, "L", false, 0, "")
	}

	pdf.Ln(4)
	y := pdf.GetY()
	pdf.SetLineWidth(0.75)
	pdf.Line(constants.PDFMarginPt, y, constants.PDFMarginPt+d.width, y)
	pdf.Ln(12)
}

func (d *document) section(title string) {
	// Keep the heading with at least one line of its body
	d.ensureSpace(40)
	d.pdf.SetFont("Helvetica", "B", 13)
	d.pdf.CellFormat(d.width, 18, d.tr(title), "", 1, "L", false, 0, "")
	d.pdf.Ln(2)
}

func (d *document) paragraph(text string) {
	d.pdf.SetFont("Helvetica", "", 10)
	d.pdf.MultiCell(d.width, 13, d.tr(text), "", "L", false)
	d.pdf.Ln(8)
}

func (d *document) entry(primary, secondary string, indent float64) {
	lines := 1
	if secondary != "" {
		lines = 2
	}
	d.ensureSpace(float64(lines)*13 + 4)

	pdf := d.pdf
	pdf.SetX(constants.PDFMarginPt + indent)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.MultiCell(d.width-indent, 13, d.tr(primary), "", "L", false)
	if secondary != "" {
		pdf.SetX(constants.PDFMarginPt + indent)
		pdf.SetFont("Helvetica", "", 9)
		pdf.MultiCell(d.width-indent, 12, d.tr(secondary), "", "L", false)
	}
	pdf.Ln(4)
}

func (d *document) output(w io.Writer) error {
	if err := d.pdf.Output(w); err != nil {
		return fmt.Errorf("failed to render pdf: %w", err)
	}
	return nil
}

// Resume renders a performer resume
func (r *PDFRenderer) Resume(ctx context.Context, w io.Writer, p models.Profile) error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrIncompleteProfile
	}

	d := r.newDocument(ctx, p.Name+" Resume")
	d.pdf.AddPage()
	d.header(p.Name, p.Email, p.Phone, p.Website)

	if strings.TrimSpace(p.Bio) != "" {
		d.section("Bio")
		d.paragraph(p.Bio)
	}
	if len(p.Skills) > 0 {
		d.section("Skills")
		d.paragraph(strings.Join(p.Skills, ", "))
	}
	if len(p.CastingHistory) > 0 {
		d.section("Casting History")
		for _, c := range p.CastingHistory {
			d.entry(creditTitle(c), creditDetail(c), 0)
		}
	}
	if len(p.Credits) > 0 {
		d.section("Additional Credits")
		for _, c := range p.Credits {
			d.entry(creditTitle(c), creditDetail(c), 0)
		}
	}

	return d.output(w)
}

// CalendarPDF renders events grouped by day. Events should already be sorted.
func (r *PDFRenderer) CalendarPDF(ctx context.Context, w io.Writer, title string, events []models.Event) error {
	if len(events) == 0 {
		return ErrNoEvents
	}
	if strings.TrimSpace(title) == "" {
		title = constants.DefaultCalendarName
	}

	d := r.newDocument(ctx, title)
	d.pdf.AddPage()
	d.header(title, fmt.Sprintf("%d events", len(events)), "Generated "+time.Now().Format("Jan 2, 2006"))

	for _, day := range calendar.GroupByDay(events) {
		d.section(day.Date.Format("Monday, January 2, 2006"))
		for _, e := range day.Events {
			d.entry(eventLine(e), eventDetail(e), 0)
			for _, item := range e.Agenda {
				d.entry(fmt.Sprintf("%s-%s  %s", item.StartTime, item.EndTime, item.Title), item.Description, 18)
			}
		}
	}

	return d.output(w)
}

func creditTitle(c models.Credit) string {
	if c.Role == "" {
		return c.Show
	}
	return fmt.Sprintf("%s, %s", c.Role, c.Show)
}

func creditDetail(c models.Credit) string {
	var parts []string
	if c.Company != "" {
		parts = append(parts, c.Company)
	}
	if c.Year != "" {
		parts = append(parts, c.Year)
	}
	return strings.Join(parts, ", ")
}

func eventLine(e models.Event) string {
	when := "All day"
	if !e.AllDay() {
		when = e.StartTime.Format(constants.TimeFormat)
		if e.EndTime != nil {
			when += "-" + e.EndTime.Format(constants.TimeFormat)
		}
	}
	return fmt.Sprintf("%s  %s", when, e.Title)
}

func eventDetail(e models.Event) string {
	var parts []string
	if e.Location != "" {
		parts = append(parts, e.Location)
	}
	if e.Description != "" {
		parts = append(parts, e.Description)
	}
	return strings.Join(parts, " - ")
}
