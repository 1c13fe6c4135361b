// Package pdf genera el acta de conciliación de una guía de lavandería.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Título + Estado     │  N° Guía + Fecha + Peso      │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Prenda | Enviado | Devuelto | Pendiente             │
//	│  ─────────────────────────────────────────────────────────  │
//	│  OBSERVACIÓN                                                │
//	│  HISTORIAL: una fila por devolución                         │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER: QR con el número de guía                           │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strconv"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	applaundry "github.com/jhoicas/lavanderia-api/internal/application/laundry"
	"github.com/jhoicas/lavanderia-api/internal/domain/entity"
	domlaundry "github.com/jhoicas/lavanderia-api/internal/domain/laundry"
)

var _ applaundry.GuidePDFGenerator = (*MarotoGuidePDF)(nil)

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorAlert   = &props.Color{Red: 170, Green: 40, Blue: 40}
)

// MarotoGuidePDF implementa laundry.GuidePDFGenerator usando Maroto v2.
type MarotoGuidePDF struct {
	company string
}

// NewMarotoGuidePDF construye el generador. company aparece como autor del documento.
func NewMarotoGuidePDF(company string) *MarotoGuidePDF {
	return &MarotoGuidePDF{company: company}
}

// GenerateGuidePDF genera el acta y devuelve sus bytes.
func (g *MarotoGuidePDF) GenerateGuidePDF(
	ctx context.Context,
	guide *entity.Guide,
	summary domlaundry.Summary,
	events []*entity.ReturnEvent,
) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Guía de lavandería "+guide.GuideNumber, true).
		WithAuthor(g.company, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(guide, summary))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))

	m.AddRows(tableHeaderRow())
	m.AddRows(lineRows(summary.Lines)...)
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(summary.Lines))

	m.AddRows(observationRow(summary))
	m.AddRows(historyRows(events)...)

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(footerRow(guide))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// headerRow: título y estado (izq), número de guía, fecha y peso (der).
func headerRow(guide *entity.Guide, summary domlaundry.Summary) core.Row {
	statusColor := colorPrimary
	if summary.Status != entity.GuideStatusComplete {
		statusColor = colorAlert
	}
	return row.New(20).Add(
		col.New(7).Add(
			text.New("ACTA DE LAVANDERÍA", props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Estado: "+summary.Status, props.Text{
				Style: fontstyle.Bold, Size: 10, Top: 10, Color: statusColor,
			}),
		),
		col.New(5).Add(
			text.New("GUÍA N°", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: colorPrimary, Top: 1,
			}),
			text.New(guide.GuideNumber, props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 6,
			}),
			text.New("Fecha: "+guide.CreatedAt.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 13, Color: colorGray,
			}),
			text.New("Peso: "+guide.Weight.StringFixed(2)+" kg", props.Text{
				Size: 8, Align: align.Right, Top: 17, Color: colorGray,
			}),
		),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Prenda", 6, align.Left),
		h("Enviado", 2, align.Center),
		h("Devuelto", 2, align.Center),
		h("Pendiente", 2, align.Center),
	)
}

// lineRows: una fila por tipo de prenda, en el orden del envío.
func lineRows(lines []domlaundry.Line) []core.Row {
	out := make([]core.Row, 0, len(lines))
	for _, l := range lines {
		pendingProps := props.Text{Size: 8, Align: align.Center, Top: 1}
		if l.Pending > 0 {
			pendingProps.Style = fontstyle.Bold
			pendingProps.Color = colorAlert
		}
		out = append(out, row.New(7).Add(
			col.New(6).Add(text.New(l.GarmentType, props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(2).Add(text.New(strconv.Itoa(l.Sent), props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(2).Add(text.New(strconv.Itoa(l.Returned), props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(2).Add(text.New(strconv.Itoa(l.Pending), pendingProps)),
		))
	}
	return out
}

func totalsRow(lines []domlaundry.Line) core.Row {
	var sent, returned, pending int
	for _, l := range lines {
		sent += l.Sent
		returned += l.Returned
		pending += l.Pending
	}
	bold := func(s string, a align.Type) core.Component {
		return text.New(s, props.Text{Style: fontstyle.Bold, Size: 9, Align: a, Top: 1})
	}
	return row.New(8).Add(
		col.New(6).Add(bold("TOTAL", align.Right)),
		col.New(2).Add(bold(strconv.Itoa(sent), align.Center)),
		col.New(2).Add(bold(strconv.Itoa(returned), align.Center)),
		col.New(2).Add(bold(strconv.Itoa(pending), align.Center)),
	)
}

func observationRow(summary domlaundry.Summary) core.Row {
	obs := summary.Observation
	if obs == "" {
		obs = "Sin prendas pendientes."
	}
	return row.New(14).Add(col.New(12).Add(
		text.New("OBSERVACIÓN", props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 3}),
		text.New(obs, props.Text{Size: 8, Top: 8, Color: colorGray}),
	))
}

// historyRows: devoluciones en orden de registro con su observación libre.
func historyRows(events []*entity.ReturnEvent) []core.Row {
	if len(events) == 0 {
		return []core.Row{row.New(6).Add(col.New(12).Add(
			text.New("Aún no se registran devoluciones.", props.Text{Size: 8, Top: 1, Color: colorGray}),
		))}
	}
	rows := []core.Row{row.New(7).Add(col.New(12).Add(
		text.New("HISTORIAL DE DEVOLUCIONES", props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 2}),
	))}
	for _, ev := range events {
		detail := domlaundry.FormatItems(ev.Items)
		if ev.Observation != "" {
			detail += " (" + ev.Observation + ")"
		}
		rows = append(rows, row.New(6).Add(
			col.New(3).Add(text.New(ev.OccurredAt.Format("02/01/2006 15:04"), props.Text{Size: 7.5, Top: 1, Left: 1})),
			col.New(7).Add(text.New(detail, props.Text{Size: 7.5, Top: 1})),
			col.New(2).Add(text.New(ev.Status, props.Text{Size: 7.5, Align: align.Right, Top: 1, Right: 1})),
		))
	}
	return rows
}

func footerRow(guide *entity.Guide) core.Row {
	return row.New(30).Add(
		col.New(3).Add(code.NewQr(guide.GuideNumber, props.Rect{Percent: 95, Center: true})),
		col.New(9).Add(
			text.New("Escanea el código para consultar el estado de la guía.", props.Text{
				Size: 8, Top: 4, Left: 3, Color: colorGray,
			}),
			text.New("Documento de control interno de lavandería", props.Text{
				Style: fontstyle.Bold, Size: 9, Top: 14, Left: 3, Color: colorPrimary,
			}),
		),
	)
}
