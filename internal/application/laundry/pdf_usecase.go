package laundry

import (
	"context"
	"fmt"

	domlaundry "github.com/jhoicas/lavanderia-api/internal/domain/laundry"
)

// PDFUseCase genera el acta PDF de una guía (enviado, devuelto y pendiente por prenda).
type PDFUseCase struct {
	svc       *ReconciliationService
	generator GuidePDFGenerator
}

// NewPDFUseCase construye el caso de uso.
func NewPDFUseCase(svc *ReconciliationService, generator GuidePDFGenerator) *PDFUseCase {
	return &PDFUseCase{svc: svc, generator: generator}
}

// DownloadGuidePDF devuelve (pdfBytes, filename, nil) o domain.ErrNotFound si la guía no existe.
func (uc *PDFUseCase) DownloadGuidePDF(ctx context.Context, guideNumber string) ([]byte, string, error) {
	number := domlaundry.NormalizeGuideNumber(guideNumber)
	guide, events, err := uc.svc.load(ctx, number)
	if err != nil {
		return nil, "", err
	}
	summary := domlaundry.Resolve(guide.Items, domlaundry.ReturnedTotals(events))

	pdfBytes, err := uc.generator.GenerateGuidePDF(ctx, guide, summary, events)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: generar acta: %w", err)
	}
	return pdfBytes, fmt.Sprintf("guia_%s.pdf", guide.GuideNumber), nil
}
