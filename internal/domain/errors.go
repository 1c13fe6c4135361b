package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound        = errors.New("guía no encontrada")
	ErrInvalidInput    = errors.New("entrada inválida")
	ErrDuplicateGuide  = errors.New("número de guía ya registrado")
	ErrInvalidShipment = errors.New("el envío no tiene prendas válidas")
	ErrEmptyReturn     = errors.New("la devolución no tiene cantidades positivas")
	ErrUnknownItem     = errors.New("la prenda no forma parte del envío")
	ErrOverReturn      = errors.New("la devolución excede lo enviado")
	ErrTransient       = errors.New("almacenamiento no disponible")
)

// UnknownItemError indica un tipo de prenda que no aparece en la guía.
type UnknownItemError struct {
	GuideNumber string
	GarmentType string
}

func (e *UnknownItemError) Error() string {
	return fmt.Sprintf("%s: %q (guía %s)", ErrUnknownItem.Error(), e.GarmentType, e.GuideNumber)
}

// Is permite errors.Is(err, ErrUnknownItem).
func (e *UnknownItemError) Is(target error) bool { return target == ErrUnknownItem }

// OverReturnError indica que el acumulado devuelto superaría lo enviado.
type OverReturnError struct {
	GuideNumber     string
	GarmentType     string
	Sent            int
	AlreadyReturned int
	Attempted       int
}

func (e *OverReturnError) Error() string {
	return fmt.Sprintf("%s: %s enviadas %d, devueltas %d, intento %d (guía %s)",
		ErrOverReturn.Error(), e.GarmentType, e.Sent, e.AlreadyReturned, e.Attempted, e.GuideNumber)
}

// Is permite errors.Is(err, ErrOverReturn).
func (e *OverReturnError) Is(target error) bool { return target == ErrOverReturn }

// TransientError envuelve una falla de almacenamiento o transporte reintentable por el llamador.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrTransient.Error(), e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// Is permite errors.Is(err, ErrTransient) sin perder la causa original.
func (e *TransientError) Is(target error) bool { return target == ErrTransient }

// Transient marca err como falla transitoria. nil se mantiene nil.
func Transient(op string, err error) error {
	if err == nil {
		return nil
	}
	var te *TransientError
	if errors.As(err, &te) {
		return err
	}
	return &TransientError{Op: op, Err: err}
}
