// Package memory implementa el almacenamiento de guías y devoluciones en memoria,
// para desarrollo (STORAGE_DRIVER=memory) y tests.
//
// Las escrituras se preparan dentro de la transacción y se aplican solo en el commit.
// Las devoluciones sobre una guía se serializan con una tabla de locks por número de guía;
// las lecturas ven una vista consistente bajo RLock.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	applaundry "github.com/jhoicas/lavanderia-api/internal/application/laundry"
	"github.com/jhoicas/lavanderia-api/internal/domain"
	"github.com/jhoicas/lavanderia-api/internal/domain/entity"
	"github.com/jhoicas/lavanderia-api/internal/domain/repository"
)

var _ applaundry.TxRunner = (*Store)(nil)

var errReadOnly = errors.New("memory: transacción de solo lectura")

// Store guarda guías y eventos de devolución en memoria.
type Store struct {
	mu     sync.RWMutex
	guides map[string]*entity.Guide
	events map[string][]*entity.ReturnEvent
	locks  *keyedLocks
}

// NewStore construye un store vacío.
func NewStore() *Store {
	return &Store{
		guides: make(map[string]*entity.Guide),
		events: make(map[string][]*entity.ReturnEvent),
		locks:  newKeyedLocks(),
	}
}

// Run ejecuta fn en una transacción de escritura. Si fn falla o ctx se cancela antes del
// commit, nada de lo preparado se aplica.
func (s *Store) Run(ctx context.Context, fn func(guides repository.GuideRepository, returns repository.ReturnEventRepository) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tx := &writeTx{s: s, held: make(map[string]bool)}
	defer tx.releaseLocks()

	if err := fn(&writeGuides{tx}, &writeReturns{tx}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range tx.guides {
		s.guides[g.GuideNumber] = g
	}
	for _, ev := range tx.events {
		s.events[ev.GuideNumber] = append(s.events[ev.GuideNumber], ev)
	}
	return nil
}

// ReadOnly ejecuta fn sobre una vista consistente del store.
func (s *Store) ReadOnly(ctx context.Context, fn func(guides repository.GuideRepository, returns repository.ReturnEventRepository) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(readGuides{s}, readReturns{s})
}

// ── lecturas sobre el estado confirmado (el llamador sostiene s.mu) ──────────

func (s *Store) guideLocked(number string) *entity.Guide {
	if g, ok := s.guides[number]; ok {
		return cloneGuide(g)
	}
	return nil
}

func (s *Store) listLocked(filter repository.GuideFilter) []*entity.Guide {
	out := make([]*entity.Guide, 0, len(s.guides))
	for _, g := range s.guides {
		if matches(g, filter) {
			out = append(out, cloneGuide(g))
		}
	}
	return out
}

func (s *Store) eventsLocked(number string) []*entity.ReturnEvent {
	evs := s.events[number]
	out := make([]*entity.ReturnEvent, 0, len(evs))
	for _, ev := range evs {
		out = append(out, cloneEvent(ev))
	}
	return out
}

// ── transacción de escritura ─────────────────────────────────────────────────

type writeTx struct {
	s      *Store
	held   map[string]bool
	guides []*entity.Guide
	events []*entity.ReturnEvent
}

func (tx *writeTx) lock(ctx context.Context, number string) error {
	if tx.held[number] {
		return nil
	}
	if err := tx.s.locks.Lock(ctx, number); err != nil {
		return fmt.Errorf("memory: lock guía %s: %w", number, err)
	}
	tx.held[number] = true
	return nil
}

func (tx *writeTx) releaseLocks() {
	for number := range tx.held {
		tx.s.locks.Unlock(number)
	}
}

func (tx *writeTx) guide(number string) *entity.Guide {
	for _, g := range tx.guides {
		if g.GuideNumber == number {
			return cloneGuide(g)
		}
	}
	tx.s.mu.RLock()
	defer tx.s.mu.RUnlock()
	return tx.s.guideLocked(number)
}

type writeGuides struct{ tx *writeTx }

func (r *writeGuides) Create(ctx context.Context, guide *entity.Guide) error {
	if err := r.tx.lock(ctx, guide.GuideNumber); err != nil {
		return err
	}
	if r.tx.guide(guide.GuideNumber) != nil {
		return domain.ErrDuplicateGuide
	}
	r.tx.guides = append(r.tx.guides, cloneGuide(guide))
	return nil
}

func (r *writeGuides) GetByNumber(_ context.Context, guideNumber string) (*entity.Guide, error) {
	return r.tx.guide(guideNumber), nil
}

func (r *writeGuides) GetForUpdate(ctx context.Context, guideNumber string) (*entity.Guide, error) {
	if err := r.tx.lock(ctx, guideNumber); err != nil {
		return nil, err
	}
	return r.tx.guide(guideNumber), nil
}

func (r *writeGuides) List(_ context.Context, filter repository.GuideFilter) ([]*entity.Guide, error) {
	r.tx.s.mu.RLock()
	out := r.tx.s.listLocked(filter)
	r.tx.s.mu.RUnlock()
	for _, g := range r.tx.guides {
		if matches(g, filter) {
			out = append(out, cloneGuide(g))
		}
	}
	sortNewestFirst(out)
	return out, nil
}

type writeReturns struct{ tx *writeTx }

func (r *writeReturns) Create(_ context.Context, event *entity.ReturnEvent) error {
	if r.tx.guide(event.GuideNumber) == nil {
		return domain.ErrNotFound
	}
	r.tx.events = append(r.tx.events, cloneEvent(event))
	return nil
}

func (r *writeReturns) ListByGuide(_ context.Context, guideNumber string) ([]*entity.ReturnEvent, error) {
	r.tx.s.mu.RLock()
	out := r.tx.s.eventsLocked(guideNumber)
	r.tx.s.mu.RUnlock()
	for _, ev := range r.tx.events {
		if ev.GuideNumber == guideNumber {
			out = append(out, cloneEvent(ev))
		}
	}
	return out, nil
}

func (r *writeReturns) CountByGuide(_ context.Context, guideNumber string) (int, error) {
	r.tx.s.mu.RLock()
	n := len(r.tx.s.events[guideNumber])
	r.tx.s.mu.RUnlock()
	for _, ev := range r.tx.events {
		if ev.GuideNumber == guideNumber {
			n++
		}
	}
	return n, nil
}

// ── transacción de lectura (s.mu.RLock tomado por ReadOnly) ───────────────────

type readGuides struct{ s *Store }

func (r readGuides) Create(context.Context, *entity.Guide) error { return errReadOnly }

func (r readGuides) GetByNumber(_ context.Context, guideNumber string) (*entity.Guide, error) {
	return r.s.guideLocked(guideNumber), nil
}

func (r readGuides) GetForUpdate(context.Context, string) (*entity.Guide, error) {
	return nil, errReadOnly
}

func (r readGuides) List(_ context.Context, filter repository.GuideFilter) ([]*entity.Guide, error) {
	out := r.s.listLocked(filter)
	sortNewestFirst(out)
	return out, nil
}

type readReturns struct{ s *Store }

func (r readReturns) Create(context.Context, *entity.ReturnEvent) error { return errReadOnly }

func (r readReturns) ListByGuide(_ context.Context, guideNumber string) ([]*entity.ReturnEvent, error) {
	return r.s.eventsLocked(guideNumber), nil
}

func (r readReturns) CountByGuide(_ context.Context, guideNumber string) (int, error) {
	return len(r.s.events[guideNumber]), nil
}

// ── helpers ──────────────────────────────────────────────────────────────────

func matches(g *entity.Guide, f repository.GuideFilter) bool {
	if f.GuideNumberContains != "" && !strings.Contains(g.GuideNumber, f.GuideNumberContains) {
		return false
	}
	if f.From != nil && g.CreatedAt.Before(*f.From) {
		return false
	}
	if f.To != nil && !g.CreatedAt.Before(*f.To) {
		return false
	}
	return true
}

func sortNewestFirst(list []*entity.Guide) {
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].GuideNumber < list[j].GuideNumber
	})
}

func cloneGuide(g *entity.Guide) *entity.Guide {
	c := *g
	c.Items = append([]entity.GuideItem(nil), g.Items...)
	return &c
}

func cloneEvent(ev *entity.ReturnEvent) *entity.ReturnEvent {
	c := *ev
	c.Items = append([]entity.GuideItem(nil), ev.Items...)
	return &c
}
