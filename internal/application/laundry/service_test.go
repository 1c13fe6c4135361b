package laundry_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/lavanderia-api/internal/application/dto"
	applaundry "github.com/jhoicas/lavanderia-api/internal/application/laundry"
	"github.com/jhoicas/lavanderia-api/internal/domain"
	"github.com/jhoicas/lavanderia-api/internal/domain/entity"
	"github.com/jhoicas/lavanderia-api/internal/domain/repository"
	"github.com/jhoicas/lavanderia-api/internal/infrastructure/memory"
)

// ── fakes ────────────────────────────────────────────────────────────────────

type fakeCache struct {
	mu     sync.Mutex
	snaps  map[string]*applaundry.StatusSnapshot
	setErr error
	gets   int
}

func newFakeCache() *fakeCache {
	return &fakeCache{snaps: make(map[string]*applaundry.StatusSnapshot)}
}

func (c *fakeCache) Get(_ context.Context, n string) (*applaundry.StatusSnapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	return c.snaps[n], nil
}

func (c *fakeCache) Set(_ context.Context, s *applaundry.StatusSnapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.setErr != nil {
		return c.setErr
	}
	c.snaps[s.GuideNumber] = s
	return nil
}

func (c *fakeCache) Delete(_ context.Context, n string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.snaps, n)
	return nil
}

type fakePublisher struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (p *fakePublisher) Publish(_ context.Context, key string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, key)
	return p.err
}

// failingRunner simula un almacenamiento caído.
type failingRunner struct{}

func (failingRunner) Run(context.Context, func(repository.GuideRepository, repository.ReturnEventRepository) error) error {
	return domain.Transient("tx begin", errors.New("connection refused"))
}

func (failingRunner) ReadOnly(context.Context, func(repository.GuideRepository, repository.ReturnEventRepository) error) error {
	return domain.Transient("tx begin", errors.New("connection refused"))
}

// pausingRunner detiene una lectura ya tomada (antes de devolverla) hasta que se libere.
type pausingRunner struct {
	*memory.Store
	armed   atomic.Bool
	paused  chan struct{}
	release chan struct{}
}

func newPausingRunner() *pausingRunner {
	return &pausingRunner{Store: memory.NewStore(), paused: make(chan struct{}), release: make(chan struct{})}
}

func (r *pausingRunner) ReadOnly(ctx context.Context, fn func(repository.GuideRepository, repository.ReturnEventRepository) error) error {
	err := r.Store.ReadOnly(ctx, fn)
	if r.armed.CompareAndSwap(true, false) {
		close(r.paused)
		<-r.release
	}
	return err
}

// heldCache retiene el Set del snapshot con heldCount eventos hasta que se libere.
type heldCache struct {
	*fakeCache
	heldCount int
	reached   chan struct{}
	release   chan struct{}
	once      sync.Once
}

func (c *heldCache) Set(ctx context.Context, snap *applaundry.StatusSnapshot) error {
	if snap.EventCount == c.heldCount {
		held := false
		c.once.Do(func() { held = true })
		if held {
			close(c.reached)
			<-c.release
		}
	}
	return c.fakeCache.Set(ctx, snap)
}

// ── helpers ──────────────────────────────────────────────────────────────────

func newService(t *testing.T) *applaundry.ReconciliationService {
	t.Helper()
	return applaundry.NewReconciliationService(memory.NewStore(), nil, nil, nil)
}

func items(pairs ...any) []dto.ItemDTO {
	out := make([]dto.ItemDTO, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, dto.ItemDTO{Name: pairs[i].(string), Qty: pairs[i+1].(int)})
	}
	return out
}

func shipG001(t *testing.T, svc *applaundry.ReconciliationService) {
	t.Helper()
	_, err := svc.Ship(context.Background(), dto.ShipRequest{GuideNumber: "G-001", Items: items("Polo", 3, "Pantalon", 2)})
	require.NoError(t, err)
}

// assertReportMatchesStatus compara el estado del reporte y de las estadísticas con Status.
func assertReportMatchesStatus(t *testing.T, svc *applaundry.ReconciliationService, number string) {
	t.Helper()
	ctx := context.Background()
	st, err := svc.Status(ctx, number)
	require.NoError(t, err)

	rows, err := svc.Report(ctx, dto.LaundryReportFilter{GuideNumber: number})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, st.Status, rows[0].Status)
	pending := "Ninguna"
	if st.Status != entity.GuideStatusComplete {
		pending = strings.TrimPrefix(st.Observation, "Faltan: ")
	}
	assert.Equal(t, pending, rows[0].PendingItems)

	stats, err := svc.Stats(ctx, 0, 0)
	require.NoError(t, err)
	active := 0
	if st.Status != entity.GuideStatusComplete {
		active = 1
	}
	assert.Equal(t, active, stats.ActiveCount)
}

func returnItems(svc *applaundry.ReconciliationService, pairs ...any) (*dto.ReturnResponse, error) {
	return svc.ReturnItems(context.Background(), dto.ReturnRequest{GuideNumber: "G-001", Items: items(pairs...)})
}

// ── escenarios ───────────────────────────────────────────────────────────────

func TestScenarios(t *testing.T) {
	svc := applaundry.NewReconciliationService(memory.NewStore(), newFakeCache(), nil, nil)
	ctx := context.Background()

	// A
	shipped, err := svc.Ship(ctx, dto.ShipRequest{GuideNumber: "G-001", Items: items("Polo", 3, "Pantalon", 2)})
	require.NoError(t, err)
	assert.Equal(t, entity.GuideStatusPending, shipped.Status)
	assert.Equal(t, map[string]int{"Polo": 3, "Pantalon": 2}, shipped.Pending)

	st, err := svc.Status(ctx, "G-001")
	require.NoError(t, err)
	assert.Equal(t, entity.GuideStatusPending, st.Status)
	assert.Equal(t, []dto.StatusLineDTO{
		{Name: "Polo", Sent: 3, Returned: 0, Pending: 3},
		{Name: "Pantalon", Sent: 2, Returned: 0, Pending: 2},
	}, st.Items)
	assertReportMatchesStatus(t, svc, "G-001")

	// B
	ret, err := returnItems(svc, "Polo", 3)
	require.NoError(t, err)
	assert.Equal(t, entity.GuideStatusIncomplete, ret.Status)
	assert.Equal(t, map[string]int{"Polo": 0, "Pantalon": 2}, ret.Pending)
	assert.Equal(t, "Faltan: 2 Pantalon", ret.Observation)
	assertReportMatchesStatus(t, svc, "G-001")

	// C
	ret, err = returnItems(svc, "Pantalon", 2)
	require.NoError(t, err)
	assert.Equal(t, entity.GuideStatusComplete, ret.Status)
	assert.Equal(t, map[string]int{"Polo": 0, "Pantalon": 0}, ret.Pending)
	assert.Empty(t, ret.Observation)

	st, err = svc.Status(ctx, "G-001")
	require.NoError(t, err)
	assert.Equal(t, entity.GuideStatusComplete, st.Status)
	assert.Equal(t, []dto.StatusLineDTO{
		{Name: "Polo", Sent: 3, Returned: 3, Pending: 0},
		{Name: "Pantalon", Sent: 2, Returned: 2, Pending: 0},
	}, st.Items)
	assertReportMatchesStatus(t, svc, "G-001")

	// D
	_, err = returnItems(svc, "Polo", 1)
	require.ErrorIs(t, err, domain.ErrOverReturn)
	var over *domain.OverReturnError
	require.ErrorAs(t, err, &over)
	assert.Equal(t, "Polo", over.GarmentType)
	assert.Equal(t, 3, over.Sent)
	assert.Equal(t, 3, over.AlreadyReturned)
	assert.Equal(t, 1, over.Attempted)

	// E
	_, err = svc.Ship(ctx, dto.ShipRequest{GuideNumber: "G-002", Items: items("Polo", 0, "Pantalon", 0)})
	assert.ErrorIs(t, err, domain.ErrInvalidShipment)

	// F
	_, err = returnItems(svc, "Chaqueta", 1)
	assert.ErrorIs(t, err, domain.ErrUnknownItem)
	var unknown *domain.UnknownItemError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "Chaqueta", unknown.GarmentType)
}

func TestShip_Duplicada(t *testing.T) {
	svc := newService(t)
	shipG001(t, svc)

	_, err := svc.Ship(context.Background(), dto.ShipRequest{GuideNumber: " g-001 ", Items: items("Polo", 1)})
	assert.ErrorIs(t, err, domain.ErrDuplicateGuide)
}

func TestShip_PesoNegativo(t *testing.T) {
	svc := newService(t)
	w := decimal.NewFromInt(-1)
	_, err := svc.Ship(context.Background(), dto.ShipRequest{GuideNumber: "G-9", Items: items("Polo", 1), Weight: &w})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestShip_PesoFueraDeRango(t *testing.T) {
	svc := newService(t)
	for i, raw := range []string{"100000000", "99999999.995", "123456789.5"} {
		w := decimal.RequireFromString(raw)
		_, err := svc.Ship(context.Background(), dto.ShipRequest{GuideNumber: fmt.Sprintf("W-%d", i), Items: items("Polo", 1), Weight: &w})
		assert.ErrorIs(t, err, domain.ErrInvalidInput, raw)
	}

	w := decimal.RequireFromString("99999999.99")
	resp, err := svc.Ship(context.Background(), dto.ShipRequest{GuideNumber: "W-OK", Items: items("Polo", 1), Weight: &w})
	require.NoError(t, err)
	assert.True(t, w.Equal(resp.Weight))
}

func TestReturn_TodoONada(t *testing.T) {
	svc := newService(t)
	shipG001(t, svc)

	// Polo es válido pero Pantalon excede: no se registra nada
	_, err := returnItems(svc, "Polo", 1, "Pantalon", 5)
	require.ErrorIs(t, err, domain.ErrOverReturn)

	st, err := svc.Status(context.Background(), "G-001")
	require.NoError(t, err)
	assert.Equal(t, entity.GuideStatusPending, st.Status)
	for _, l := range st.Items {
		assert.Zero(t, l.Returned, l.Name)
	}
	assert.Nil(t, st.LastReturnAt)
}

func TestReturn_VaciaYGuiaInexistente(t *testing.T) {
	svc := newService(t)
	shipG001(t, svc)

	_, err := returnItems(svc, "Polo", 0)
	assert.ErrorIs(t, err, domain.ErrEmptyReturn)

	_, err = svc.ReturnItems(context.Background(), dto.ReturnRequest{GuideNumber: "NO-EXISTE", Items: items("Polo", 1)})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Status(context.Background(), "NO-EXISTE")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ── propiedades ──────────────────────────────────────────────────────────────

func TestInvariantes_MonotoniaEIdempotencia(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	_, err := svc.Ship(ctx, dto.ShipRequest{GuideNumber: "G-001", Items: items("Polo", 4, "Sabana", 2)})
	require.NoError(t, err)

	steps := [][]any{{"Polo", 1}, {"Sabana", 1}, {"Polo", 2, "Sabana", 1}, {"Polo", 1}}
	prevPending := map[string]int{"Polo": 4, "Sabana": 2}
	for _, step := range steps {
		_, err := returnItems(svc, step...)
		require.NoError(t, err)

		first, err := svc.Status(ctx, "G-001")
		require.NoError(t, err)
		second, err := svc.Status(ctx, "G-001")
		require.NoError(t, err)
		assert.Equal(t, first, second, "dos consultas seguidas devuelven lo mismo")

		for _, l := range first.Items {
			assert.Equal(t, l.Sent, l.Returned+l.Pending, "enviado = devuelto + pendiente")
			assert.GreaterOrEqual(t, l.Pending, 0)
			assert.LessOrEqual(t, l.Pending, prevPending[l.Name], "el pendiente nunca crece")
			prevPending[l.Name] = l.Pending
		}
	}
	st, err := svc.Status(ctx, "G-001")
	require.NoError(t, err)
	assert.Equal(t, entity.GuideStatusComplete, st.Status)
}

func TestDevolucionesConcurrentes_NuncaExceden(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	_, err := svc.Ship(ctx, dto.ShipRequest{GuideNumber: "G-001", Items: items("Polo", 10)})
	require.NoError(t, err)

	var ok, rejected atomic.Int32
	var g errgroup.Group
	for i := 0; i < 30; i++ {
		g.Go(func() error {
			_, err := returnItems(svc, "Polo", 1)
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, domain.ErrOverReturn):
				rejected.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int32(10), ok.Load())
	assert.Equal(t, int32(20), rejected.Load())

	st, err := svc.Status(ctx, "G-001")
	require.NoError(t, err)
	assert.Equal(t, 10, st.Items[0].Returned)
	assert.Equal(t, entity.GuideStatusComplete, st.Status)
}

func TestStatus_LecturasConcurrentes(t *testing.T) {
	svc := newService(t)
	shipG001(t, svc)
	_, err := returnItems(svc, "Polo", 1)
	require.NoError(t, err)

	var g errgroup.Group
	results := make([]*dto.GuideStatusResponse, 16)
	for i := range results {
		g.Go(func() error {
			st, err := svc.Status(context.Background(), "g-001")
			results[i] = st
			return err
		})
	}
	require.NoError(t, g.Wait())
	for _, r := range results {
		assert.Equal(t, results[0], r)
	}
}

func TestStatus_LecturaPosteriorAlCommitVeLaDevolucion(t *testing.T) {
	runner := newPausingRunner()
	svc := applaundry.NewReconciliationService(runner, nil, nil, nil)
	ctx := context.Background()
	_, err := svc.Ship(ctx, dto.ShipRequest{GuideNumber: "G-001", Items: items("Polo", 3)})
	require.NoError(t, err)

	release := sync.OnceFunc(func() { close(runner.release) })
	defer release()

	// A toma su lectura antes de la devolución y queda detenida
	runner.armed.Store(true)
	var g errgroup.Group
	var first *dto.GuideStatusResponse
	g.Go(func() error {
		st, err := svc.Status(ctx, "G-001")
		first = st
		return err
	})
	<-runner.paused

	ret, err := returnItems(svc, "Polo", 3)
	require.NoError(t, err)
	require.Equal(t, entity.GuideStatusComplete, ret.Status)

	// B empieza después del commit: no puede recibir la lectura de A
	done := make(chan *dto.GuideStatusResponse, 1)
	go func() {
		st, err := svc.Status(ctx, "G-001")
		if err != nil {
			st = nil
		}
		done <- st
	}()
	select {
	case st := <-done:
		require.NotNil(t, st)
		assert.Equal(t, entity.GuideStatusComplete, st.Status)
		assert.Equal(t, 3, st.Items[0].Returned)
	case <-time.After(2 * time.Second):
		t.Fatal("la lectura posterior al commit quedó esperando a la anterior")
	}

	release()
	require.NoError(t, g.Wait())
	assert.Equal(t, entity.GuideStatusPending, first.Status)
}

func TestReturn_CancelacionNoAplica(t *testing.T) {
	svc := newService(t)
	shipG001(t, svc)

	ctx, cancel := context.WithCancel(context.Background())
	// El reloj se consulta a mitad de la transacción: la cancelación llega antes del commit
	svc.WithClock(func() time.Time {
		cancel()
		return time.Now()
	})
	_, err := svc.ReturnItems(ctx, dto.ReturnRequest{GuideNumber: "G-001", Items: items("Polo", 1)})
	require.ErrorIs(t, err, context.Canceled)

	svc.WithClock(time.Now)
	st, err := svc.Status(context.Background(), "G-001")
	require.NoError(t, err)
	assert.Equal(t, entity.GuideStatusPending, st.Status)
	assert.Nil(t, st.LastReturnAt)
}

func TestAlmacenamientoCaido_Transitorio(t *testing.T) {
	svc := applaundry.NewReconciliationService(failingRunner{}, nil, nil, nil)

	_, err := svc.Ship(context.Background(), dto.ShipRequest{GuideNumber: "G-1", Items: items("Polo", 1)})
	assert.ErrorIs(t, err, domain.ErrTransient)

	_, err = svc.Status(context.Background(), "G-1")
	assert.ErrorIs(t, err, domain.ErrTransient)
}

// ── efectos posteriores al commit ────────────────────────────────────────────

func TestAfterCommit_CacheYEventos(t *testing.T) {
	cache := newFakeCache()
	pub := &fakePublisher{}
	svc := applaundry.NewReconciliationService(memory.NewStore(), cache, pub, nil)

	shipG001(t, svc)
	_, err := returnItems(svc, "Polo", 3)
	require.NoError(t, err)

	assert.Equal(t, []string{applaundry.EventGuideShipped, applaundry.EventReturnRecorded}, pub.keys)
	snap := cache.snaps["G-001"]
	require.NotNil(t, snap)
	assert.Equal(t, entity.GuideStatusIncomplete, snap.Status)
	assert.NotNil(t, snap.LastReturnAt)
}

func TestAfterCommit_FallasNoAfectanElResultado(t *testing.T) {
	cache := newFakeCache()
	cache.setErr = errors.New("redis caído")
	pub := &fakePublisher{err: errors.New("broker caído")}
	svc := applaundry.NewReconciliationService(memory.NewStore(), cache, pub, nil)

	shipG001(t, svc)
	ret, err := returnItems(svc, "Polo", 3)
	require.NoError(t, err)
	assert.Equal(t, entity.GuideStatusIncomplete, ret.Status)
	assert.Empty(t, cache.snaps)
}

// ── reportes ─────────────────────────────────────────────────────────────────

func TestReportYStats(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	march := time.Date(2026, time.March, 15, 10, 0, 0, 0, time.Local)
	april := time.Date(2026, time.April, 2, 10, 0, 0, 0, time.Local)

	svc.WithClock(func() time.Time { return march })
	_, err := svc.Ship(ctx, dto.ShipRequest{GuideNumber: "M-1", Items: items("Polo", 2)})
	require.NoError(t, err)
	_, err = svc.ReturnItems(ctx, dto.ReturnRequest{GuideNumber: "M-1", Items: items("Polo", 2)})
	require.NoError(t, err)

	svc.WithClock(func() time.Time { return april })
	_, err = svc.Ship(ctx, dto.ShipRequest{GuideNumber: "A-1", Items: items("Polo", 1, "Toalla", 4)})
	require.NoError(t, err)

	rows, err := svc.Report(ctx, dto.LaundryReportFilter{})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "A-1", rows[0].GuideNumber, "más reciente primero")
	assert.Equal(t, "1 Polo, 4 Toalla", rows[0].PendingItems)
	assert.Equal(t, entity.GuideStatusComplete, rows[1].Status)
	assert.Equal(t, "Ninguna", rows[1].PendingItems)
	require.NotNil(t, rows[1].ReturnDate)

	rows, err = svc.Report(ctx, dto.LaundryReportFilter{Month: 3, Year: 2026})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "M-1", rows[0].GuideNumber)

	rows, err = svc.Report(ctx, dto.LaundryReportFilter{Month: 4})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "A-1", rows[0].GuideNumber)

	rows, err = svc.Report(ctx, dto.LaundryReportFilter{GuideNumber: "m-"})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	stats, err := svc.Stats(ctx, 0, 2026)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.GuidesCount)
	assert.Equal(t, 1, stats.ActiveCount)
	assert.Equal(t, 7, stats.TotalSent)
	assert.Equal(t, map[string]int{"Polo": 3, "Toalla": 4}, stats.SentByGarment)

	stats, err = svc.Stats(ctx, 4, 2026)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.GuidesCount)
	assert.Equal(t, 5, stats.TotalSent)
}

func TestReport_SnapshotAtrasadoSeRecalcula(t *testing.T) {
	cache := &heldCache{fakeCache: newFakeCache(), heldCount: 1, reached: make(chan struct{}), release: make(chan struct{})}
	svc := applaundry.NewReconciliationService(memory.NewStore(), cache, nil, nil)
	shipG001(t, svc)

	// El snapshot de la primera devolución se escribe después del de la segunda
	var g errgroup.Group
	g.Go(func() error {
		_, err := returnItems(svc, "Polo", 3)
		return err
	})
	<-cache.reached
	ret, err := returnItems(svc, "Pantalon", 2)
	require.NoError(t, err)
	require.Equal(t, entity.GuideStatusComplete, ret.Status)
	close(cache.release)
	require.NoError(t, g.Wait())

	stale := cache.snaps["G-001"]
	require.NotNil(t, stale)
	require.Equal(t, 1, stale.EventCount, "la caché quedó con el snapshot viejo")

	rows, err := svc.Report(context.Background(), dto.LaundryReportFilter{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, entity.GuideStatusComplete, rows[0].Status)
	assert.Equal(t, "Ninguna", rows[0].PendingItems)

	stats, err := svc.Stats(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.ActiveCount)

	// El recálculo reemplaza la entrada atrasada
	assert.Equal(t, 2, cache.snaps["G-001"].EventCount)
	assert.Equal(t, entity.GuideStatusComplete, cache.snaps["G-001"].Status)
}

func TestReport_UsaSnapshotEnCache(t *testing.T) {
	cache := newFakeCache()
	svc := applaundry.NewReconciliationService(memory.NewStore(), cache, nil, nil)
	shipG001(t, svc)

	rows, err := svc.Report(context.Background(), dto.LaundryReportFilter{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, entity.GuideStatusPending, rows[0].Status)
	assert.Equal(t, 1, cache.gets)
}
