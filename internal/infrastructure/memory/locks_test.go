package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyedLocks_ExclusionPorClave(t *testing.T) {
	k := newKeyedLocks()
	ctx := context.Background()
	require.NoError(t, k.Lock(ctx, "G-1"))

	// Otra clave no se bloquea
	require.NoError(t, k.Lock(ctx, "G-2"))
	k.Unlock("G-2")

	acquired := make(chan struct{})
	go func() {
		_ = k.Lock(ctx, "G-1")
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("la misma clave no debe tomarse dos veces")
	case <-time.After(50 * time.Millisecond):
	}

	k.Unlock("G-1")
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("el lock liberado debe poder tomarse")
	}
	k.Unlock("G-1")
	assert.Zero(t, k.size())
}

func TestKeyedLocks_CancelacionMientrasEspera(t *testing.T) {
	k := newKeyedLocks()
	require.NoError(t, k.Lock(context.Background(), "G-1"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := k.Lock(ctx, "G-1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	k.Unlock("G-1")
	assert.Zero(t, k.size())
}

func TestKeyedLocks_Contencion(t *testing.T) {
	k := newKeyedLocks()
	var (
		wg      sync.WaitGroup
		counter int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.NoError(t, k.Lock(context.Background(), "G-1"))
			counter++
			k.Unlock("G-1")
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, counter)
	assert.Zero(t, k.size())
}
