// Package cache guarda en Redis el último estado calculado de cada guía para reportes.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	applaundry "github.com/jhoicas/lavanderia-api/internal/application/laundry"
)

const (
	keyPrefix      = "laundry:status:"
	maxSetAttempts = 3
)

var _ applaundry.StatusCache = (*StatusCache)(nil)

// StatusCache implementa applaundry.StatusCache sobre Redis con TTL.
type StatusCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStatusCache construye la caché. ttl <= 0 = sin expiración.
func NewStatusCache(client *redis.Client, ttl time.Duration) *StatusCache {
	if ttl < 0 {
		ttl = 0
	}
	return &StatusCache{client: client, ttl: ttl}
}

func key(guideNumber string) string { return keyPrefix + guideNumber }

// Get devuelve (nil, nil) si no hay snapshot.
func (c *StatusCache) Get(ctx context.Context, guideNumber string) (*applaundry.StatusSnapshot, error) {
	payload, err := c.client.Get(ctx, key(guideNumber)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache: get %s: %w", guideNumber, err)
	}
	var snap applaundry.StatusSnapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		// Entrada corrupta: se descarta para que se recalcule
		_ = c.client.Del(ctx, key(guideNumber)).Err()
		return nil, nil
	}
	return &snap, nil
}

// Set guarda el snapshot salvo que el almacenado tenga más eventos.
// WATCH sobre la clave: si otro escritor la cambia entre la lectura y el SET, se reintenta.
func (c *StatusCache) Set(ctx context.Context, snap *applaundry.StatusSnapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("cache: encode %s: %w", snap.GuideNumber, err)
	}
	k := key(snap.GuideNumber)
	write := func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, k).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return err
		default:
			var prev applaundry.StatusSnapshot
			if json.Unmarshal(current, &prev) == nil && prev.EventCount > snap.EventCount {
				return nil
			}
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, k, raw, c.ttl)
			return nil
		})
		return err
	}
	for attempt := 0; attempt < maxSetAttempts; attempt++ {
		err = c.client.Watch(ctx, write, k)
		if !errors.Is(err, redis.TxFailedErr) {
			break
		}
	}
	if err != nil {
		return fmt.Errorf("cache: set %s: %w", snap.GuideNumber, err)
	}
	return nil
}

// Delete invalida el snapshot de la guía.
func (c *StatusCache) Delete(ctx context.Context, guideNumber string) error {
	if err := c.client.Del(ctx, key(guideNumber)).Err(); err != nil {
		return fmt.Errorf("cache: del %s: %w", guideNumber, err)
	}
	return nil
}
