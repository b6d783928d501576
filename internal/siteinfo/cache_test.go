package siteinfo

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wikifeeds-api/internal/models"
)

type countingLoader struct {
	calls atomic.Int32
	delay time.Duration
	err   error
}

func (l *countingLoader) FetchSiteInfo(ctx context.Context, domain string) (*models.SiteInfo, error) {
	l.calls.Add(1)
	if l.delay > 0 {
		time.Sleep(l.delay)
	}
	if l.err != nil {
		return nil, l.err
	}
	return &models.SiteInfo{Domain: domain, MainPage: "Main Page"}, nil
}

func TestCache_HitAfterMiss(t *testing.T) {
	loader := &countingLoader{}
	c := NewCache(loader, 10, time.Hour, time.Second, zerolog.Nop())

	si, err := c.Get(context.Background(), "en.wikipedia.org")
	require.NoError(t, err)
	assert.Equal(t, "en.wikipedia.org", si.Domain)

	_, err = c.Get(context.Background(), "en.wikipedia.org")
	require.NoError(t, err)
	assert.Equal(t, int32(1), loader.calls.Load())
	assert.Equal(t, 1, c.Len())
}

func TestCache_ErrorsAreNotCached(t *testing.T) {
	loader := &countingLoader{err: errors.New("boom")}
	c := NewCache(loader, 10, time.Hour, time.Second, zerolog.Nop())

	_, err := c.Get(context.Background(), "en.wikipedia.org")
	assert.Error(t, err)
	_, err = c.Get(context.Background(), "en.wikipedia.org")
	assert.Error(t, err)

	assert.Equal(t, int32(2), loader.calls.Load())
	assert.Equal(t, 0, c.Len())
}

func TestCache_Expiry(t *testing.T) {
	loader := &countingLoader{}
	c := NewCache(loader, 10, 20*time.Millisecond, time.Second, zerolog.Nop())

	_, err := c.Get(context.Background(), "de.wikipedia.org")
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)
	_, err = c.Get(context.Background(), "de.wikipedia.org")
	require.NoError(t, err)

	assert.Equal(t, int32(2), loader.calls.Load())
}

func TestCache_Eviction(t *testing.T) {
	loader := &countingLoader{}
	c := NewCache(loader, 2, time.Hour, time.Second, zerolog.Nop())
	ctx := context.Background()

	for _, d := range []string{"a.wikipedia.org", "b.wikipedia.org", "c.wikipedia.org"} {
		_, err := c.Get(ctx, d)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, c.Len())

	c.Purge()
	assert.Equal(t, 0, c.Len())
}

func TestCache_ConcurrentMissesShareLoad(t *testing.T) {
	loader := &countingLoader{delay: 50 * time.Millisecond}
	c := NewCache(loader, 10, time.Hour, time.Second, zerolog.Nop())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Get(context.Background(), "fr.wikipedia.org")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), loader.calls.Load())
}

// blockingLoader returns once release is closed or its context ends
type blockingLoader struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
}

func newBlockingLoader() *blockingLoader {
	return &blockingLoader{started: make(chan struct{}, 1), release: make(chan struct{})}
}

func (l *blockingLoader) FetchSiteInfo(ctx context.Context, domain string) (*models.SiteInfo, error) {
	l.calls.Add(1)
	l.started <- struct{}{}
	select {
	case <-l.release:
		return &models.SiteInfo{Domain: domain, MainPage: "Main Page"}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestCache_CancelledCallerDoesNotFailSharedLoad(t *testing.T) {
	loader := newBlockingLoader()
	c := NewCache(loader, 10, time.Hour, time.Second, zerolog.Nop())

	firstCtx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	firstErr := make(chan error, 1)
	go func() {
		_, err := c.Get(firstCtx, "en.wikipedia.org")
		firstErr <- err
	}()
	<-loader.started

	type result struct {
		si  *models.SiteInfo
		err error
	}
	second := make(chan result, 1)
	go func() {
		si, err := c.Get(context.Background(), "en.wikipedia.org")
		second <- result{si, err}
	}()

	err := <-firstErr
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))

	close(loader.release)
	res := <-second
	require.NoError(t, res.err)
	assert.Equal(t, "en.wikipedia.org", res.si.Domain)
	assert.Equal(t, int32(1), loader.calls.Load())
	assert.Equal(t, 1, c.Len())
}

func TestCache_LoadTimeout(t *testing.T) {
	loader := newBlockingLoader()
	c := NewCache(loader, 10, time.Hour, 20*time.Millisecond, zerolog.Nop())

	_, err := c.Get(context.Background(), "en.wikipedia.org")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Equal(t, 0, c.Len())
}
