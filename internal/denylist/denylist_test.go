package denylist_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wikifeeds-api/internal/denylist"
	"github.com/wikifeeds-api/internal/models"
)

func TestIsAllowed(t *testing.T) {
	d := denylist.Default()

	tests := []struct {
		name   string
		locale string
		title  string
		want   bool
	}{
		{name: "universal entry", locale: "en", title: "Test_card", want: false},
		{name: "universal entry other locale", locale: "ja", title: "XHamster", want: false},
		{name: "locale entry on its locale", locale: "de", title: "Avantasia", want: false},
		{name: "locale entry on other locale", locale: "en", title: "Avantasia", want: true},
		{name: "case-sensitive", locale: "en", title: "test_card", want: true},
		{name: "spaces are not normalized at lookup", locale: "en", title: "Test card", want: true},
		{name: "ordinary title", locale: "en", title: "Albert_Einstein", want: true},
		{name: "non-latin locale entry", locale: "mzn", title: "کس", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, d.IsAllowed(tt.locale, tt.title))
		})
	}
}

func TestAdd_NormalizesAndDefaultsLocale(t *testing.T) {
	d := denylist.New(models.DenylistEntry{Title: "Some Title"})
	assert.False(t, d.IsAllowed("fr", "Some_Title"))
	assert.Equal(t, 1, d.Len())
}

func TestMerge(t *testing.T) {
	a := denylist.New(models.DenylistEntry{Locale: "en", Title: "A"})
	b := denylist.New(models.DenylistEntry{Locale: "*", Title: "B"})

	merged := a.Merge(b)
	assert.False(t, merged.IsAllowed("en", "A"))
	assert.False(t, merged.IsAllowed("en", "B"))
	assert.Equal(t, 2, merged.Len())
	// inputs untouched
	assert.Equal(t, 1, a.Len())
	assert.Equal(t, 1, b.Len())
}

func TestParseAndLoadFile(t *testing.T) {
	content := []byte(`
"*":
  - Spam_page
  - "  "
de:
  - Some title
`)
	path := filepath.Join(t.TempDir(), "denylist.yaml")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	d, err := denylist.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, d.Len())
	assert.False(t, d.IsAllowed("en", "Spam_page"))
	assert.False(t, d.IsAllowed("de", "Some_title"))
	assert.True(t, d.IsAllowed("en", "Some_title"))

	_, err = denylist.Parse([]byte("not: [valid"))
	assert.Error(t, err)

	_, err = denylist.LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLocaleFromDomain(t *testing.T) {
	assert.Equal(t, "de", denylist.LocaleFromDomain("de.wikipedia.org"))
	assert.Equal(t, "zh-yue", denylist.LocaleFromDomain("zh-yue.wikipedia.org"))
	assert.Equal(t, "localhost", denylist.LocaleFromDomain("localhost"))
}

type stubSource struct {
	entries []models.DenylistEntry
	err     error
	calls   int
}

func (s *stubSource) LoadAll(ctx context.Context) ([]models.DenylistEntry, error) {
	s.calls++
	return s.entries, s.err
}

func TestProvider_Refresh(t *testing.T) {
	src := &stubSource{entries: []models.DenylistEntry{{Locale: "en", Title: "Stored_title"}}}
	p := denylist.NewProvider(denylist.Default(), src, time.Minute, zerolog.Nop())

	assert.True(t, p.Current().IsAllowed("en", "Stored_title"))

	require.NoError(t, p.Refresh(context.Background()))
	assert.False(t, p.Current().IsAllowed("en", "Stored_title"))
	assert.False(t, p.Current().IsAllowed("en", "Test_card"))

	// a failed reload keeps the previous list
	src.err = errors.New("db down")
	assert.Error(t, p.Refresh(context.Background()))
	assert.False(t, p.Current().IsAllowed("en", "Stored_title"))
}

func TestProvider_WithoutSource(t *testing.T) {
	p := denylist.NewProvider(denylist.Default(), nil, time.Minute, zerolog.Nop())
	require.NoError(t, p.Refresh(context.Background()))
	assert.False(t, p.Current().IsAllowed("en", "Test_card"))

	// Start returns immediately when there is nothing to refresh
	p.Start(context.Background())
	p.Stop()
}

func TestProvider_StartStop(t *testing.T) {
	src := &stubSource{}
	p := denylist.NewProvider(nil, src, 5*time.Millisecond, zerolog.Nop())

	done := make(chan struct{})
	go func() {
		p.Start(context.Background())
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	p.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("refresher did not stop")
	}
}
