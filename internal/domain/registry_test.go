package domain

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	m "qcgen.dev/pkg/qcgen/internal/model"
)

func TestRegistry_Register(t *testing.T) {
	reg := NewRegistry()

	require.NoError(t, RegisterQuickcheck(reg, NewExpander("", "")))

	modifier, ok := reg.Lookup(QuickcheckAttribute)
	require.True(t, ok)

	res := modifier(markerSpan, function("p"))
	assert.True(t, res.Replaced)

	_, ok = reg.Lookup("missing")
	assert.False(t, ok)
}

func TestRegistry_RejectsDuplicates(t *testing.T) {
	reg := NewRegistry()

	require.NoError(t, RegisterQuickcheck(reg, NewExpander("", "")))

	err := RegisterQuickcheck(reg, NewExpander("", ""))
	require.ErrorIs(t, err, ErrDuplicateModifier)
	assert.Contains(t, err.Error(), QuickcheckAttribute)
}

func TestRegistry_RejectsInvalid(t *testing.T) {
	reg := NewRegistry()
	noop := func(_ m.Span, d m.Declaration) ExpansionResult { return Replace(d) }

	assert.Error(t, reg.Register("", noop))
	assert.Error(t, reg.Register("name", nil))
	assert.Empty(t, reg.Names())
}

func TestRegistry_Names(t *testing.T) {
	reg := NewRegistry()
	noop := func(_ m.Span, d m.Declaration) ExpansionResult { return Replace(d) }

	require.NoError(t, reg.Register("zeta", noop))
	require.NoError(t, reg.Register("alpha", noop))
	require.NoError(t, RegisterQuickcheck(reg, NewExpander("", "")))

	assert.Equal(t, []string{"alpha", QuickcheckAttribute, "zeta"}, reg.Names())
}

func TestRegistry_ConcurrentLookup(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, RegisterQuickcheck(reg, NewExpander("", "")))

	var wg sync.WaitGroup

	for range 16 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			modifier, ok := reg.Lookup(QuickcheckAttribute)
			if assert.True(t, ok) {
				assert.True(t, modifier(markerSpan, static("s")).Replaced)
			}
		}()
	}

	wg.Wait()
}
