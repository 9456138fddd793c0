package quickcheck

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastParams() *gopter.TestParameters {
	params := gopter.DefaultTestParametersWithSeed(42)
	params.MinSuccessfulTests = 50

	return params
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name   string
		prop   any
		passed bool
	}{
		{
			name:   "commutative addition holds",
			prop:   func(a, b int) bool { return a+b == b+a },
			passed: true,
		},
		{
			name:   "double reversal holds",
			prop:   func(xs []int) bool { return equalInts(xs, reverse(reverse(xs))) },
			passed: true,
		},
		{
			name:   "single reversal is falsified",
			prop:   func(xs []int) bool { return equalInts(xs, reverse(xs)) },
			passed: false,
		},
		{
			name:   "zero-argument predicate",
			prop:   func() bool { return true },
			passed: true,
		},
		{
			name:   "true constant",
			prop:   true,
			passed: true,
		},
		{
			name:   "false constant",
			prop:   false,
			passed: false,
		},
		{
			name:   "gopter property",
			prop:   prop.ForAll(func(s string) bool { return len(s) >= 0 }, gen.AnyString()),
			passed: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			passed, report := Check(tt.prop, fastParams())

			assert.Equal(t, tt.passed, passed, report)
			assert.NotEmpty(t, report)
		})
	}
}

func TestCheck_RejectsNonFunctions(t *testing.T) {
	for _, p := range []any{nil, 42, "prop", (func(int) bool)(nil)} {
		passed, report := Check(p, fastParams())

		assert.False(t, passed)
		assert.Contains(t, report, ErrNotAFunction.Error())
	}
}

func TestCheck_NilParamsUseDefaults(t *testing.T) {
	passed, _ := Check(func(n int) bool { return n+0 == n }, nil)
	assert.True(t, passed)
}

func TestRun(t *testing.T) {
	t.Setenv(EnvTests, "20")

	assert.NotPanics(t, func() {
		Run(func(a, b int) bool { return a+b == b+a })
	})

	assert.Panics(t, func() {
		Run(func(n int) bool { return n+1 == n })
	})
}

func TestParameters(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv(EnvTests, "")
		t.Setenv(EnvSeed, "")
		t.Setenv(EnvMaxSize, "")

		params := Parameters()
		defaults := gopter.DefaultTestParameters()

		assert.Equal(t, defaults.MinSuccessfulTests, params.MinSuccessfulTests)
		assert.Equal(t, defaults.MaxSize, params.MaxSize)
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv(EnvTests, "7")
		t.Setenv(EnvSeed, "1234")
		t.Setenv(EnvMaxSize, "16")

		params := Parameters()

		assert.Equal(t, 7, params.MinSuccessfulTests)
		assert.Equal(t, int64(1234), params.Seed())
		assert.Equal(t, 16, params.MaxSize)
	})

	t.Run("malformed values are ignored", func(t *testing.T) {
		t.Setenv(EnvTests, "many")
		t.Setenv(EnvMaxSize, "-3")

		params := Parameters()
		require.NotNil(t, params)
		assert.Equal(t, gopter.DefaultTestParameters().MinSuccessfulTests, params.MinSuccessfulTests)
		assert.Equal(t, gopter.DefaultTestParameters().MaxSize, params.MaxSize)
	})
}

func reverse(xs []int) []int {
	out := make([]int, len(xs))
	for i, x := range xs {
		out[len(xs)-1-i] = x
	}

	return out
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}
