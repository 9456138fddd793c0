// Package quickcheck is the runner called by tests generated by qcgen.
//
// A generated test hands its property to Run, which checks it against
// random inputs drawn from gopter's default arbitraries and panics with
// the gopter report when the property is falsified.
package quickcheck

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/arbitrary"
)

// Environment variables read by Parameters.
const (
	EnvTests   = "QUICKCHECK_TESTS"
	EnvSeed    = "QUICKCHECK_SEED"
	EnvMaxSize = "QUICKCHECK_GENERATOR_SIZE"
)

// ErrNotAFunction is returned for properties that are neither a function,
// a gopter.Prop nor a bool.
var ErrNotAFunction = errors.New("property is not a function")

// Run checks prop with Parameters and panics if it does not hold.
func Run(prop any) {
	ok, report := Check(prop, Parameters())
	if !ok {
		panic(report)
	}
}

// Check checks prop with params and returns whether it held together with
// the gopter report.
//
// prop is either a gopter.Prop, a bool, or a function whose parameters have
// default arbitraries and whose result is bool, string, *gopter.PropResult,
// optionally followed by an error.
func Check(prop any, params *gopter.TestParameters) (bool, string) {
	if params == nil {
		params = Parameters()
	}

	p, err := toProp(prop)
	if err != nil {
		return false, err.Error()
	}

	result := p.Check(params)

	var out bytes.Buffer

	reporter := gopter.NewFormatedReporter(true, 75, &out)
	reporter.ReportTestResult(propertyName(prop), result)

	return result.Passed(), out.String()
}

// Parameters returns gopter's defaults overridden by the QUICKCHECK_*
// environment variables. Malformed values are ignored.
func Parameters() *gopter.TestParameters {
	params := gopter.DefaultTestParameters()

	if n, ok := envInt(EnvTests); ok && n > 0 {
		params.MinSuccessfulTests = n
	}

	if n, ok := envInt(EnvMaxSize); ok && n > 0 {
		params.MaxSize = n
	}

	if seed, err := strconv.ParseInt(os.Getenv(EnvSeed), 10, 64); err == nil {
		params.SetSeed(seed)
	}

	return params
}

func envInt(key string) (int, bool) {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return 0, false
	}

	return n, true
}

func toProp(prop any) (gopter.Prop, error) {
	switch p := prop.(type) {
	case nil:
		return nil, fmt.Errorf("%w: nil", ErrNotAFunction)
	case gopter.Prop:
		return p, nil
	case bool:
		return constProp(p), nil
	}

	v := reflect.ValueOf(prop)
	if v.Kind() != reflect.Func {
		return nil, fmt.Errorf("%w: %T", ErrNotAFunction, prop)
	}

	if v.IsNil() {
		return nil, fmt.Errorf("%w: nil %T", ErrNotAFunction, prop)
	}

	return arbitrary.DefaultArbitraries().ForAll(prop), nil
}

func constProp(held bool) gopter.Prop {
	return func(*gopter.GenParameters) *gopter.PropResult {
		if held {
			return &gopter.PropResult{Status: gopter.PropProof}
		}

		return &gopter.PropResult{Status: gopter.PropFalse}
	}
}

func propertyName(prop any) string {
	if _, ok := prop.(gopter.Prop); ok {
		return "property"
	}

	return fmt.Sprintf("%T", prop)
}
