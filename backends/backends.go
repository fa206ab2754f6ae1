// Package backends defines the interface a zernigo computation backend needs to
// implement, and the registry from which the active backend is selected once at
// startup.
//
// Two implementations ship with zernigo: the accelerated gonum/BLAS based one
// (backends/blas) and the plain portable Go one (backends/numgo). Import them for
// their side effect of registering themselves:
//
//	import (
//		_ "github.com/YigitElma/zernigo/backends/blas"
//		_ "github.com/YigitElma/zernigo/backends/numgo"
//	)
//
// To simplify error handling, constructors and backend methods are expected to
// throw (panic) with a stack trace in case of errors.
// See package github.com/gomlx/exceptions.
package backends

import (
	"os"
	"sort"
	"strings"

	"github.com/gomlx/exceptions"
	"golang.org/x/exp/maps"
	"k8s.io/klog/v2"

	"github.com/YigitElma/zernigo/types/tensor"
)

// TensorFunc is a function from tensors to a tensor, the unit wrapped by Jit and
// ExecuteOnCPU.
type TensorFunc func(args ...*tensor.Tensor) *tensor.Tensor

// Backend is the API a zernigo backend implements. The array primitives mirror
// the accelerated framework's surface; the portable backend substitutes plain
// loops with identical semantics.
type Backend interface {
	// Name returns the short name of the backend, e.g. "blas" or "numgo".
	Name() string

	// Description is a longer description of the Backend that can be used to pretty-print.
	Description() string

	// Accelerated reports whether this backend runs on accelerated numeric
	// kernels (as opposed to the plain portable fallback).
	Accelerated() bool

	// NumDevices returns the number of devices of the given kind available to
	// this backend.
	NumDevices(kind DeviceKind) int

	// Put returns arr with arr[inds[i]] overwritten by the i-th value, all other
	// positions unchanged. arr is treated as flat for indexing purposes. The
	// input tensor is not modified.
	Put(arr *tensor.Tensor, inds []int, vals *tensor.Tensor) *tensor.Tensor

	// Sign returns +1 where x >= 0 and -1 where x < 0. Note the boundary: zero
	// maps to +1, not 0.
	Sign(x *tensor.Tensor) *tensor.Tensor

	// Vmap returns the vectorized version of fn: applied to a tensor it maps fn
	// over the slices along axis 0 and stacks the results with the mapped axis
	// placed at outAxis. A negative outAxis counts from the end of the result's
	// shape, -1 placing the mapped axis last.
	Vmap(fn func(*tensor.Tensor) *tensor.Tensor, outAxis int) func(*tensor.Tensor) *tensor.Tensor

	// Select returns onTrue where pred is non-zero and onFalse elsewhere. All
	// three tensors must have the same shape.
	Select(pred, onTrue, onFalse *tensor.Tensor) *tensor.Tensor

	// Bincount counts occurrences of each value in x, returning a vector of the
	// given length. Values outside [0, length) are ignored.
	Bincount(x []int, length int) *tensor.Tensor

	// GammaLn returns the natural log of the absolute value of the Gamma
	// function, elementwise.
	GammaLn(x *tensor.Tensor) *tensor.Tensor

	// Exp returns e**x, elementwise.
	Exp(x *tensor.Tensor) *tensor.Tensor

	// Linspace returns num evenly spaced values from start to stop, inclusive.
	// num of 1 returns just start, 0 an empty vector; a negative num panics.
	Linspace(start, stop float64, num int) *tensor.Tensor

	// Jit returns fn optimized for repeated calls. The portable backend returns
	// fn unchanged.
	Jit(fn TensorFunc) TensorFunc

	// ExecuteOnCPU returns fn pinned to the CPU device, even when the backend
	// selected a GPU. The portable backend returns fn unchanged.
	ExecuteOnCPU(fn TensorFunc) TensorFunc

	// CustomJVP attaches the adjacent-order derivative rule to an order-indexed
	// radial function. See OrderedFunc for the rule.
	CustomJVP(fn OrderedFunc) *Differentiable

	// Finalize releases all the associated resources immediately, and makes the backend invalid.
	Finalize()
}

// Constructor takes a config string (optionally empty) and returns a Backend.
// It panics (see gomlx/exceptions) if the backend cannot be constructed.
type Constructor func(config string) Backend

var (
	registeredConstructors = make(map[string]Constructor)
	firstRegistered        string
)

// Register backend with the given name, and a default constructor that takes as
// input a configuration string that is passed along to the backend constructor.
//
// To be safe, call Register during initialization of a package.
func Register(name string, constructor Constructor) {
	if len(registeredConstructors) == 0 {
		firstRegistered = name
	}
	registeredConstructors[name] = constructor
}

// List returns the names of the registered backends, sorted.
func List() []string {
	names := maps.Keys(registeredConstructors)
	sort.Strings(names)
	return names
}

// DefaultConfig is the backend configuration to use if the environment variable
// is not set. See NewWithConfig for the format of the configuration string.
var DefaultConfig string

// ConfigEnvVar is the environment variable with the default backend
// configuration to use.
//
// The format of config is "<backend_name>:<backend_configuration>".
// "<backend_name>" is the name of a registered backend (e.g.: "blas") and
// "<backend_configuration>" is backend specific (e.g.: for the blas backend, the
// device preference).
const ConfigEnvVar = "ZERNIGO_BACKEND"

// FallbackName is the backend New downgrades to when the preferred backend
// cannot be constructed -- the plain portable Go backend.
const FallbackName = "numgo"

// New returns a new Backend, selected once from configuration.
//
// The selection is:
//
//  1. The environment variable ZERNIGO_BACKEND is used as a configuration if defined.
//  2. Next the variable DefaultConfig is used as a configuration if defined.
//  3. Next the yaml preferences file pointed at by ZERNIGO_CONFIG, if set.
//  4. The first registered backend is used with an empty configuration.
//
// If the selected backend fails to construct itself (the accelerated kernels or
// their devices are unavailable) and the fallback backend is registered, New
// logs a warning and downgrades to the fallback. It returns an error only when
// no backend could be constructed at all.
func New() (Backend, error) {
	config, found := os.LookupEnv(ConfigEnvVar)
	if !found {
		config = DefaultConfig
	}
	if config == "" {
		if fileConfig, fileErr := FileConfigFromEnv(); fileErr == nil {
			config = fileConfig.ConfigString()
		} else {
			klog.Warningf("Ignoring backend preferences file: %v", fileErr)
		}
	}
	var backend Backend
	err := exceptions.TryCatch[error](func() { backend = NewWithConfig(config) })
	if err == nil {
		return backend, nil
	}
	name, _, _ := strings.Cut(config, ":")
	if name == FallbackName || registeredConstructors[FallbackName] == nil {
		return nil, err
	}
	klog.Warningf("Failed to load backend %q, falling back to %q: %v", nonEmptyName(name), FallbackName, err)
	if err = exceptions.TryCatch[error](func() { backend = NewWithConfig(FallbackName) }); err != nil {
		return nil, err
	}
	return backend, nil
}

// MustNew returns a new Backend and panics if none could be constructed.
func MustNew() Backend {
	backend, err := New()
	if err != nil {
		panic(err)
	}
	return backend
}

// NewWithConfig takes a configuration string formatted as
// "<backend_name>:<backend_configuration>" and constructs the named backend.
// An empty backend name selects the first registered backend. Unlike New, it
// does not fall back: it panics if the named backend cannot be constructed.
func NewWithConfig(config string) Backend {
	if len(registeredConstructors) == 0 {
		exceptions.Panicf(`no registered backends for zernigo -- maybe import the default ones with import _ "github.com/YigitElma/zernigo/backends/blas" and _ "github.com/YigitElma/zernigo/backends/numgo"?`)
	}
	backendName := firstRegistered
	backendConfig := config
	if idx := strings.Index(config, ":"); idx != -1 {
		backendName = config[:idx]
		backendConfig = config[idx+1:]
	} else if config != "" {
		backendName = config
		backendConfig = ""
	}
	if backendName == "" {
		backendName = firstRegistered
	}
	constructor, found := registeredConstructors[backendName]
	if !found {
		exceptions.Panicf("can't find backend %q for configuration %q given: registered backends are %q", backendName, config, List())
	}
	return constructor(backendConfig)
}

func nonEmptyName(name string) string {
	if name == "" {
		return firstRegistered
	}
	return name
}
