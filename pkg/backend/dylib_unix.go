//go:build (linux || darwin) && (amd64 || arm64)

package backend

import (
	"fmt"
	"unsafe"

	"github.com/ebitengine/purego"
)

// dylibDriver wraps a plugin shared library exposing the fixed C entry
// point table. The library handle and plugin context are released exactly
// once in Close.
type dylibDriver struct {
	lib uintptr

	initCtx       func() uintptr
	freeCtx       func(uintptr)
	loadModel     func(uintptr, string) uintptr
	unloadModel   func(uintptr, uintptr)
	generate      func(uintptr, uintptr, string, int32) uintptr
	freeString    func(uintptr)
	driverName    func() uintptr
	driverVersion func() uintptr

	ctx uintptr
}

func openLibrary(path string) (Driver, error) {
	if len(path) > MaxPathLen {
		return nil, ErrPathTooLong
	}
	lib, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return nil, err
	}

	d := &dylibDriver{lib: lib}
	symbols := []struct {
		name string
		fn   interface{}
	}{
		{"granville_init", &d.initCtx},
		{"granville_free", &d.freeCtx},
		{"granville_load_model", &d.loadModel},
		{"granville_unload_model", &d.unloadModel},
		{"granville_generate", &d.generate},
		{"granville_free_string", &d.freeString},
		{"granville_driver_name", &d.driverName},
		{"granville_driver_version", &d.driverVersion},
	}
	for _, sym := range symbols {
		purego.RegisterLibFunc(sym.fn, lib, sym.name)
	}

	d.ctx = d.initCtx()
	if d.ctx == 0 {
		_ = purego.Dlclose(lib)
		return nil, fmt.Errorf("plugin context initialization failed")
	}
	return d, nil
}

// goString copies a NUL-terminated C string into Go memory.
func goString(p uintptr) string {
	if p == 0 {
		return ""
	}
	var n uintptr
	for *(*byte)(unsafe.Pointer(p + n)) != 0 {
		n++
	}
	return string(unsafe.Slice((*byte)(unsafe.Pointer(p)), n))
}

func (d *dylibDriver) Name() string {
	return goString(d.driverName())
}

func (d *dylibDriver) Version() string {
	return goString(d.driverVersion())
}

func (d *dylibDriver) Load(path string) (Handle, error) {
	if len(path) > MaxPathLen {
		return nil, ErrPathTooLong
	}
	h := d.loadModel(d.ctx, path)
	if h == 0 {
		return nil, ErrModelLoadFailed
	}
	return h, nil
}

func (d *dylibDriver) Unload(h Handle) error {
	p, ok := h.(uintptr)
	if !ok {
		return fmt.Errorf("dylib: foreign handle %v", h)
	}
	d.unloadModel(d.ctx, p)
	return nil
}

func (d *dylibDriver) Generate(h Handle, prompt string, maxTokens int) (string, error) {
	p, ok := h.(uintptr)
	if !ok {
		return "", fmt.Errorf("dylib: foreign handle %v", h)
	}
	if len(prompt) > MaxPromptLen {
		return "", ErrPromptTooLong
	}
	out := d.generate(d.ctx, p, prompt, int32(maxTokens))
	if out == 0 {
		return "", fmt.Errorf("generation failed")
	}
	s := goString(out)
	d.freeString(out)
	return s, nil
}

func (d *dylibDriver) Close() error {
	if d.ctx != 0 {
		d.freeCtx(d.ctx)
		d.ctx = 0
	}
	if d.lib != 0 {
		err := purego.Dlclose(d.lib)
		d.lib = 0
		return err
	}
	return nil
}
