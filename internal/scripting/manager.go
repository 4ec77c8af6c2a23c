package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// globalZoneID is the reserved key for shared scripts loaded via LoadGlobal.
// CallHook falls back to this VM when no zone VM is found.
const globalZoneID = "__global__"

// vm is one sandboxed LState. LStates are single-threaded, so every use holds mu.
type vm struct {
	mu        sync.Mutex
	L         *lua.LState
	instLimit int
}

// Manager owns one sandboxed LState per zone and exposes hook dispatch.
// A zone is a named group of scripts, typically one per action catalogue.
//
// Manager is safe for concurrent use. Calls into the same zone are serialized;
// different zones run concurrently.
type Manager struct {
	mu     sync.RWMutex
	vms    map[string]*vm
	logger *zap.Logger
}

// NewManager creates a Manager.
//
// Precondition: logger must be non-nil.
// Postcondition: Returns a non-nil Manager with an empty zone map.
func NewManager(logger *zap.Logger) *Manager {
	if logger == nil {
		panic("scripting.NewManager: logger must not be nil")
	}
	return &Manager{
		vms:    make(map[string]*vm),
		logger: logger,
	}
}

// LoadZone creates a sandboxed VM for zoneID, registers all engine.* modules,
// then executes every *.lua file in scriptDir in lexicographic order.
// instLimit bounds every later hook call individually; 0 uses DefaultInstructionLimit.
//
// Precondition: zoneID must be non-empty; scriptDir must be a readable directory.
// Postcondition: Zone VM is registered, replacing any previous one; returns
// error on Lua load failure.
func (m *Manager) LoadZone(zoneID, scriptDir string, instLimit int) error {
	if zoneID == "" {
		return fmt.Errorf("scripting: zone id must not be empty")
	}
	return m.loadInto(zoneID, scriptDir, instLimit)
}

// LoadGlobal creates the "__global__" VM for shared scripts accessible
// as a CallHook fallback from any zone.
//
// Precondition: scriptDir must be a readable directory.
// Postcondition: Global VM is registered; returns error on Lua load failure.
func (m *Manager) LoadGlobal(scriptDir string, instLimit int) error {
	return m.loadInto(globalZoneID, scriptDir, instLimit)
}

// LoadZoneSource is LoadZone for a single in-memory chunk.
func (m *Manager) LoadZoneSource(zoneID, name, src string, instLimit int) error {
	if zoneID == "" {
		return fmt.Errorf("scripting: zone id must not be empty")
	}
	L := NewSandboxedState()
	m.RegisterModules(L)
	err := WithInstructionLimit(L, instLimit, func() error {
		fn, err := L.Load(strings.NewReader(src), name)
		if err != nil {
			return err
		}
		L.Push(fn)
		return L.PCall(0, lua.MultRet, nil)
	})
	if err != nil {
		L.Close()
		return fmt.Errorf("scripting: loading %q for %q: %w", name, zoneID, err)
	}
	m.register(zoneID, &vm{L: L, instLimit: instLimit})
	return nil
}

func (m *Manager) loadInto(key, scriptDir string, instLimit int) error {
	entries, err := os.ReadDir(scriptDir)
	if err != nil {
		return fmt.Errorf("scripting: reading script dir %q for %q: %w", scriptDir, key, err)
	}

	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			luaFiles = append(luaFiles, filepath.Join(scriptDir, e.Name()))
		}
	}
	sort.Strings(luaFiles)

	L := NewSandboxedState()
	m.RegisterModules(L)
	for _, path := range luaFiles {
		if err := WithInstructionLimit(L, instLimit, func() error { return L.DoFile(path) }); err != nil {
			L.Close()
			return fmt.Errorf("scripting: loading %q for %q: %w", path, key, err)
		}
	}

	m.register(key, &vm{L: L, instLimit: instLimit})
	m.logger.Debug("scripting: zone loaded",
		zap.String("zone", key),
		zap.Int("files", len(luaFiles)),
	)
	return nil
}

func (m *Manager) register(key string, v *vm) {
	m.mu.Lock()
	old := m.vms[key]
	m.vms[key] = v
	m.mu.Unlock()
	if old != nil {
		old.mu.Lock()
		old.L.Close()
		old.mu.Unlock()
	}
}

// lookup returns zoneID's VM, falling back to the global VM.
func (m *Manager) lookup(zoneID string) *vm {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if v, ok := m.vms[zoneID]; ok {
		return v
	}
	return m.vms[globalZoneID]
}

// HasHook reports whether hook is a function defined in zoneID's VM or the global VM.
func (m *Manager) HasHook(zoneID, hook string) bool {
	v := m.lookup(zoneID)
	if v == nil {
		return false
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.L.GetGlobal(hook).Type() == lua.LTFunction
}

// CallHook calls the named Lua global function in zoneID's VM. If the zone has
// no VM, the __global__ VM is tried as a fallback. Returns (LNil, nil) if the
// hook is not defined or no VM exists. Lua runtime errors, including an
// exhausted instruction budget, are logged at Warn level and never propagated.
//
// Precondition: args must be valid lua.LValue instances.
// Postcondition: Returns the first return value of the hook, or LNil.
func (m *Manager) CallHook(zoneID, hook string, args ...lua.LValue) (lua.LValue, error) {
	return m.call(zoneID, hook, func(*lua.LState) []lua.LValue { return args })
}

// CallFactsHook calls hook with a table mapping each fact name to its truth
// value, followed by args.
//
// Postcondition: Same as CallHook.
func (m *Manager) CallFactsHook(zoneID, hook string, facts map[string]bool, args ...lua.LValue) (lua.LValue, error) {
	return m.call(zoneID, hook, func(L *lua.LState) []lua.LValue {
		tbl := L.CreateTable(0, len(facts))
		for name, v := range facts {
			tbl.RawSetString(name, lua.LBool(v))
		}
		return append([]lua.LValue{tbl}, args...)
	})
}

func (m *Manager) call(zoneID, hook string, argsFn func(*lua.LState) []lua.LValue) (lua.LValue, error) {
	v := m.lookup(zoneID)
	if v == nil {
		m.logger.Info("scripting: no VM for zone",
			zap.String("zone", zoneID),
			zap.String("hook", hook),
		)
		return lua.LNil, nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	L := v.L

	fn := L.GetGlobal(hook)
	if fn == lua.LNil {
		return lua.LNil, nil
	}

	err := WithInstructionLimit(L, v.instLimit, func() error {
		return L.CallByParam(lua.P{
			Fn:      fn,
			NRet:    1,
			Protect: true,
		}, argsFn(L)...)
	})
	if err != nil {
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("zone", zoneID),
			zap.String("hook", hook),
			zap.Error(err),
		)
		return lua.LNil, nil
	}

	ret := L.Get(-1)
	L.Pop(1)
	return ret, nil
}

// Close releases every VM. Later CallHook calls find no zone and return LNil.
func (m *Manager) Close() {
	m.mu.Lock()
	vms := m.vms
	m.vms = make(map[string]*vm)
	m.mu.Unlock()
	for _, v := range vms {
		v.mu.Lock()
		v.L.Close()
		v.mu.Unlock()
	}
}
