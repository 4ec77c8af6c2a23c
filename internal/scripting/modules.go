package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// RegisterModules registers all engine.* Lua tables into L.
//
// Precondition: L must be from NewSandboxedState.
// Postcondition: engine global is defined in L with a log sub-table.
func (m *Manager) RegisterModules(L *lua.LState) {
	engine := L.NewTable()
	L.SetField(engine, "log", m.newLogModule(L))
	L.SetGlobal("engine", engine)
}

// newLogModule returns engine.log: debug, info, warn and error, each taking a
// message and an optional table of string fields.
func (m *Manager) newLogModule(L *lua.LState) *lua.LTable {
	logger := m.logger.Named("lua")
	mod := L.NewTable()
	levels := map[string]func(string, ...zap.Field){
		"debug": logger.Debug,
		"info":  logger.Info,
		"warn":  logger.Warn,
		"error": logger.Error,
	}
	for name, logFn := range levels {
		logFn := logFn
		L.SetField(mod, name, L.NewFunction(func(L *lua.LState) int {
			msg := L.CheckString(1)
			var fields []zap.Field
			if tbl, ok := L.Get(2).(*lua.LTable); ok {
				tbl.ForEach(func(k, v lua.LValue) {
					fields = append(fields, zap.String(k.String(), v.String()))
				})
			}
			logFn(msg, fields...)
			return 0
		}))
	}
	return mod
}
