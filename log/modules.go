package log

import "slices"

type ModuleMask uint64
type Module uint

const (
	ModuleMaskAll ModuleMask = 0xFFFFFFFFFFFFFFFF
)

// Standard modules. Packages needing finer-grained control over their debug
// output can still register more with NewModule.
const (
	ModBits Module = iota + 1
	ModValue
	ModDevice
	ModMMap
	ModAPI
	ModCLI

	endStandardMods
)

var modCount = endStandardMods

var modDebugMask ModuleMask = 0

var modNames = []string{
	"<error>", "bits", "value", "device", "mmap", "api", "cli",
}

func NewModule(name string) Module {
	mod := modCount
	modCount++
	modNames = append(modNames, name)
	return mod
}

func ModuleByName(name string) (Module, bool) {
	for idx, s := range modNames {
		if idx != 0 && s == name {
			return Module(idx), true
		}
	}
	return Module(0xFFFFFFFF), false
}

// ModuleNames returns the names of all registered modules, sorted.
func ModuleNames() []string {
	names := slices.Clone(modNames[1:])
	slices.Sort(names)
	return names
}

// ParseModules converts a list of module names into a mask. "all" selects
// every module.
func ParseModules(names []string) (ModuleMask, error) {
	var mask ModuleMask
	for _, name := range names {
		if name == "all" {
			return ModuleMaskAll, nil
		}
		mod, ok := ModuleByName(name)
		if !ok {
			return 0, &UnknownModuleError{Name: name}
		}
		mask |= mod.Mask()
	}
	return mask, nil
}

type UnknownModuleError struct {
	Name string
}

func (e *UnknownModuleError) Error() string { return "unknown log module " + e.Name }

func EnableDebugModules(mask ModuleMask) {
	modDebugMask |= mask
}

func DisableDebugModules(mask ModuleMask) {
	modDebugMask &^= mask
}

func (mod Module) String() string {
	if int(mod) < len(modNames) {
		return modNames[mod]
	}
	return modNames[0]
}

func (mod Module) Mask() ModuleMask {
	return 1 << ModuleMask(mod)
}

func (mod Module) Enabled(level Level) bool {
	if disabled.Load() {
		return false
	}
	return level <= WarnLevel || modDebugMask&mod.Mask() != 0
}

func (mod Module) WithFields(fields Fields) Entry {
	return Entry{mod: mod}.WithFields(fields)
}

func (mod Module) WithField(key string, value any) Entry {
	return Entry{mod: mod}.WithField(key, value)
}

// printf-like family

func (mod Module) Debugf(format string, args ...any) {
	Entry{mod: mod}.Debugf(format, args...)
}

func (mod Module) Infof(format string, args ...any) {
	Entry{mod: mod}.Infof(format, args...)
}

func (mod Module) Warnf(format string, args ...any) {
	Entry{mod: mod}.Warnf(format, args...)
}

func (mod Module) Errorf(format string, args ...any) {
	Entry{mod: mod}.Errorf(format, args...)
}

func (mod Module) Fatalf(format string, args ...any) {
	Entry{mod: mod}.Fatalf(format, args...)
}

// Structured, allocation-light functions. They return nil when the level is
// disabled for the module, and all EntryZ methods accept a nil receiver.

func (mod Module) logz(lvl Level, msg string) *EntryZ {
	if mod.Enabled(lvl) {
		e := NewEntryZ()
		e.lvl = lvl
		e.msg = msg
		e.mod = mod
		return e
	}
	return nil
}

func (mod Module) DebugZ(msg string) *EntryZ { return mod.logz(DebugLevel, msg) }
func (mod Module) InfoZ(msg string) *EntryZ  { return mod.logz(InfoLevel, msg) }
func (mod Module) WarnZ(msg string) *EntryZ  { return mod.logz(WarnLevel, msg) }
func (mod Module) ErrorZ(msg string) *EntryZ { return mod.logz(ErrorLevel, msg) }
func (mod Module) FatalZ(msg string) *EntryZ { return mod.logz(FatalLevel, msg) }
