// Package oracle supplies a concrete ObjectModel for running the
// optimizer outside of a real VM: the CLI, the LSP server, and the
// DSL front end's end-to-end tests all need an oracle, but the real
// 6model type/method resolution machinery is out of scope for this
// module (spec §1). StaticObjectModel is a small in-memory stand-in,
// not a reimplementation of MoarVM's object model.
package oracle

import "spesh/internal/spesh"

// StaticObjectModel resolves methods and type checks from tables built
// ahead of time, the way a toy interpreter's class table would. It
// never performs a fallback MRO walk and never raises: both methods on
// spesh.ObjectModel report indeterminacy through their bool return
// instead.
type StaticObjectModel struct {
	methods    map[string]map[string]spesh.Method
	subtypeOf  map[string]map[string]bool
	knownTypes map[string]bool
}

// New creates an empty StaticObjectModel.
func New() *StaticObjectModel {
	return &StaticObjectModel{
		methods:    make(map[string]map[string]spesh.Method),
		subtypeOf:  make(map[string]map[string]bool),
		knownTypes: make(map[string]bool),
	}
}

// DefineMethod registers that t has a method named name, resolvable
// from the cache alone.
func (m *StaticObjectModel) DefineMethod(t *spesh.ObjType, name string, method spesh.Method) {
	m.knownTypes[t.Name] = true
	row, ok := m.methods[t.Name]
	if !ok {
		row = make(map[string]spesh.Method)
		m.methods[t.Name] = row
	}
	row[name] = method
}

// DefineSubtype records the decidable answer for "is objType an
// instance of targetType". Any (objType, targetType) pair not
// registered here is reported as indeterminate, except a type checked
// against a type of the same name, which is always decided true.
func (m *StaticObjectModel) DefineSubtype(objType, targetType *spesh.ObjType, isSubtype bool) {
	m.knownTypes[objType.Name] = true
	m.knownTypes[targetType.Name] = true
	row, ok := m.subtypeOf[objType.Name]
	if !ok {
		row = make(map[string]bool)
		m.subtypeOf[objType.Name] = row
	}
	row[targetType.Name] = isSubtype
}

// FindMethodCacheOnly implements spesh.ObjectModel.
func (m *StaticObjectModel) FindMethodCacheOnly(t *spesh.ObjType, name string) (spesh.Method, bool) {
	if t == nil {
		return spesh.Method{}, false
	}
	row, ok := m.methods[t.Name]
	if !ok {
		return spesh.Method{}, false
	}
	meth, ok := row[name]
	return meth, ok
}

// TryCacheTypeCheck implements spesh.ObjectModel.
func (m *StaticObjectModel) TryCacheTypeCheck(objType, targetType *spesh.ObjType) (int, bool) {
	if objType == nil || targetType == nil {
		return 0, false
	}
	if objType.Name == targetType.Name {
		return 1, true
	}
	row, ok := m.subtypeOf[objType.Name]
	if !ok {
		return 0, false
	}
	isSub, ok := row[targetType.Name]
	if !ok {
		return 0, false
	}
	if isSub {
		return 1, true
	}
	return 0, true
}
