package spesh

// ObjType stands in for a 6model type object. The real type/method
// resolution machinery is out of scope for this package (spec §1); all
// the optimizer needs from a type is something comparable it can hand
// to the ObjectModel oracle.
type ObjType struct {
	Name string
}

// Method stands in for a resolved method object. Spesh slots hold
// arbitrary heap references; a Method is one of the kinds this
// optimizer ever pins into a slot.
type Method struct {
	Name string
}

// ObjectModel is the black-box 6model oracle named in spec §6. Both
// methods are required to be side-effect free and must never raise:
// an indeterminate answer is reported through the (ok bool) /
// (decidable bool) return, not an error.
type ObjectModel interface {
	// FindMethodCacheOnly resolves name on t using only the method
	// cache, never falling back to a full MRO walk. ok is false if the
	// cache cannot answer.
	FindMethodCacheOnly(t *ObjType, name string) (m Method, ok bool)

	// TryCacheTypeCheck decides whether a value of type objType is also
	// of type targetType, using only cached information. decidable is
	// false if the cache cannot answer without side effects; in that
	// case result is meaningless.
	TryCacheTypeCheck(objType, targetType *ObjType) (result int, decidable bool)
}
