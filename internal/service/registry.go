package service

// StaticRegistry is a ModuleTypeRegistry backed by a static map of
// module type to allowed root keys. A type with an empty key list
// accepts any root key; unknown types reject everything.
type StaticRegistry struct {
	Types map[string][]string
}

// NewStaticRegistry builds a registry from configured module types
func NewStaticRegistry(types map[string][]string) *StaticRegistry {
	return &StaticRegistry{Types: types}
}

// ValidateFieldPath reports whether the root key is editable for the
// module type
func (r *StaticRegistry) ValidateFieldPath(moduleType, rootKey string) bool {
	if len(r.Types) == 0 {
		return true
	}
	keys, ok := r.Types[moduleType]
	if !ok {
		return false
	}
	if len(keys) == 0 {
		return true
	}
	for _, k := range keys {
		if k == rootKey {
			return true
		}
	}
	return false
}
