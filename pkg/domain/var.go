package domain

// Var is a named, flow-scoped cell. The handle is shared by the states of a flow
// and its descendants; values live in per-session storage keyed by the owning flow,
// so concurrent sessions of the same flow definition never observe each other.
type Var struct {
	Owner string
	Name  string
}

// NewVar mints a Var owned by the given flow.
func NewVar(owner Flow, name string) Var {
	return Var{Owner: owner.Name(), Name: name}
}

func (v Var) String() string { return v.Owner + "." + v.Name }

// Get returns the value of the var in the session (nil when unset).
func (v Var) Get(s *Session) any {
	val, _ := v.Lookup(s)
	return val
}

// Lookup returns the value of the var and whether it was set.
func (v Var) Lookup(s *Session) (any, bool) {
	scope, ok := s.vars[v.Owner]
	if !ok {
		return nil, false
	}
	val, ok := scope[v.Name]
	return val, ok
}

// Set writes the value into the owning flow's storage.
func (v Var) Set(s *Session, value any) {
	scope, ok := s.vars[v.Owner]
	if !ok {
		scope = make(map[string]any)
		s.vars[v.Owner] = scope
	}
	scope[v.Name] = value
}

// ValueOf returns the typed value of a var.
func ValueOf[T any](s *Session, v Var) (T, bool) {
	var zero T
	raw, ok := v.Lookup(s)
	if !ok {
		return zero, false
	}
	typed, ok := raw.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}
