package dependency

import "sync"

// Entry is one bucket slot: a dependency that is either already
// normalized or still behind a provider thunk, plus the mutation
// actions attached to this specific declaration.
//
// Force is memoized: the provider is invoked at most once and the
// actions are applied at most once, no matter how many resolution
// domains reference the entry.
type Entry struct {
	dep      Dependency
	provider Provider
	actions  []MutationAction

	once      sync.Once
	effective Dependency
	forceErr  error
}

// NewEntry normalizes the notation eagerly unless it is a provider, in
// which case normalization is wrapped in a deferred thunk. Eager
// normalization never triggers resolution.
func NewEntry(notation any, actions ...MutationAction) (*Entry, error) {
	e := &Entry{actions: actions}
	switch p := notation.(type) {
	case Provider:
		e.provider = p
		return e, nil
	case func() (any, error):
		e.provider = p
		return e, nil
	}
	dep, err := Normalize(notation)
	if err != nil {
		return nil, err
	}
	e.dep = dep
	return e, nil
}

// Deferred reports whether the entry still holds an unforced provider.
func (e *Entry) Deferred() bool {
	return e.provider != nil
}

// Force yields the effective dependency: the provider invoked and
// normalized if present, then the mutation actions applied in
// declaration order. The result (or error) is memoized.
func (e *Entry) Force() (Dependency, error) {
	e.once.Do(func() {
		dep := e.dep
		if e.provider != nil {
			var err error
			dep, err = Normalize(e.provider)
			if err != nil {
				e.forceErr = err
				return
			}
		}
		for _, action := range e.actions {
			dep = action(dep)
		}
		e.effective = dep
	})
	return e.effective, e.forceErr
}
