package keys

import "github.com/gdamore/tcell/v2"

// Action is a key binding. Key is tcell.KeyRune for printable keys, in
// which case Rune selects the character.
type Action struct {
	Name    string
	Key     tcell.Key
	Rune    rune
	Handler func()
}

// Matches returns true if the event matches this action.
func (a *Action) Matches(ev *tcell.EventKey) bool {
	if a.Key != tcell.KeyRune {
		return ev.Key() == a.Key
	}
	return ev.Key() == tcell.KeyRune && ev.Rune() == a.Rune
}

// Registry holds keybindings organized by scope. Bindings are matched in
// registration order, view scope before global scope.
type Registry struct {
	global []*Action
	views  map[string][]*Action
}

// NewRegistry creates a new keybinding registry.
func NewRegistry() *Registry {
	return &Registry{views: make(map[string][]*Action)}
}

// Rune is shorthand for a printable key binding.
func Rune(name string, r rune, handler func()) *Action {
	return &Action{Name: name, Key: tcell.KeyRune, Rune: r, Handler: handler}
}

// AddGlobal registers a binding active on every view.
func (r *Registry) AddGlobal(a *Action) {
	r.global = append(r.global, a)
}

// AddView registers a binding active on one view.
func (r *Registry) AddView(view string, a *Action) {
	r.views[view] = append(r.views[view], a)
}

// Lookup returns the action bound to ev on view, or nil.
func (r *Registry) Lookup(view string, ev *tcell.EventKey) *Action {
	for _, a := range r.views[view] {
		if a.Matches(ev) {
			return a
		}
	}
	for _, a := range r.global {
		if a.Matches(ev) {
			return a
		}
	}
	return nil
}

// HandleEvent runs the action bound to ev on view and reports whether one
// matched.
func (r *Registry) HandleEvent(view string, ev *tcell.EventKey) bool {
	a := r.Lookup(view, ev)
	if a == nil {
		return false
	}
	a.Handler()
	return true
}
