package ui

// MenuHint is one key shown in the header menu.
type MenuHint struct {
	Key         string
	Description string
	Numeric     bool
}

// Component is a page that can be pushed onto the page stack.
type Component interface {
	Name() string
	Init()
	Start()
	Stop()
	Hints() []MenuHint
}

// Hint builds a MenuHint for key.
func Hint(key, description string) MenuHint {
	return MenuHint{Key: key, Description: description}
}
