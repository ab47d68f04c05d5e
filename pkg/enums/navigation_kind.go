package enums

import "fmt"

// NavigationKind classifies an attempt to leave the current page.
type NavigationKind string

const (
	// NavigationRoute is an in-app route change.
	NavigationRoute NavigationKind = "route"
	// NavigationUnload is a tab close or reload.
	NavigationUnload NavigationKind = "unload"
	// NavigationBack is the browser back button.
	NavigationBack NavigationKind = "back"
)

var validNavigationKinds = []NavigationKind{
	NavigationRoute,
	NavigationUnload,
	NavigationBack,
}

// String implements fmt.Stringer.
func (n NavigationKind) String() string {
	return string(n)
}

// IsValid reports whether the value is a known NavigationKind.
func (n NavigationKind) IsValid() bool {
	for _, candidate := range validNavigationKinds {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNavigationKind converts raw input into a NavigationKind.
func ParseNavigationKind(value string) (NavigationKind, error) {
	for _, candidate := range validNavigationKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid navigation kind %q", value)
}
