package navguard

import (
	"github.com/angelmondragon/marketplace-storefront/pkg/enums"
)

// Attempt is one try to leave the current page.
type Attempt struct {
	Kind enums.NavigationKind `json:"kind" validate:"required,oneof=route unload back"`
	From string               `json:"from,omitempty"`
	To   string               `json:"to,omitempty"`
	// Confirmed is set once the visitor accepted the leave prompt.
	Confirmed bool `json:"confirmed"`
}

// Verdict tells the shell what to do with an Attempt.
type Verdict struct {
	Allow bool `json:"allow"`
	// Prompt is shown in a confirmation dialog; retrying with Confirmed lets the visitor through.
	Prompt string `json:"prompt,omitempty"`
	// ReturnValue is assigned to the beforeunload event so the browser shows its own dialog.
	ReturnValue string `json:"returnValue,omitempty"`
	// RepushURL is pushed back onto history to undo a back navigation.
	RepushURL string `json:"repushUrl,omitempty"`
	Alert     string `json:"alert,omitempty"`
}

// Allowed is the verdict when nothing objects.
var Allowed = Verdict{Allow: true}

// Handler decides one Attempt.
type Handler func(Attempt) Verdict

// Disposable releases a registration.
type Disposable interface {
	Dispose()
}

// Shell is the capability the hosting page provides for blocking navigation.
type Shell interface {
	OnBeforeLeave(kind enums.NavigationKind, handler Handler) Disposable
}

type disposeFunc func()

func (f disposeFunc) Dispose() { f() }
