package navguard

import (
	"sync"

	"github.com/angelmondragon/marketplace-storefront/pkg/enums"
)

const (
	LeavePrompt = "A payment is being processed. Leaving now may leave your order incomplete. Are you sure you want to leave?"
	BackAlert   = "Please wait while your payment is being processed."
)

// Guard keeps the visitor on the checkout page while a payment is in flight.
type Guard struct {
	currentURL  string
	onAbandoned func(Attempt)

	once        sync.Once
	disposables []Disposable
}

// Activate registers the route, unload and back handlers on shell.
// onAbandoned runs when a visitor confirms leaving mid-payment; it may be nil.
func Activate(shell Shell, currentURL string, onAbandoned func(Attempt)) *Guard {
	g := &Guard{currentURL: currentURL, onAbandoned: onAbandoned}
	if shell == nil {
		return g
	}
	g.disposables = []Disposable{
		shell.OnBeforeLeave(enums.NavigationRoute, g.onRoute),
		shell.OnBeforeLeave(enums.NavigationUnload, g.onUnload),
		shell.OnBeforeLeave(enums.NavigationBack, g.onBack),
	}
	return g
}

// Release disposes every registration. Safe to call more than once.
func (g *Guard) Release() {
	if g == nil {
		return
	}
	g.once.Do(func() {
		for _, d := range g.disposables {
			if d != nil {
				d.Dispose()
			}
		}
		g.disposables = nil
	})
}

func (g *Guard) onRoute(attempt Attempt) Verdict {
	if attempt.Confirmed {
		if g.onAbandoned != nil {
			g.onAbandoned(attempt)
		}
		return Allowed
	}
	return Verdict{Allow: false, Prompt: LeavePrompt}
}

func (g *Guard) onUnload(Attempt) Verdict {
	return Verdict{Allow: false, ReturnValue: LeavePrompt}
}

func (g *Guard) onBack(attempt Attempt) Verdict {
	repush := g.currentURL
	if repush == "" {
		repush = attempt.From
	}
	return Verdict{Allow: false, RepushURL: repush, Alert: BackAlert}
}
