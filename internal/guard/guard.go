// Package guard decides whether navigation to a view may proceed.
package guard

// Routes known to the client.
const (
	RouteLogin  = "/login"
	RouteSignup = "/signup"
	RouteTasks  = "/tasks"
)

// Outcome is the result of a route decision.
type Outcome int

const (
	// Pending means the session has not been restored yet. Render nothing.
	Pending Outcome = iota
	// Allow means the view may be rendered.
	Allow
	// Redirect means navigation goes to Decision.Target instead.
	Redirect
)

func (o Outcome) String() string {
	switch o {
	case Allow:
		return "allow"
	case Redirect:
		return "redirect"
	default:
		return "pending"
	}
}

// Decision is returned by Decide.
type Decision struct {
	Outcome Outcome
	Target  string // set when Outcome is Redirect
}

// SessionState is the part of the session store the guard reads.
type SessionState interface {
	Restored() bool
	IsAuthenticated() bool
}

// Public reports whether path is reachable without a session.
func Public(path string) bool {
	return path == RouteLogin || path == RouteSignup
}

// Protected reports whether path needs a session.
func Protected(path string) bool {
	return path == RouteTasks
}

// Decide returns the navigation decision for path given the session state.
func Decide(s SessionState, path string) Decision {
	switch {
	case Public(path):
		return Decision{Outcome: Allow}
	case !Protected(path):
		return Decision{Outcome: Redirect, Target: RouteLogin}
	case !s.Restored():
		return Decision{Outcome: Pending}
	case s.IsAuthenticated():
		return Decision{Outcome: Allow}
	default:
		return Decision{Outcome: Redirect, Target: RouteLogin}
	}
}
