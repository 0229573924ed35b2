// Package guard decides, per navigation, whether a route renders, waits for
// the session to resolve, or redirects. Guards are pure functions of the
// session state and the target route.
package guard

import (
	"strings"

	"github.com/naveenspark/protasker/internal/session"
)

// Route is an application path such as "/projects/42".
type Route string

const (
	RouteHome       Route = "/"
	RouteLogin      Route = "/login"
	RouteRegister   Route = "/register"
	RouteProjects   Route = "/projects"
	RouteNewProject Route = "/projects/new"
)

// Landing is where authenticated users are sent from public-only pages.
const Landing = RouteProjects

// ProjectRoute returns the details route for a project.
func ProjectRoute(id string) Route {
	return Route("/projects/" + id)
}

// EditProjectRoute returns the edit form route for a project.
func EditProjectRoute(id string) Route {
	return Route("/projects/" + id + "/edit")
}

// Kind names the screen a route resolves to.
type Kind int

const (
	KindNotFound Kind = iota
	KindHome
	KindLogin
	KindRegister
	KindProjects
	KindProject
	KindNewProject
	KindEditProject
)

// Match splits a route into its screen kind and project id (if any).
func (r Route) Match() (Kind, string) {
	path := strings.TrimSuffix(string(r), "/")
	if path == "" {
		return KindHome, ""
	}
	switch Route(path) {
	case RouteLogin:
		return KindLogin, ""
	case RouteRegister:
		return KindRegister, ""
	case RouteProjects:
		return KindProjects, ""
	case RouteNewProject:
		return KindNewProject, ""
	}
	rest, ok := strings.CutPrefix(path, string(RouteProjects)+"/")
	if !ok || rest == "" {
		return KindNotFound, ""
	}
	parts := strings.Split(rest, "/")
	switch {
	case len(parts) == 1:
		return KindProject, parts[0]
	case len(parts) == 2 && parts[1] == "edit" && parts[0] != "":
		return KindEditProject, parts[0]
	}
	return KindNotFound, ""
}

// ProjectID returns the project id embedded in the route, or "".
func (r Route) ProjectID() string {
	_, id := r.Match()
	return id
}

// Action is what the caller should do with a route.
type Action int

const (
	// Loading means the session is still Unknown: show a placeholder, never redirect.
	Loading Action = iota
	Render
	Redirect
)

// Decision is a guard's verdict.
type Decision struct {
	Action Action
	// To is the redirect target when Action is Redirect.
	To Route
	// From is the originally requested route, kept for post-login return.
	From Route
}

// RequireAuth lets only authenticated sessions through.
func RequireAuth(state session.State, target Route) Decision {
	switch state {
	case session.Unknown:
		return Decision{Action: Loading}
	case session.Anonymous:
		return Decision{Action: Redirect, To: RouteLogin, From: target}
	default:
		return Decision{Action: Render}
	}
}

// PublicOnly sends authenticated sessions to the landing page.
func PublicOnly(state session.State, _ Route) Decision {
	switch state {
	case session.Unknown:
		return Decision{Action: Loading}
	case session.Authenticated:
		return Decision{Action: Redirect, To: Landing}
	default:
		return Decision{Action: Render}
	}
}

// Policy is a guard function.
type Policy func(session.State, Route) Decision

// PolicyFor returns the guard that protects kind, or nil for unguarded screens.
func PolicyFor(kind Kind) Policy {
	switch kind {
	case KindHome, KindLogin, KindRegister:
		return PublicOnly
	case KindProjects, KindProject, KindNewProject, KindEditProject:
		return RequireAuth
	}
	return nil
}

// Resolve applies the route table to target.
func Resolve(state session.State, target Route) Decision {
	kind, _ := target.Match()
	policy := PolicyFor(kind)
	if policy == nil {
		return Decision{Action: Render}
	}
	return policy(state, target)
}
