// Package scope decides which document, if any, a chat message is about.
package scope

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// ViewerRoute is the document viewer route. The in-document assistant and
// the floating widget recover their scope from it, so changing the route
// shape means changing this pattern.
const ViewerRoute = "/policy/{id}"

// Scope is a document id; the zero value means a general question.
type Scope string

const General Scope = ""

func (s Scope) IsGeneral() bool { return s == General }

func (s Scope) String() string {
	if s.IsGeneral() {
		return "general"
	}
	return string(s)
}

// Resolver matches navigation paths against the viewer route.
type Resolver struct {
	routes *chi.Mux
}

func NewResolver() *Resolver {
	mux := chi.NewRouter()
	mux.Get(ViewerRoute, func(http.ResponseWriter, *http.Request) {})
	mux.Get(ViewerRoute+"/*", func(http.ResponseWriter, *http.Request) {})
	return &Resolver{routes: mux}
}

// Resolve returns the explicit selection when there is one, otherwise the
// document id in path, otherwise General. It has no memory: callers resolve
// again on every send because navigation may have changed.
func (r *Resolver) Resolve(path string, explicit string) Scope {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		return Scope(explicit)
	}
	return r.FromPath(path)
}

// FromPath extracts the document id from a viewer path such as
// "/policy/abc123" or "/policy/abc123?tab=chat".
func (r *Resolver) FromPath(path string) Scope {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		return General
	}

	rctx := chi.NewRouteContext()
	if !r.routes.Match(rctx, http.MethodGet, path) {
		return General
	}
	return Scope(rctx.URLParam("id"))
}
