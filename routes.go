/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/julienschmidt/httprouter"
)

const maxGameIDLength = 128

// View renders one page. Params are nil unless the route forwards them.
type View func(w http.ResponseWriter, r *http.Request, p httprouter.Params)

// Route binds a path pattern to a view. Patterns use httprouter syntax.
type Route struct {
	Path            string
	Name            string
	View            View
	PropsFromParams bool
}

// GameInput is everything the game view receives from its URL.
type GameInput struct {
	GameID string
}

// routeTable is built once at startup and never modified.
type routeTable struct {
	routes []Route

	// one router per route, so a match can be traced back to its Route
	matchers []*httprouter.Router
}

// newRouteTable rejects any set of routes httprouter would refuse to serve
// together.
func newRouteTable(routes ...Route) (*routeTable, error) {
	all := httprouter.New()

	t := &routeTable{
		routes:   append([]Route(nil), routes...),
		matchers: make([]*httprouter.Router, 0, len(routes)),
	}

	for _, route := range routes {
		if !strings.HasPrefix(route.Path, "/") {
			return nil, fmt.Errorf("route %q: path must start with /: %q", route.Name, route.Path)
		}
		if route.View == nil {
			return nil, fmt.Errorf("route %q: no view", route.Name)
		}

		if err := registerGET(all, route.Path, nil); err != nil {
			return nil, fmt.Errorf("route %q: %w", route.Name, err)
		}

		matcher := httprouter.New()
		if err := registerGET(matcher, route.Path, nil); err != nil {
			return nil, fmt.Errorf("route %q: %w", route.Name, err)
		}
		t.matchers = append(t.matchers, matcher)
	}

	return t, nil
}

// registerGET turns httprouter's registration panics into errors. A nil
// handle registers a placeholder.
func registerGET(mux *httprouter.Router, path string, handle httprouter.Handle) (err error) {
	if handle == nil {
		handle = func(http.ResponseWriter, *http.Request, httprouter.Params) {}
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("cannot serve %q: %v", path, r)
		}
	}()

	mux.GET(path, handle)

	return nil
}

func (t *routeTable) Routes() []Route {
	return append([]Route(nil), t.routes...)
}

// Resolve returns the route serving path.
func (t *routeTable) Resolve(path string) (Route, httprouter.Params, bool) {
	if !strings.HasPrefix(path, "/") {
		return Route{}, nil, false
	}

	for i, matcher := range t.matchers {
		handle, params, _ := matcher.Lookup(http.MethodGet, path)
		if handle == nil {
			continue
		}

		route := t.routes[i]
		if !route.PropsFromParams {
			params = nil
		}

		return route, params, true
	}

	return Route{}, nil, false
}

// install registers every route as a GET handler on mux.
func (t *routeTable) install(cfg *Config, mux *httprouter.Router) error {
	for _, route := range t.routes {
		if err := registerGET(mux, cfg.prefix+route.Path, t.handle(cfg, route)); err != nil {
			return fmt.Errorf("route %q: %w", route.Name, err)
		}

		logf(cfg, "ROUTE: %s%s -> %s", cfg.prefix, route.Path, route.Name)
	}

	return nil
}

func (t *routeTable) handle(cfg *Config, route Route) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		startTime := time.Now()

		if !route.PropsFromParams {
			p = nil
		}

		route.View(w, r, p)

		logf(cfg, "SERVE: %s view for %s to %s in %s",
			route.Name,
			r.URL.Path,
			realIP(r),
			time.Since(startTime).Round(time.Microsecond),
		)
	}
}

func parseGameInput(p httprouter.Params) (GameInput, error) {
	id := p.ByName("gameId")

	switch {
	case id == "":
		return GameInput{}, fmt.Errorf("%w: empty", ErrInvalidGameID)
	case len(id) > maxGameIDLength:
		return GameInput{}, fmt.Errorf("%w: longer than %d bytes", ErrInvalidGameID, maxGameIDLength)
	case !utf8.ValidString(id):
		return GameInput{}, fmt.Errorf("%w: not valid utf-8", ErrInvalidGameID)
	case strings.ContainsFunc(id, unicode.IsControl):
		return GameInput{}, fmt.Errorf("%w: contains control characters", ErrInvalidGameID)
	}

	return GameInput{GameID: id}, nil
}

// withGameInput converts route params into a GameInput before the view runs.
func withGameInput(cfg *Config, view func(http.ResponseWriter, *http.Request, GameInput)) View {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		in, err := parseGameInput(p)
		if err != nil {
			serveStatusPage(cfg, w, http.StatusBadRequest, err.Error())

			return
		}

		view(w, r, in)
	}
}

func withoutInput(view func(http.ResponseWriter, *http.Request)) View {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		view(w, r)
	}
}
