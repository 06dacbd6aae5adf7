package router

import (
	"sort"
	"strings"

	"github.com/valyala/fasthttp"
)

// Router dispatches fasthttp requests by method and path pattern. Patterns
// are slash separated; a {name} segment matches any single segment and is
// stored as a user value on the request context.
type Router struct {
	routes           map[string][]route
	notFound         fasthttp.RequestHandler
	methodNotAllowed fasthttp.RequestHandler
}

type route struct {
	pattern  string
	segments []segment
	handler  fasthttp.RequestHandler
}

type segment struct {
	name    string
	isParam bool
}

func New() *Router {
	return &Router{routes: make(map[string][]route)}
}

// Handler is the fasthttp entry point.
func (r *Router) Handler(ctx *fasthttp.RequestCtx) {
	parts := split(string(ctx.Path()))
	if rt, params, ok := r.lookup(string(ctx.Method()), parts); ok {
		for k, v := range params {
			ctx.SetUserValue(k, v)
		}
		rt.handler(ctx)
		return
	}
	if r.pathKnown(parts) {
		if r.methodNotAllowed != nil {
			r.methodNotAllowed(ctx)
			return
		}
		ctx.SetStatusCode(fasthttp.StatusMethodNotAllowed)
		return
	}
	if r.notFound != nil {
		r.notFound(ctx)
		return
	}
	ctx.SetStatusCode(fasthttp.StatusNotFound)
}

func (r *Router) GET(pattern string, h fasthttp.RequestHandler) {
	r.Handle(fasthttp.MethodGet, pattern, h)
}
func (r *Router) POST(pattern string, h fasthttp.RequestHandler) {
	r.Handle(fasthttp.MethodPost, pattern, h)
}
func (r *Router) PUT(pattern string, h fasthttp.RequestHandler) {
	r.Handle(fasthttp.MethodPut, pattern, h)
}

// Handle registers h for method and pattern. Routes are tried in
// registration order.
func (r *Router) Handle(method, pattern string, h fasthttp.RequestHandler) {
	r.routes[method] = append(r.routes[method], route{pattern: pattern, segments: compile(pattern), handler: h})
}

func (r *Router) NotFound(h fasthttp.RequestHandler)         { r.notFound = h }
func (r *Router) MethodNotAllowed(h fasthttp.RequestHandler) { r.methodNotAllowed = h }

// Routes lists "METHOD pattern" for every registered route, sorted.
func (r *Router) Routes() []string {
	var out []string
	for m, list := range r.routes {
		for _, rt := range list {
			out = append(out, m+" "+rt.pattern)
		}
	}
	sort.Strings(out)
	return out
}

func (r *Router) lookup(method string, parts []string) (route, map[string]string, bool) {
	for _, rt := range r.routes[method] {
		if params, ok := match(parts, rt.segments); ok {
			return rt, params, true
		}
	}
	return route{}, nil, false
}

func (r *Router) pathKnown(parts []string) bool {
	for _, list := range r.routes {
		for _, rt := range list {
			if _, ok := match(parts, rt.segments); ok {
				return true
			}
		}
	}
	return false
}

func split(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

func compile(pattern string) []segment {
	parts := split(pattern)
	segs := make([]segment, len(parts))
	for i, p := range parts {
		if len(p) > 2 && p[0] == '{' && p[len(p)-1] == '}' {
			segs[i] = segment{name: p[1 : len(p)-1], isParam: true}
		} else {
			segs[i] = segment{name: p}
		}
	}
	return segs
}

func match(parts []string, segs []segment) (map[string]string, bool) {
	if len(parts) != len(segs) {
		return nil, false
	}
	params := map[string]string{}
	for i, seg := range segs {
		switch {
		case seg.isParam:
			if parts[i] == "" {
				return nil, false
			}
			params[seg.name] = parts[i]
		case seg.name != parts[i]:
			return nil, false
		}
	}
	return params, true
}
