package server

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/gaborage/go-proposals/config"
)

// RouteRegistrar is the part of Echo's routing the api package needs. The
// server hands out registrars rooted at its base path.
type RouteRegistrar interface {
	Add(method, path string, handler echo.HandlerFunc, middleware ...echo.MiddlewareFunc) *echo.Route
	Group(prefix string, middleware ...echo.MiddlewareFunc) RouteRegistrar
	FullPath(path string) string
}

type routeGroup struct {
	group  *echo.Group
	prefix string
}

func newRouteGroup(group *echo.Group, prefix string) RouteRegistrar {
	return &routeGroup{group: group, prefix: normalizePrefix(prefix)}
}

func (rg *routeGroup) Add(method, path string, handler echo.HandlerFunc, middleware ...echo.MiddlewareFunc) *echo.Route {
	return rg.group.Add(method, relativePath(path), handler, middleware...)
}

func (rg *routeGroup) Group(prefix string, middleware ...echo.MiddlewareFunc) RouteRegistrar {
	normalized := normalizePrefix(prefix)
	return &routeGroup{
		group:  rg.group.Group(normalized, middleware...),
		prefix: rg.prefix + normalized,
	}
}

// FullPath returns path as the router sees it, base path included.
func (rg *routeGroup) FullPath(path string) string {
	full := rg.prefix + relativePath(path)
	if full == "" {
		return "/"
	}
	return full
}

func relativePath(path string) string {
	if path == "" || path == "/" {
		return ""
	}
	if !strings.HasPrefix(path, "/") {
		return "/" + path
	}
	return path
}

func normalizePrefix(prefix string) string {
	if prefix == "" || prefix == "/" {
		return ""
	}
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	return strings.TrimRight(prefix, "/")
}

// RegisterHandler wraps handler with WrapHandler and adds it to r.
func RegisterHandler[T any, R any](r RouteRegistrar, cfg *config.Config, method, path string, handler HandlerFunc[T, R]) {
	r.Add(method, path, WrapHandler(handler, cfg))
}

// GET registers a typed GET handler.
func GET[T any, R any](r RouteRegistrar, cfg *config.Config, path string, handler HandlerFunc[T, R]) {
	RegisterHandler(r, cfg, http.MethodGet, path, handler)
}

// POST registers a typed POST handler.
func POST[T any, R any](r RouteRegistrar, cfg *config.Config, path string, handler HandlerFunc[T, R]) {
	RegisterHandler(r, cfg, http.MethodPost, path, handler)
}

// PUT registers a typed PUT handler.
func PUT[T any, R any](r RouteRegistrar, cfg *config.Config, path string, handler HandlerFunc[T, R]) {
	RegisterHandler(r, cfg, http.MethodPut, path, handler)
}

// DELETE registers a typed DELETE handler.
func DELETE[T any, R any](r RouteRegistrar, cfg *config.Config, path string, handler HandlerFunc[T, R]) {
	RegisterHandler(r, cfg, http.MethodDelete, path, handler)
}
