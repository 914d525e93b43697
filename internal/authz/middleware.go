// Copyright (c) 2026 Hireline. All rights reserved.

package authz

import (
	"net/http"

	"github.com/hireline/hireline/internal/platform/constants"
	"github.com/hireline/hireline/internal/platform/respond"
)

// Require returns a chi-compatible middleware that runs the full decision
// chain for the given resource and action before admitting the request.
//
// # Usage
//
//	router.With(guard.Require("Roles And Permissions", authz.ActionCreate)).
//		Post("/", handler.create)
//
// On allow, the resolved [*Actor] is attached to the request context; on deny,
// the request is terminated with the decision's status code and reason string.
func (guard *Guard) Require(resourceName string, action Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			header := request.Header.Get(constants.HeaderAuthorization)

			actor, err := guard.Authorize(request.Context(), header, resourceName, action)
			if err != nil {
				respond.Error(writer, request, err)
				return
			}

			ctx := WithActor(request.Context(), actor)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// RequireAuthenticated admits any caller holding a valid access token without
// consulting the permission matrix. Used for endpoints that act on the
// caller's own account (logout, change-password).
func (guard *Guard) RequireAuthenticated() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			header := request.Header.Get(constants.HeaderAuthorization)

			actor, err := guard.Authenticate(request.Context(), header)
			if err != nil {
				respond.Error(writer, request, err)
				return
			}

			ctx := WithActor(request.Context(), actor)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}
