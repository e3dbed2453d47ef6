// Package controller exposes the services over HTTP.
package controller

import (
	"net/http"
	"strconv"

	"github.com/unclebandit/collab-engine/internal/auth"
	appErrors "github.com/unclebandit/collab-engine/internal/errors"
	"github.com/unclebandit/collab-engine/internal/model"
)

// actor returns the authenticated caller. Routes behind auth.Middleware always have one.
func actor(r *http.Request) (model.Actor, error) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		return model.Actor{}, appErrors.NewUnauthorized("authentication required")
	}
	return id.Actor(), nil
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
