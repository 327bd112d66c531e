package main

import (
	"net/http"

	"go.uber.org/zap"
)

// adminHandler backs POST /admin/schema/refresh: an operator-triggered
// drop of every cached schema (golden, per-role privileges, per-role
// compiled schema), forcing the next request on each role to rebuild from
// the live database. No request body; no auth of its own, same trust
// boundary as the rest of this build (spec.md §1).
type adminHandler struct {
	schemas *roleSchemas
	log     *zap.SugaredLogger
}

func newAdminHandler(schemas *roleSchemas, log *zap.SugaredLogger) *adminHandler {
	return &adminHandler{schemas: schemas, log: log}
}

func (a *adminHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.schemas.Invalidate()
	a.log.Info("schema cache invalidated")
	w.WriteHeader(http.StatusNoContent)
}
