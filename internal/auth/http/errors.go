package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/authcore/internal/auth/service"
	"github.com/aussiebroadwan/authcore/pkg/httpx"
	"github.com/aussiebroadwan/authcore/pkg/slogx"
)

// writeServiceError maps a service error onto a status code. Only the
// client-safe Message leaves the process; the cause goes to the log.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	log := slogx.FromContext(r.Context())

	var se *service.Error
	if errors.As(err, &se) {
		switch se.Kind {
		case service.KindUnauthorized:
			log.Info("request unauthorized", "err", se.Err)
			httpx.WriteError(w, http.StatusUnauthorized, se.Message)
			return
		case service.KindNotFound:
			log.Debug("request not found", "err", se.Err)
			httpx.WriteError(w, http.StatusNotFound, se.Message)
			return
		case service.KindValidation:
			httpx.WriteError(w, http.StatusBadRequest, se.Message)
			return
		}
	}

	log.Error("request failed", "err", err)
	httpx.WriteError(w, http.StatusInternalServerError, "Internal server error")
}

func writeBadRequest(w http.ResponseWriter, r *http.Request, err error) {
	slogx.FromContext(r.Context()).Debug("bad request", "err", err)
	httpx.WriteError(w, http.StatusBadRequest, err.Error())
}
