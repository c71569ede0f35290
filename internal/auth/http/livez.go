package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/authcore/pkg/authsdk"
	"github.com/aussiebroadwan/authcore/pkg/httpx"
)

// LivezHandler answers the liveness probe. It touches no dependency, so a
// 200 only means the process is serving; /readyz covers the store and
// signer.
//
//	@Summary		Liveness probe
//	@Description	Reports that the process is up, with its uptime and build version.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse	"status, uptime, version"
//	@Router			/livez [get].
func LivezHandler(started time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, authsdk.HealthResponse{
			Status:  "ok",
			Version: version,
			Uptime:  time.Since(started).Round(time.Second).String(),
		})
	}
}
