package api

import (
	"log"
	"net/http"

	"github.com/jslink/jslink/internal/model"
	"github.com/jslink/jslink/internal/store"
)

// NetworkSettingsPayload is the update body for the settings singleton.
type NetworkSettingsPayload struct {
	AutoProxy  bool    `json:"auto_proxy"`
	HTTPProxy  *string `json:"http_proxy"`
	HTTPSProxy *string `json:"https_proxy"`
	NoProxy    *string `json:"no_proxy"`
}

// HandleGetNetworkSettings returns a handler for GET /api/settings/network.
func HandleGetNetworkSettings(s *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		settings, err := s.GetNetworkSettings()
		if err != nil {
			writeStoreError(w, err, "Network settings")
			return
		}
		WriteJSON(w, http.StatusOK, settings)
	}
}

// HandleUpdateNetworkSettings returns a handler for PUT /api/settings/network.
func HandleUpdateNetworkSettings(s *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload NetworkSettingsPayload
		if err := DecodeBody(r, &payload); err != nil {
			writeDecodeBodyError(w, err)
			return
		}

		settings, err := s.UpdateNetworkSettings(model.NetworkSettings{
			ID:         1,
			AutoProxy:  payload.AutoProxy,
			HTTPProxy:  payload.HTTPProxy,
			HTTPSProxy: payload.HTTPSProxy,
			NoProxy:    payload.NoProxy,
		})
		if err != nil {
			writeStoreError(w, err, "Network settings")
			return
		}
		log.Printf("[api] network settings updated: auto_proxy=%v", settings.AutoProxy)
		WriteJSON(w, http.StatusOK, settings)
	}
}
