package httpinterface

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	log "github.com/sirupsen/logrus"
	"github.com/walletd/walletd/internal/core/application"
	"github.com/walletd/walletd/internal/core/domain"
	"github.com/walletd/walletd/pkg/wallet"
)

const maxBodySize = 1 << 20

// ErrBadRequest is returned for malformed request bodies
var ErrBadRequest = errors.New("bad request")

type operatorHandler struct {
	handle *application.Handle
}

// NewOperatorHandler returns the routes of the operator API
func NewOperatorHandler(handle *application.Handle) http.Handler {
	h := &operatorHandler{handle}

	router := httprouter.New()
	router.GET("/v1/session", h.getSession)
	router.POST("/v1/wallet", h.setWallet)
	router.POST("/v1/network", h.setNetwork)
	router.GET("/v1/networks", h.listNetworks)
	router.PUT("/v1/networks", h.setNetworks)
	router.Handler(http.MethodGet, "/metrics", promhttp.Handler())

	return cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler(router)
}

func (h *operatorHandler) getSession(
	w http.ResponseWriter, r *http.Request, _ httprouter.Params,
) {
	var res SessionResponse
	if err := h.handle.Do(r.Context(), func(s *application.Session) error {
		res = sessionResponse(s)
		return nil
	}); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *operatorHandler) setWallet(
	w http.ResponseWriter, r *http.Request, _ httprouter.Params,
) {
	var req SetWalletRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.DerivationPath == "" {
		req.DerivationPath = domain.DefaultDerivationPath
	}

	var res SessionResponse
	if err := h.handle.Do(r.Context(), func(s *application.Session) error {
		if err := s.SetWalletFromInfo(domain.WalletInfo{
			Mnemonic:       req.Mnemonic,
			DerivationPath: req.DerivationPath,
			Index:          req.Index,
		}); err != nil {
			return err
		}
		res = sessionResponse(s)
		return nil
	}); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *operatorHandler) setNetwork(
	w http.ResponseWriter, r *http.Request, _ httprouter.Params,
) {
	var req SetNetworkRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Name == "" && req.ChainID == 0 {
		writeError(w, fmt.Errorf("%w: either name or chain id is required", ErrBadRequest))
		return
	}

	var res SessionResponse
	if err := h.handle.Do(r.Context(), func(s *application.Session) error {
		var err error
		if req.Name != "" {
			err = s.SetCurrentNetwork(req.Name)
		} else {
			err = s.SetCurrentNetworkByID(req.ChainID)
		}
		if err != nil {
			return err
		}
		res = sessionResponse(s)
		return nil
	}); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *operatorHandler) listNetworks(
	w http.ResponseWriter, r *http.Request, _ httprouter.Params,
) {
	var networks []domain.Network
	if err := h.handle.Do(r.Context(), func(s *application.Session) error {
		networks = s.Networks()
		return nil
	}); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, networks)
}

func (h *operatorHandler) setNetworks(
	w http.ResponseWriter, r *http.Request, _ httprouter.Params,
) {
	var networks []domain.Network
	if err := decodeBody(w, r, &networks); err != nil {
		writeError(w, err)
		return
	}
	if len(networks) <= 0 {
		writeError(w, fmt.Errorf("%w: missing networks", ErrBadRequest))
		return
	}

	if err := h.handle.Do(r.Context(), func(s *application.Session) error {
		if err := s.SetNetworks(networks); err != nil {
			return err
		}
		networks = s.Networks()
		return nil
	}); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, networks)
}

func sessionResponse(s *application.Session) SessionResponse {
	w := s.Wallet()
	return SessionResponse{
		Wallet: WalletInfo{
			Address:        w.ChecksummedAddress(),
			DerivationPath: w.DerivationPath(),
			Index:          w.Index(),
			ChainID:        w.ChainID(),
		},
		CurrentNetwork: s.CurrentNetworkName(),
		Networks:       s.Networks(),
		Peers:          s.Peers().Addrs(),
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %s", ErrBadRequest, err)
	}
	return nil
}

func statusCode(err error) int {
	switch {
	case errors.Is(err, domain.ErrNetworkNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, wallet.ErrDerivation),
		errors.Is(err, domain.ErrInvalidNetwork),
		errors.Is(err, domain.ErrNullWallet):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusCode(err)
	if status >= http.StatusInternalServerError {
		log.WithError(err).Error("operator request failed")
	}
	writeJSON(w, status, ErrorResponse{err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Warn("failed to write response")
	}
}
