package authapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"sessiond/cmd/identity"
	"sessiond/cmd/internal/auth"
	"sessiond/cmd/internal/auth/session"
	"sessiond/cmd/security/password"
)

// Handler wires HTTP auth endpoints to the auth service.
type Handler struct {
	log    *slog.Logger
	audits *slog.Logger
	cfg    Config

	svc    *auth.Service
	policy password.Config
}

// NewHandler constructs an auth Handler. policy is the password rule set
// applied to registrations.
func NewHandler(log *slog.Logger, svc *auth.Service, cfg Config, policy password.Config) (*Handler, error) {
	if svc == nil {
		return nil, errors.New("authapi: nil auth service")
	}
	if log == nil {
		log = slog.Default()
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultConfig().MaxBodyBytes
	}
	return &Handler{
		log:    log,
		audits: log.With("component", "audit"),
		cfg:    cfg,
		svc:    svc,
		policy: policy,
	}, nil
}

// Register wires auth routes onto the provided mux.
func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}
	mux.HandleFunc("/auth/register", h.handleRegister)
	mux.HandleFunc("/auth/login", h.handleLogin)
	mux.HandleFunc("/auth/logout", h.handleLogout)
	mux.HandleFunc("/auth/devices", h.handleDevices)
	mux.HandleFunc("/auth/device-info", h.handleDeviceInfo)
	mux.HandleFunc("/me", h.handleMe)
}

// ---- handlers ----

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req registerRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	if code, msg, ok := checkRegister(&req, h.policy); !ok {
		writeError(w, http.StatusBadRequest, code, msg)
		return
	}

	ctx := r.Context()
	u, err := h.svc.Register(ctx, req.Username, req.Email, req.Password)
	if err != nil {
		switch {
		case identity.IsConflict(err):
			writeError(w, http.StatusConflict, "conflict", "user already exists")
		case identity.IsInvalidInput(err):
			writeError(w, http.StatusBadRequest, "invalid_request", "invalid input")
		default:
			h.log.Error("auth.register.fail", "err", err)
			writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		}
		return
	}

	h.auditRegistered(ctx, u.ID, clientIP(r, h.cfg.TrustProxy), r.UserAgent())
	writeJSON(w, http.StatusCreated, registerResponse{User: toUserResponse(u)})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	ip := clientIP(r, h.cfg.TrustProxy)
	ua := strings.TrimSpace(r.UserAgent())

	var req loginRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	if code, msg, ok := checkLogin(&req); !ok {
		writeError(w, http.StatusBadRequest, code, msg)
		return
	}

	res, err := h.svc.Login(ctx, req.Email, req.Password, ua, ipString(ip))
	if err != nil {
		switch {
		case identity.IsInvalidCredentials(err):
			h.auditLoginFailed(ctx, ip, ua, "invalid_credentials")
			writeError(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials")
		case identity.IsInvalidInput(err):
			writeError(w, http.StatusBadRequest, "invalid_request", "invalid input")
		default:
			writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		}
		return
	}

	h.auditLoginSuccess(ctx, res.User.ID, res.SessionID, res.Device.ID, ip, ua)
	writeJSON(w, http.StatusOK, toLoginResponse(res))
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	ip := clientIP(r, h.cfg.TrustProxy)
	ua := r.UserAgent()

	err := h.svc.Logout(ctx, bearerToken(r))
	switch {
	case err == nil:
		h.auditLogout(ctx, true, ip, ua)
		writeJSON(w, http.StatusOK, logoutResponse{Invalidated: true, Message: "logout successful"})
	case errors.Is(err, session.ErrNothingToInvalidate):
		h.auditLogout(ctx, false, ip, ua)
		writeJSON(w, http.StatusOK, logoutResponse{Invalidated: false, Message: "session not found or already invalidated"})
	default:
		h.writeSessionError(w, err)
	}
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	p, ok := h.requireAuth(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, meResponse{
		User: toUserResponse(p.User),
		Session: sessionResponse{
			SessionID: p.Claims.SessionID,
			DeviceID:  p.Claims.DeviceID,
			ExpiresAt: p.Claims.ExpiresAt,
		},
	})
}

func (h *Handler) handleDevices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	p, ok := h.requireAuth(w, r)
	if !ok {
		return
	}
	list, err := h.svc.Devices(r.Context(), p.User.ID)
	if err != nil {
		h.log.Error("auth.devices.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	out := devicesResponse{Devices: make([]deviceResponse, 0, len(list))}
	for _, d := range list {
		out.Devices = append(out.Devices, toDeviceResponse(d))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleDeviceInfo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	info := h.svc.DescribeClient(r.Context(), r.UserAgent(), ipString(clientIP(r, h.cfg.TrustProxy)))
	writeJSON(w, http.StatusOK, toDeviceInfoResponse(info))
}

// ---- helpers ----

func (h *Handler) requireAuth(w http.ResponseWriter, r *http.Request) (auth.Principal, bool) {
	p, err := h.svc.Authenticate(r.Context(), bearerToken(r))
	if err != nil {
		h.writeSessionError(w, err)
		return auth.Principal{}, false
	}
	return p, true
}

func (h *Handler) writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
	case errors.Is(err, session.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
	case errors.Is(err, session.ErrSessionRevoked), errors.Is(err, session.ErrSessionExpired):
		writeError(w, http.StatusUnauthorized, "session_not_active", "session not active")
	default:
		h.log.Error("auth.session.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
	}
}
