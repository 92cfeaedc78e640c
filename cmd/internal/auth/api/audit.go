package authapi

import (
	"context"
	"log/slog"
	"net"
	"strings"
)

// audit emits one security event with the client context attached. Tokens
// and passwords never reach this function.
func (h *Handler) audit(ctx context.Context, action string, ip net.IP, ua string, attrs ...slog.Attr) {
	if h == nil || h.audits == nil {
		return
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return
	}

	all := make([]slog.Attr, 0, len(attrs)+3)
	all = append(all, slog.String("action", action))
	if ip != nil {
		all = append(all, slog.String("ip", ip.String()))
	}
	if ua = strings.TrimSpace(ua); ua != "" {
		all = append(all, slog.String("user_agent", ua))
	}
	all = append(all, attrs...)
	h.audits.LogAttrs(ctx, slog.LevelInfo, "audit", all...)
}

func (h *Handler) auditRegistered(ctx context.Context, userID string, ip net.IP, ua string) {
	h.audit(ctx, "auth.register", ip, ua, slog.String("user_id", userID))
}

func (h *Handler) auditLoginFailed(ctx context.Context, ip net.IP, ua, reason string) {
	h.audit(ctx, "auth.login.failed", ip, ua, slog.String("reason", reason))
}

func (h *Handler) auditLoginSuccess(ctx context.Context, userID, sessionID, deviceID string, ip net.IP, ua string) {
	h.audit(ctx, "auth.login.success", ip, ua,
		slog.String("user_id", userID),
		slog.String("session_id", sessionID),
		slog.String("device_id", deviceID),
	)
}

func (h *Handler) auditLogout(ctx context.Context, invalidated bool, ip net.IP, ua string) {
	h.audit(ctx, "auth.logout", ip, ua, slog.Bool("invalidated", invalidated))
}
