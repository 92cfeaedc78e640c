package authapi

import (
	"net"
	"net/http"
	"strings"

	"sessiond/cmd/identity"
	"sessiond/cmd/internal/auth"
	"sessiond/cmd/internal/device"
)

func toUserResponse(u identity.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

func toDeviceResponse(d device.Device) deviceResponse {
	return deviceResponse{
		ID:          d.ID,
		Class:       string(d.Class),
		UserAgent:   d.UserAgent,
		IP:          d.IP,
		Location:    d.Location,
		IsActive:    d.IsActive,
		LastLoginAt: d.LastLoginAt,
		CreatedAt:   d.CreatedAt,
	}
}

func toLoginResponse(res auth.LoginResult) loginResponse {
	return loginResponse{
		User: toUserResponse(res.User),
		Session: sessionResponse{
			SessionID: res.SessionID,
			Token:     res.Token,
			DeviceID:  res.Device.ID,
			ExpiresAt: res.ExpiresAt,
		},
		Device: toDeviceResponse(res.Device),
	}
}

func toDeviceInfoResponse(info device.Info) deviceInfoResponse {
	return deviceInfoResponse{
		UserAgent:   info.UserAgent,
		ClientIP:    info.IP,
		DeviceClass: string(info.Class),
		Region:      info.Location.Region,
		Country:     info.Location.Country,
		Location:    info.Location.String(),
	}
}

func bearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return ""
	}
	parts := strings.SplitN(raw, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func clientIP(r *http.Request, trustProxy bool) net.IP {
	if trustProxy {
		if ip := parseForwardedIP(r.Header.Get("X-Forwarded-For")); ip != nil {
			return ip
		}
		if ip := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-IP"))); ip != nil {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil {
		if ip := net.ParseIP(host); ip != nil {
			return ip
		}
	}
	return nil
}

func parseForwardedIP(raw string) net.IP {
	if raw == "" {
		return nil
	}
	for _, p := range strings.Split(raw, ",") {
		if ip := net.ParseIP(strings.TrimSpace(p)); ip != nil {
			return ip
		}
	}
	return nil
}

// ipString renders ip for lookups and logs; nil becomes "".
func ipString(ip net.IP) string {
	if ip == nil {
		return ""
	}
	return ip.String()
}
