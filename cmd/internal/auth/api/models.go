package authapi

import "time"

type registerRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required"`
}

type userResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type sessionResponse struct {
	SessionID string    `json:"session_id"`
	Token     string    `json:"token,omitempty"`
	DeviceID  string    `json:"device_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

type deviceResponse struct {
	ID          string    `json:"id"`
	Class       string    `json:"device_class"`
	UserAgent   string    `json:"user_agent"`
	IP          string    `json:"ip_address"`
	Location    string    `json:"location"`
	IsActive    bool      `json:"is_active"`
	LastLoginAt time.Time `json:"last_login_at"`
	CreatedAt   time.Time `json:"created_at"`
}

type registerResponse struct {
	User userResponse `json:"user"`
}

type loginResponse struct {
	User    userResponse    `json:"user"`
	Session sessionResponse `json:"session"`
	Device  deviceResponse  `json:"device"`
}

type logoutResponse struct {
	Invalidated bool   `json:"invalidated"`
	Message     string `json:"message"`
}

type meResponse struct {
	User    userResponse    `json:"user"`
	Session sessionResponse `json:"session"`
}

type devicesResponse struct {
	Devices []deviceResponse `json:"devices"`
}

type deviceInfoResponse struct {
	UserAgent   string `json:"user_agent"`
	ClientIP    string `json:"client_ip"`
	DeviceClass string `json:"device_class"`
	Region      string `json:"region"`
	Country     string `json:"country"`
	Location    string `json:"location"`
}
