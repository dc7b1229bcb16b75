package authapi

import (
	"net"
	"strings"
)

// Audit events go to the structured log rather than a database table.
// The attribute shape is stable so log pipelines can index on it.

func (h *Handler) auditLoginFailed(ip net.IP, ua, identifier, reason string) {
	h.log.Warn("auth.login.fail",
		"identifier", identifier,
		"reason", reason,
		"ip", ipString(ip),
		"user_agent", strings.TrimSpace(ua),
	)
}

func (h *Handler) auditLoginSuccess(userID string, ip net.IP, ua, identifier string) {
	h.log.Info("auth.login.success",
		"user_id", userID,
		"identifier", identifier,
		"ip", ipString(ip),
		"user_agent", strings.TrimSpace(ua),
	)
}

func (h *Handler) auditLoginRateLimited(ip net.IP, identifier string) {
	h.log.Warn("auth.login.rate_limited",
		"identifier", identifier,
		"ip", ipString(ip),
	)
}

func (h *Handler) auditRefreshSuccess(userID string, ip net.IP) {
	h.log.Info("auth.refresh.success",
		"user_id", userID,
		"ip", ipString(ip),
	)
}

func (h *Handler) auditRefreshDenied(ip net.IP) {
	h.log.Warn("auth.refresh.denied",
		"ip", ipString(ip),
	)
}

func (h *Handler) auditLogout(userID string, ip net.IP) {
	h.log.Info("auth.logout",
		"user_id", userID,
		"ip", ipString(ip),
	)
}

func (h *Handler) auditRegister(userID, username string, ip net.IP) {
	h.log.Info("auth.register.success",
		"user_id", userID,
		"username", username,
		"ip", ipString(ip),
	)
}

func ipString(ip net.IP) string {
	if ip == nil {
		return ""
	}
	return ip.String()
}
