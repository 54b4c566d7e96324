package services

import "go.uber.org/zap"

// Security audit events
const (
	EventUserRegistration          = "USER_REGISTRATION"
	EventLoginSuccess              = "LOGIN_SUCCESS"
	EventLoginFailure              = "LOGIN_FAILURE"
	EventLoginFailureWrongPassword = "LOGIN_FAILURE_WRONG_PASSWORD"
	EventPasswordChanged           = "PASSWORD_CHANGED"
	EventPasswordChangeFailure     = "PASSWORD_CHANGE_FAILURE"
	EventBalanceViewed             = "BALANCE_VIEWED"
	EventLogout                    = "LOGOUT"
)

// securityLogName names the logger security events are written to
const securityLogName = "security"

// logSecurityEvent writes one audit line. uid is 0 when no user row is known.
// Never pass plaintext passwords or tokens in info.
func logSecurityEvent(logger *zap.Logger, event string, uid int, info string) {
	logger.Info("security event",
		zap.String("event", event),
		zap.Int("uid", uid),
		zap.String("info", info),
	)
}
