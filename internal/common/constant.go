package common

const (
	// AccessTokenCookieName is the cookie carrying the signed session token.
	AccessTokenCookieName = "jwt"

	// FlashCookieName carries pending flash messages (or their Redis key).
	FlashCookieName = "flash"

	// EnvDevelopment disables the Secure attribute on cookies.
	EnvDevelopment = "development"
	EnvProduction  = "production"
)
