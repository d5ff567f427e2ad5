package auth

// Gin context keys under which the JWT middleware stores validated claims.
// They live here rather than in the middleware package so handlers in this
// package can read them without an import cycle.
const (
	// ContextUserID is the key for user ID in gin context.
	ContextUserID = "user_id"
	// ContextUserEmail is the key for user email in gin context.
	ContextUserEmail = "user_email"
	// ContextUserName is the key for the user's display name in gin context.
	ContextUserName = "user_name"
	// ContextUserImage is the key for the user's avatar URL in gin context.
	ContextUserImage = "user_image"
	// ContextIsPremium is the key for the premium flag in gin context.
	ContextIsPremium = "is_premium"
)
