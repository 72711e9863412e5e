package auth

// Provider-style error codes, each mapped to a distinct user-facing
// message so the UI can show something actionable instead of a generic
// failure banner.
const (
	CodeInvalidEmail      = "invalid-email"
	CodeWeakPassword      = "weak-password"
	CodeEmailInUse        = "email-already-in-use"
	CodeUserNotFound      = "user-not-found"
	CodeWrongPassword     = "wrong-password"
	CodeInvalidCredential = "invalid-credential"
	CodeTooManyRequests   = "too-many-requests"
)

var errorMessages = map[string]string{
	CodeInvalidEmail:      "Please enter a valid email address",
	CodeWeakPassword:      "Password should be at least 6 characters",
	CodeEmailInUse:        "An account with this email already exists",
	CodeUserNotFound:      "No account found with this email",
	CodeWrongPassword:     "Incorrect password",
	CodeInvalidCredential: "Invalid email or password",
	CodeTooManyRequests:   "Too many attempts, please try again later",
}

// MessageFor returns the user-facing message for an auth error code.
func MessageFor(code string) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}
	return "Authentication failed"
}
