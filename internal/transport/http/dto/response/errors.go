package response

var (
	ErrInvalidRequestFormat = Error("Invalid request format")
	ErrAuthenticationFailed = Error("Invalid email or password")
	ErrAuthRequired         = Error("Authentication required")
	ErrAdminRequired        = Error("Admin access required")
	ErrNoFile               = Error("No file provided")
	ErrUserIDRequired       = Error("userId is required")
	ErrForbiddenKey         = Error("File does not belong to this user")
	ErrNoCachedSlideshow    = Error("No compiled slideshow found")
	ErrInternal             = Error("Internal server error")
)
