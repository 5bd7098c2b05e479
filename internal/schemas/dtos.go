package schemas

// ErrorDTO is a struct that represents an error response
// Error is the custom error, see CustomError
type ErrorDTO struct {
	Error CustomError `json:"error"`
}

// UserDTO is a struct that represents a user response
// It carries the public fields of an account and never the password hash
type UserDTO struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Age      string `json:"age"`
	Gender   string `json:"gender"`
	Weight   string `json:"weight"`
	Height   string `json:"height"`
}

// MessageDTO is a struct that represents a plain confirmation message response
type MessageDTO struct {
	Message string `json:"message"`
}

// MetadataDTO is a struct that represents the API version metadata response
type MetadataDTO struct {
	ApiVersion string `json:"apiVersion"`
	ApiName    string `json:"apiName"`
}
