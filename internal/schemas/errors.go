package schemas

// CustomError is a struct that represents a custom error
// Code is the error code, e.g. ERR-001
// Message is the error message shown to the client
type CustomError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

var (
	BadRequest = &CustomError{
		Code:    "ERR-001",
		Message: "The request body is invalid. Please check the request body and try again.",
	}
	UsernameTaken = &CustomError{
		Code:    "ERR-002",
		Message: "The username is already taken. Please try another username.",
	}
	EmailTaken = &CustomError{
		Code:    "ERR-003",
		Message: "The email is already registered. Please try another email.",
	}
	InvalidCredentials = &CustomError{
		Code:    "ERR-004",
		Message: "Invalid username/email or password.",
	}
	InvalidToken = &CustomError{
		Code:    "ERR-005",
		Message: "The reset token is invalid or has expired. Please request a new password reset.",
	}
	EmailNotSent = &CustomError{
		Code:    "ERR-006",
		Message: "The email could not be sent. Please try again later.",
	}
	DatabaseError = &CustomError{
		Code:    "ERR-007",
		Message: "A database error occurred. Please try again later.",
	}
	InternalServerError = &CustomError{
		Code:    "ERR-008",
		Message: "An internal server error occurred. Please try again later.",
	}
)
