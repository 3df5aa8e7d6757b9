package domain

type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) WithMessage(msg string) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: msg,
		Status:  e.Status,
	}
}

var (
	ErrInvalidRequest = &AppError{
		Code:    "INVALID_REQUEST",
		Message: "Invalid request",
		Status:  400,
	}

	ErrInternalServerError = &AppError{
		Code:    "INTERNAL_SERVER_ERROR",
		Message: "Internal server error",
		Status:  500,
	}

	ErrNotFound = &AppError{
		Code:    "NOT_FOUND",
		Message: "Not found",
		Status:  404,
	}

	ErrUnauthorized = &AppError{
		Code:    "UNAUTHORIZED",
		Message: "Unauthorized",
		Status:  401,
	}

	ErrForbidden = &AppError{
		Code:    "FORBIDDEN",
		Message: "Insufficient permissions",
		Status:  403,
	}

	ErrAdminRequired = &AppError{
		Code:    "ADMIN_REQUIRED",
		Message: "Admin access required",
		Status:  403,
	}

	ErrBanned = &AppError{
		Code:    "BANNED",
		Message: "Account is banned",
		Status:  403,
	}

	ErrNotParticipant = &AppError{
		Code:    "NOT_PARTICIPANT",
		Message: "Not a participant of this chat",
		Status:  403,
	}

	ErrNicknameTaken = &AppError{
		Code:    "NICKNAME_TAKEN",
		Message: "Nickname taken",
		Status:  400,
	}

	ErrSelfChat = &AppError{
		Code:    "SELF_CHAT",
		Message: "Cannot chat with yourself",
		Status:  400,
	}
)
