package errors

// descriptions holds a one-line explanation for every known code.
var descriptions = map[ErrorCode]string{
	ErrCodeAuthInvalidCredentials: "The backend rejected the email and password",
	ErrCodeAuthSessionInvalidated: "The backend rejected the stored token and the session was cleared",
	ErrCodeAuthForbidden:          "The signed-in role may not use this feature",
	ErrCodeAuthNotAuthenticated:   "No session is stored",
	ErrCodeAuthUnexpectedRole:     "The backend returned a role the client does not know",

	ErrCodeValidationRequired:       "A required value is missing",
	ErrCodeValidationEmail:          "The email address is malformed",
	ErrCodeValidationContact:        "The contact number is not 10 digits",
	ErrCodeValidationPassword:       "The password is shorter than 6 characters",
	ErrCodeValidationPasswordRepeat: "The password confirmation does not match",
	ErrCodeValidationFileSize:       "An image is larger than 5MB",
	ErrCodeValidationFileType:       "A file is not an image",

	ErrCodeNetworkNoResponse: "No response arrived from the backend",
	ErrCodeNetworkRequest:    "The request could not be built",

	ErrCodeHTTPServer:   "The backend answered with an error status",
	ErrCodeHTTPNotFound: "The resource or page does not exist",
	ErrCodeHTTPConflict: "The request conflicts with the current state",
	ErrCodeHTTPDecode:   "The backend response could not be decoded",

	ErrCodeStoreRead:  "Session storage could not be read",
	ErrCodeStoreWrite: "Session storage could not be written",
	ErrCodeStoreOpen:  "Session storage could not be opened",

	ErrCodeConfigInvalid: "A configuration value is invalid",

	ErrCodeFileNotFound:    "A file does not exist",
	ErrCodeFileReadFailed:  "A file could not be read",
	ErrCodeFileWriteFailed: "A file could not be written",
}

// Codes returns every known code in catalogue order.
func Codes() []ErrorCode {
	return []ErrorCode{
		ErrCodeAuthInvalidCredentials, ErrCodeAuthSessionInvalidated, ErrCodeAuthForbidden,
		ErrCodeAuthNotAuthenticated, ErrCodeAuthUnexpectedRole,
		ErrCodeValidationRequired, ErrCodeValidationEmail, ErrCodeValidationContact,
		ErrCodeValidationPassword, ErrCodeValidationPasswordRepeat, ErrCodeValidationFileSize,
		ErrCodeValidationFileType,
		ErrCodeNetworkNoResponse, ErrCodeNetworkRequest,
		ErrCodeHTTPServer, ErrCodeHTTPNotFound, ErrCodeHTTPConflict, ErrCodeHTTPDecode,
		ErrCodeStoreRead, ErrCodeStoreWrite, ErrCodeStoreOpen,
		ErrCodeConfigInvalid,
		ErrCodeFileNotFound, ErrCodeFileReadFailed, ErrCodeFileWriteFailed,
	}
}

// Describe returns the catalogue entry for code.
func Describe(code ErrorCode) (string, bool) {
	d, ok := descriptions[code]
	return d, ok
}
