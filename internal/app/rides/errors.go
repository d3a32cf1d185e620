package rides

// Error is an application-layer error carrying the API's string error code.
// Expected business conditions are returned as *Error; anything else that
// escapes the service is an internal failure for the HTTP layer to map.
type Error struct {
	Status int
	Code   string
	// Details maps offending input fields to their error codes, when the
	// failure came from request validation.
	Details map[string]string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return e.Code
}
