package users

// Error is an application-layer error carrying the API's string error code.
type Error struct {
	Status int
	Code   string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return e.Code
}
