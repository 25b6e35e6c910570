package learning

import "errors"

var (
	ErrNotFound           = errors.New("studied language not found")
	ErrAlreadyStudying    = errors.New("language already being studied")
	ErrUnknownLanguage    = errors.New("language not in catalog")
	ErrInvalidProficiency = errors.New("invalid proficiency level")
)
