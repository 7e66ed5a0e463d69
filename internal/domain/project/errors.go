package project

import "errors"

var (
	ErrProjectNotFound = errors.New("project not found")
	ErrNotOwner        = errors.New("you do not own this project")
)
