package model

import "errors"

var errEmptyID = errors.New("model: person id must not be empty")

type duplicateLabelError struct {
	label string
}

func (e *duplicateLabelError) Error() string {
	return "model: duplicate contact point label " + e.label
}
