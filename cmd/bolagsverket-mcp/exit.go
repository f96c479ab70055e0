package main

const (
	exitCodeToolError = 3
	exitCodeConfig    = 2
)

type exitError struct {
	code    int
	message string
}

func (e exitError) Error() string {
	return e.message
}
