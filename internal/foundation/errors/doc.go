// Package errors classifies sitepipe failures so the CLI can pick an exit
// code and decide how loudly to report them.
//
//	err := errors.WrapError(runErr, errors.CategoryTool, "sass failed").
//		WithContext("file", "src/scss/main.scss").
//		Build()
//
// The category owns the exit code. Context fields become log attributes
// when the error reaches the CLI.
package errors
