// Package errors provides examples of structured error handling.
package errors_test

import (
	"fmt"
	"io"

	"github.com/ajitpratap0/nebula-rickmorty/pkg/errors"
)

// Example demonstrates basic error creation and details.
func Example() {
	err := errors.New(errors.ErrorTypeTransport, "page request failed").
		WithDetail("status_code", 502).
		WithDetail("url", "https://rickandmortyapi.com/api/character?page=3")

	fmt.Println(err.Error())
	fmt.Println(errors.StatusCode(err))

	// Output:
	// transport: page request failed
	// 502
}

// ExampleWrap shows how to wrap existing errors with context.
func ExampleWrap() {
	err := errors.Wrap(io.ErrUnexpectedEOF, errors.ErrorTypeData, "failed to decode page").
		WithDetail("page", "7")

	if errors.IsType(err, errors.ErrorTypeData) {
		fmt.Println("This is a data error")
	}
	if errors.Is(err, io.ErrUnexpectedEOF) {
		fmt.Println("Caused by unexpected EOF")
	}

	// Output:
	// This is a data error
	// Caused by unexpected EOF
}

// ExampleIsRetryable shows which categories are considered transient.
func ExampleIsRetryable() {
	fmt.Println(errors.IsRetryable(errors.New(errors.ErrorTypeRateLimit, "429")))
	fmt.Println(errors.IsRetryable(errors.New(errors.ErrorTypeConfig, "missing start_page")))

	// Output:
	// true
	// false
}

// ExampleStatusCode shows the status code surviving an outer wrap.
func ExampleStatusCode() {
	inner := errors.New(errors.ErrorTypeTransport, "unexpected status").WithDetail("status_code", 404)
	outer := errors.Wrap(inner, errors.ErrorTypeTransport, "stream characters halted")

	fmt.Println(errors.StatusCode(outer))
	fmt.Println(errors.StatusCode(io.EOF))

	// Output:
	// 404
	// 0
}

// ExampleHTTPStatus shows the error a driver returns for a non-2xx page.
func ExampleHTTPStatus() {
	err := errors.HTTPStatus(503, "https://rickandmortyapi.com/api/character?page=2")

	fmt.Println(err)
	fmt.Println(errors.StatusCode(err), errors.IsType(err, errors.ErrorTypeTransport))

	// Output:
	// transport: request to https://rickandmortyapi.com/api/character?page=2 returned status 503
	// 503 true
}
