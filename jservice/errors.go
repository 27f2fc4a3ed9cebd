/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package jservice

import (
	"errors"
	"fmt"
)

// ErrFetch matches every error returned by a Client request.
var ErrFetch = errors.New("fetch failed")

// FetchError describes a failed request to the trivia service.
type FetchError struct {
	Op         string
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("%s %s: unexpected status %d", e.Op, e.URL, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
	default:
		return fmt.Sprintf("%s %s: %v", e.Op, e.URL, ErrFetch)
	}
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

func (e *FetchError) Is(target error) bool {
	return target == ErrFetch
}
