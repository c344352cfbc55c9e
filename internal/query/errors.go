package query

import (
	"errors"
	"fmt"
)

// ErrUpstreamUnavailable marks failures of the resolver or path search
var ErrUpstreamUnavailable = errors.New("upstream unavailable")

// Side identifies which endpoint of a query an error refers to
type Side string

const (
	SideSource Side = "source"
	SideTarget Side = "target"
)

// UnknownPageError is returned when a title does not resolve to a page
type UnknownPageError struct {
	Title string
	Side  Side
}

func (e *UnknownPageError) Error() string {
	label := "Start"
	if e.Side == SideTarget {
		label = "End"
	}
	return fmt.Sprintf("%s page \"%s\" does not exist. Please try another search.", label, e.Title)
}
