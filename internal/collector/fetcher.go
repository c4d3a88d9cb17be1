package collector

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/shopspring/decimal"
)

// Fetcher defines the interface for fetching a spot price from one venue.
type Fetcher interface {
	FetchPrice(ctx context.Context) (decimal.Decimal, error)
	Name() string
}

// ErrorKind classifies a fetch failure.
type ErrorKind int

const (
	KindNetwork ErrorKind = iota
	KindTimeout
	KindParse
)

func (k ErrorKind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindParse:
		return "parse"
	default:
		return "network"
	}
}

// FetchError is returned for every failed price fetch.
type FetchError struct {
	Kind  ErrorKind
	Venue string
	Err   error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s (%s): %v", e.Venue, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// KindOf returns the kind of a fetch error, KindNetwork for foreign errors.
func KindOf(err error) ErrorKind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindNetwork
}

// transportError wraps an http.Client error, telling timeouts apart.
func transportError(venue string, err error) *FetchError {
	kind := KindNetwork
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		kind = KindTimeout
	}
	return &FetchError{Kind: kind, Venue: venue, Err: err}
}
