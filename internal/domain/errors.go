package domain

import "errors"

var (
	ErrInvalidOffer = errors.New("invalid offer")
	ErrNegotiation  = errors.New("negotiation failed")
	ErrClose        = errors.New("close failed")
	ErrNoTrackBound = errors.New("no track bound")
)
