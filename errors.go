package rangepool

import "errors"

const Namespace = "rangepool"

var (
	ErrInvalidArgument = errors.New(Namespace + ": invalid argument")
	ErrPoolExhausted   = errors.New(Namespace + ": no remaining range to assign")
	ErrRangeExceeded   = errors.New(Namespace + ": cannot advance worker past its limit")
	ErrInvalidSnapshot = errors.New(Namespace + ": invalid snapshot")
	ErrInvalidConfig   = errors.New(Namespace + ": invalid configuration")
)
