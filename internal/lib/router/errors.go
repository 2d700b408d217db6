package router

import "errors"

var (
	ErrInvalidWeights  = errors.New("split weights must sum to exactly 10000 basis points")
	ErrMalformedGroup  = errors.New("atomic group has wrong size, order, or linkage")
	ErrAccountMismatch = errors.New("group references wrong payee, seller, or holder account")
	ErrAssetMismatch   = errors.New("asset transfer isn't for the configured ticket asset")
	ErrAmountMismatch  = errors.New("transfer amount doesn't match expected sale amounts")
	ErrFeeInsufficient = errors.New("call fee doesn't cover the inner payments it authorizes")
)
