package auctionerrors

import "errors"

// Repository-level errors
var (
	ErrAuctionNotFound = errors.New("auction not found")
	ErrWalletNotFound  = errors.New("wallet not found")
)

// business logic errors
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrAuctionNotJoinable = errors.New("auction is not joinable")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrAlreadyCharged     = errors.New("participation fee already charged")
	ErrInvalidTransition  = errors.New("invalid status transition")
)
