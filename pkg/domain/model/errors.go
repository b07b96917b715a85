package model

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for domain operations
var (
	ErrTicketNotFound = goerr.New("ticket not found")
	ErrAreaNotFound   = goerr.New("product area not found")
)
