package protocol

import "errors"

var (
	ErrMalformed      = errors.New("malformed request")
	ErrParameter      = errors.New("invalid parameter")
	ErrEncode         = errors.New("encode failed")
	ErrBufferOverflow = errors.New("receive buffer overflow")
)
