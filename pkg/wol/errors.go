package wol

import "errors"

var ErrInvalidMACAddress = errors.New("invalid MAC address")
