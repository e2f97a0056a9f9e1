package io

import (
	"errors"

	"github.com/ezrec/bfsys/translate"
)

var f = translate.From

var (
	// Console errors
	ErrChannelFull = errors.New(f("channel full"))
)
