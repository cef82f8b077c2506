package tcw

import "errors"

var (
	ErrInvalidMagic     = errors.New("invalid TCW magic")
	ErrUnsupportedMajor = errors.New("unsupported TCW major version")
	ErrCorruptFile      = errors.New("corrupt TCW file")
)
