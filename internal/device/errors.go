package device

import "shotcompile/internal/compileerr"

func invalidValue(format string, args ...interface{}) error {
	return compileerr.New(compileerr.KindInvalidValue, compileerr.Span{}, format, args...)
}

func invalidDimensionality(format string, args ...interface{}) error {
	return compileerr.New(compileerr.KindInvalidDimensionality, compileerr.Span{}, format, args...)
}
