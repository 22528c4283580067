package autoloader

import "fmt"

// ImageErr reports problems with the layout of an autoloader.
type ImageErr string

func (o *ImageErr) Error() string {
	return string(*o)
}

func newImageErr(format string, a ...interface{}) *ImageErr {
	err := ImageErr(fmt.Sprintf(format, a...))
	return &err
}
