//go:build !windows

package driverio

import "time"

// unsupportedDriver is the non-Windows placeholder: the kernel filter driver
// does not exist here, so Open always fails. Tests use NewMemory instead.
type unsupportedDriver struct{}

func newPlatform() Driver { return unsupportedDriver{} }

func (unsupportedDriver) Open() ([]Device, error)                  { return nil, ErrUnsupported }
func (unsupportedDriver) Wait(time.Duration) (int, bool, error)    { return -1, false, ErrUnsupported }
func (unsupportedDriver) Wake()                                    {}
func (unsupportedDriver) Close() error                             { return nil }
