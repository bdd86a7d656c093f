//go:build !windows

package disks

import "github.com/fenilsonani/diskscout/internal/platform"

// WMIQuerier is only available on Windows
type WMIQuerier struct{}

// NewWMIQuerier always fails outside Windows
func NewWMIQuerier(namespace string) (*WMIQuerier, error) {
	return nil, platform.ErrUnsupportedPlatform
}

// Query always fails outside Windows
func (q *WMIQuerier) Query(query string) ([]Record, error) {
	return nil, platform.ErrUnsupportedPlatform
}

// Associators always fails outside Windows
func (q *WMIQuerier) Associators(class, id, assocClass string) ([]Record, error) {
	return nil, platform.ErrUnsupportedPlatform
}
