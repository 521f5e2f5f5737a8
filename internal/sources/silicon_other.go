//go:build !amd64

package sources

func platformHasRDRAND() bool { return false }
func platformHasRDSEED() bool { return false }

func platformRDRANDBytes(buf []byte) error { return errUnsupportedPlatform }
func platformRDSEEDBytes(buf []byte) error { return errUnsupportedPlatform }
