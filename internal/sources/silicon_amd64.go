//go:build amd64

package sources

import "errors"

const (
	cpuidRDRAND = 1 << 30 // ECX bit 30, CPUID function 1
	cpuidRDSEED = 1 << 18 // EBX bit 18, CPUID function 7
)

// cpuid executes the CPUID instruction; implemented in silicon_amd64.s.
func cpuid(eaxIn, ecxIn uint32) (eax, ebx, ecx, edx uint32)

// rdrand64 executes RDRAND and returns a 64-bit value plus the carry flag
// (false means underflow, the caller should retry).
func rdrand64() (uint64, bool)

// rdseed64 executes RDSEED and returns a 64-bit value plus the carry flag.
func rdseed64() (uint64, bool)

func platformHasRDRAND() bool {
	_, _, ecx, _ := cpuid(1, 0)
	return ecx&cpuidRDRAND != 0
}

func platformHasRDSEED() bool {
	maxFunc, _, _, _ := cpuid(0, 0)
	if maxFunc < 7 {
		return false
	}
	_, ebx, _, _ := cpuid(7, 0)
	return ebx&cpuidRDSEED != 0
}

func platformRDRANDBytes(buf []byte) error {
	if !platformHasRDRAND() {
		return errUnsupportedPlatform
	}
	for i := 0; i < len(buf); {
		var val uint64
		ok := false
		for retry := 0; retry < 10; retry++ {
			val, ok = rdrand64()
			if ok {
				break
			}
		}
		if !ok {
			return errors.New("sources: rdrand underflow after retries")
		}
		for j := 0; j < 8 && i < len(buf); j++ {
			buf[i] = byte(val >> (j * 8))
			i++
		}
	}
	return nil
}

func platformRDSEEDBytes(buf []byte) error {
	if !platformHasRDSEED() {
		return errUnsupportedPlatform
	}
	for i := 0; i < len(buf); {
		var val uint64
		ok := false
		for retry := 0; retry < 100; retry++ {
			val, ok = rdseed64()
			if ok {
				break
			}
		}
		if !ok {
			return errors.New("sources: rdseed underflow after retries")
		}
		for j := 0; j < 8 && i < len(buf); j++ {
			buf[i] = byte(val >> (j * 8))
			i++
		}
	}
	return nil
}
