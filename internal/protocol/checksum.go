package protocol

// Checksum computes the XOR reduction over data. The empty sequence
// checksums to 0.
func Checksum(data []byte) byte {
	var sum byte
	for _, b := range data {
		sum ^= b
	}
	return sum
}

// VerifyChecksum reports whether data XORs to expected.
func VerifyChecksum(data []byte, expected byte) bool {
	return Checksum(data) == expected
}
