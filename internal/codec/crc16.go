package codec

// CRC-16/CCITT-FALSE: polynomial 0x1021, initial value 0xFFFF, no final
// xor, no reflection. Table-driven for O(1) per-byte cost.

const (
	crcPolynomial = 0x1021
	crcInitial    = 0xFFFF
)

var crcTable [256]uint16

func init() {
	for i := 0; i < 256; i++ {
		crc := uint16(i) << 8
		for bit := 0; bit < 8; bit++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ crcPolynomial
			} else {
				crc <<= 1
			}
		}
		crcTable[i] = crc
	}
}

// Checksum computes the CRC-16/CCITT-FALSE checksum of data.
func Checksum(data []byte) uint16 {
	crc := uint16(crcInitial)
	for _, b := range data {
		crc = crc<<8 ^ crcTable[byte(crc>>8)^b]
	}
	return crc
}
