package tool

import (
	"fmt"
	"strings"
)

// BytesToHex представляет data в виде строки шестнадцатеричных чисел в верхнем регистре,
// разделённых separator
func BytesToHex(data []byte, separator string) string {
	parts := make([]string, 0, len(data))
	for _, b := range data {
		parts = append(parts, fmt.Sprintf("%02X", b))
	}
	return strings.Join(parts, separator)
}

// CRC8 контрольная сумма Dallas/Maxim (полином x^8+x^5+x^4+1), которой защищён ROM-код 1-Wire устройств
func CRC8(data []byte) byte {
	var crc byte
	for _, b := range data {
		for i := 0; i < 8; i++ {
			mix := (crc ^ b) & 0x01
			crc >>= 1
			if mix != 0 {
				crc ^= 0x8C
			}
			b >>= 1
		}
	}
	return crc
}
