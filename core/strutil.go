package core

// itoa converts an integer to a string without using fmt package
// This is a lightweight alternative for embedded systems
func itoa(n int) string {
	if n < 0 {
		return "-" + utoa(uint32(-n))
	}
	return utoa(uint32(n))
}

// utoa converts an unsigned integer to a string
func utoa(n uint32) string {
	if n == 0 {
		return "0"
	}

	var buf [10]byte
	pos := len(buf)
	for n > 0 {
		pos--
		buf[pos] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[pos:])
}

// parseLeadingInt reads an optionally signed decimal integer from the start of
// b, skipping leading spaces, and stops at the first non-digit. ok is false
// when no digit was found. Overlong input saturates at a bound that fits a
// 32-bit int.
func parseLeadingInt(b []byte) (n int, ok bool) {
	i := 0
	for i < len(b) && (b[i] == ' ' || b[i] == '\t') {
		i++
	}
	negative := false
	if i < len(b) && (b[i] == '-' || b[i] == '+') {
		negative = b[i] == '-'
		i++
	}
	const limit = (1<<31 - 1 - 9) / 10
	for ; i < len(b); i++ {
		c := b[i]
		if c < '0' || c > '9' {
			break
		}
		ok = true
		if n <= limit {
			n = n*10 + int(c-'0')
		}
	}
	if negative {
		n = -n
	}
	return n, ok
}
