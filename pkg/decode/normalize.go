package decode

import (
	"strings"
)

// Normalize maps a remote key to the canonical lowercase, underscore
// separated form used by schema field names. camelCase, PascalCase,
// snake_case and kebab-case spellings of the same name all normalize to
// the same string:
//
//	swimmingPoolId   -> swimming_pool_id
//	swimming_pool_id -> swimming_pool_id
//	HTTPStatusCode   -> http_status_code
//	lastMeasureBLE   -> last_measure_ble
func Normalize(key string) string {
	var b strings.Builder
	b.Grow(len(key) + 4)

	for i := 0; i < len(key); i++ {
		c := key[i]
		if isUpper(c) && i > 0 {
			prev := key[i-1]
			switch {
			case isLower(prev) || isDigit(prev):
				b.WriteByte('_')
			case isUpper(prev) && i+1 < len(key) && isLower(key[i+1]):
				// end of an acronym: "HTTPStatus" splits before "Status"
				b.WriteByte('_')
			}
		}
		switch {
		case c == '-':
			b.WriteByte('_')
		case isUpper(c):
			b.WriteByte(c + ('a' - 'A'))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func isUpper(c byte) bool { return c >= 'A' && c <= 'Z' }
func isLower(c byte) bool { return c >= 'a' && c <= 'z' }
func isDigit(c byte) bool { return c >= '0' && c <= '9' }
