// internal/domain/order/code.go
package order

import "strings"

const defaultCodeSuffixLen = 4

// CodeFor derives a human-facing order code from the order id:
// PREFIX-XXXX where XXXX are the trailing characters of the id, uppercased.
func CodeFor(prefix, id string, suffixLen int) string {
	compact := strings.ReplaceAll(id, "-", "")
	if suffixLen <= 0 {
		suffixLen = defaultCodeSuffixLen
	}
	if suffixLen > len(compact) {
		suffixLen = len(compact)
	}
	return strings.ToUpper(prefix) + "-" + strings.ToUpper(compact[len(compact)-suffixLen:])
}
