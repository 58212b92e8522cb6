package ir

import "strings"

// TryExtractStringFromErrorPayload decodes a dynamic constrain error
// payload that carries a plain string.
//
// The payload qualifies when selector is StringErrorSelector, values has
// exactly one entry, and that entry resolves to an array whose elements
// are all numeric constants. Each element becomes one character: its
// low byte, read as a code point in U+0000..U+00FF. Elements wider than
// 64 bits decode as 0.
func TryExtractStringFromErrorPayload(selector ErrorSelector, values []ValueID, dfg *DataFlowGraph) (string, bool) {
	if selector != StringErrorSelector || len(values) != 1 {
		return "", false
	}
	arr, ok := dfg.Value(values[0]).(ArrayValue)
	if !ok {
		return "", false
	}

	var sb strings.Builder
	for _, elem := range arr.Elements {
		c, _, ok := dfg.NumericConstant(elem)
		if !ok {
			return "", false
		}
		n, _ := c.TryToUint64()
		sb.WriteRune(rune(byte(n)))
	}
	return sb.String(), true
}
