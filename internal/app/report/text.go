package report

// ToText returns the transcript as UTF-8 bytes, unchanged.
func ToText(text string) []byte {
	return []byte(text)
}
