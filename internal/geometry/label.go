package geometry

// maxLabelLen bounds sanitized labels used inside file names.
const maxLabelLen = 11

// SanitizeLabel turns a detector label into a file-name-safe token:
// ASCII letters and digits are kept, space, '-' and '.' become '_', anything
// else is dropped. An empty result becomes "obj".
func SanitizeLabel(in string) string {
	out := make([]byte, 0, maxLabelLen)
	for i := 0; i < len(in) && len(out) < maxLabelLen; i++ {
		c := in[i]
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			out = append(out, c)
		case c == ' ' || c == '-' || c == '.':
			out = append(out, '_')
		}
	}
	if len(out) == 0 {
		return "obj"
	}
	return string(out)
}
