package util

// TruncateLinesAndBytes limits lines and total byte count, keeping the first lines.
func TruncateLinesAndBytes(lines []string, maxLines int, maxBytes int) (out []string, truncated bool, byteCount int) {
	if maxLines <= 0 && maxBytes <= 0 {
		for i, line := range lines {
			if i > 0 {
				byteCount++
			}
			byteCount += len(line)
		}
		return lines, false, byteCount
	}
	for _, line := range lines {
		if maxLines > 0 && len(out) >= maxLines {
			truncated = true
			break
		}
		lineBytes := len(line)
		sep := 0
		if len(out) > 0 {
			sep = 1
		}
		if maxBytes > 0 && byteCount+sep+lineBytes > maxBytes {
			truncated = true
			break
		}
		byteCount += sep + lineBytes
		out = append(out, line)
	}
	return out, truncated, byteCount
}

// TailLines keeps the last maxLines lines; maxLines <= 0 keeps everything.
func TailLines(lines []string, maxLines int) ([]string, bool) {
	if maxLines <= 0 || len(lines) <= maxLines {
		return lines, false
	}
	return lines[len(lines)-maxLines:], true
}
