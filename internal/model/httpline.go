package model

import "strings"

// firstLine returns the text before the first CRLF (or LF).
func firstLine(raw string) string {
	if idx := strings.Index(raw, "\r\n"); idx != -1 {
		return raw[:idx]
	}
	if idx := strings.IndexByte(raw, '\n'); idx != -1 {
		return raw[:idx]
	}
	return raw
}

// ParseRequestLine splits "METHOD URL VERSION". Missing parts come back empty.
func ParseRequestLine(request string) (method, url, version string) {
	parts := strings.SplitN(firstLine(request), " ", 3)
	switch len(parts) {
	case 3:
		version = parts[2]
		fallthrough
	case 2:
		url = parts[1]
		fallthrough
	case 1:
		method = parts[0]
	}
	return method, url, version
}

// ParseStatusLine splits "VERSION CODE REASON" into the version and the rest.
func ParseStatusLine(response string) (version, code string) {
	line := firstLine(response)
	if line == "" {
		return "", ""
	}
	version, code, _ = strings.Cut(line, " ")
	return version, code
}
