package vision

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// DecodeImagePayload decodes one uploaded image, accepting either raw
// base64 or a full data: URL (the browser's FileReader produces the
// latter). URL-safe base64 is tolerated as a fallback.
func DecodeImagePayload(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "data:") {
		idx := strings.IndexByte(s, ',')
		if idx < 0 {
			return nil, fmt.Errorf("invalid image: data URL without payload")
		}
		s = s[idx+1:]
	}

	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	b, err := base64.URLEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid image: bad base64: %w", err)
	}
	return b, nil
}

// sniffImageMIME detects the image type from magic bytes. JPEG is the
// default: phone cameras produce it and the model tolerates a wrong
// hint better than a missing one.
func sniffImageMIME(b []byte) string {
	if len(b) >= 8 &&
		b[0] == 0x89 && b[1] == 0x50 && b[2] == 0x4E && b[3] == 0x47 &&
		b[4] == 0x0D && b[5] == 0x0A && b[6] == 0x1A && b[7] == 0x0A {
		return "image/png"
	}
	if len(b) >= 4 && b[0] == 'R' && b[1] == 'I' && b[2] == 'F' && b[3] == 'F' {
		return "image/webp"
	}
	return "image/jpeg"
}
