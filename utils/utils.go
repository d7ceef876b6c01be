package utils

import (
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"facility-booking/types"

	"github.com/gofiber/fiber/v2"
)

const maxLoggedBody = 4096

var sensitiveHeader = regexp.MustCompile(`(?im)^(authorization|cookie|set-cookie):[^\r\n]*`)

// sanitizeRequestBody replaces uploaded files and inline base64 payloads with placeholders
func sanitizeRequestBody(c *fiber.Ctx) string {
	contentType := c.Get("Content-Type")
	if strings.Contains(contentType, "multipart/form-data") {
		formData := make(map[string]interface{})

		if form, err := c.MultipartForm(); err == nil {
			for key, values := range form.Value {
				if len(values) > 0 {
					formData[key] = values[0]
				}
			}
			for key, files := range form.File {
				fileInfo := make([]map[string]interface{}, len(files))
				for i, file := range files {
					fileInfo[i] = map[string]interface{}{
						"filename": file.Filename,
						"size":     file.Size,
						"content":  "[FILE_CONTENT_REMOVED]",
					}
				}
				formData[key] = fileInfo
			}
		}

		if jsonBytes, err := json.Marshal(formData); err == nil {
			return string(jsonBytes)
		}
		return "[MULTIPART_FORM_DATA]"
	}

	body := string(c.Body())
	if len(body) > 1000 && (strings.Contains(body, "data:image/") ||
		strings.Contains(body, "base64") ||
		isLikelyBase64(body)) {
		return "[LARGE_REQUEST_BODY_WITH_POSSIBLE_FILE_CONTENT]"
	}
	return truncate(body)
}

// isLikelyBase64 detects if content looks like base64
func isLikelyBase64(content string) bool {
	if len(content) < 100 {
		return false
	}

	base64Chars := 0
	for _, char := range content {
		if (char >= 'A' && char <= 'Z') ||
			(char >= 'a' && char <= 'z') ||
			(char >= '0' && char <= '9') ||
			char == '+' || char == '/' || char == '=' {
			base64Chars++
		}
	}
	return float64(base64Chars)/float64(len(content)) > 0.8
}

func truncate(s string) string {
	if len(s) <= maxLoggedBody {
		return s
	}
	return s[:maxLoggedBody] + "...[TRUNCATED]"
}

// RedactHeaders blanks credentials out of a raw header block.
func RedactHeaders(raw string) string {
	return sensitiveHeader.ReplaceAllStringFunc(raw, func(line string) string {
		name := line[:strings.Index(line, ":")]
		return name + ": [REDACTED]"
	})
}

// CreateSanitizedLogEntry copies the exchange out of fiber's reusable buffers, with uploads,
// credentials and oversized bodies removed.
func CreateSanitizedLogEntry(c *fiber.Ctx) types.LogEntry {
	// fiber reuses these buffers after the handler returns
	method := string([]byte(c.Method()))
	url := string([]byte(c.OriginalURL()))
	requestBody := sanitizeRequestBody(c)

	responseBody := "[BINARY_RESPONSE]"
	if ct := string(c.Response().Header.ContentType()); ct == "" || strings.Contains(ct, "json") || strings.HasPrefix(ct, "text/plain") {
		responseBody = truncate(string(append([]byte(nil), c.Response().Body()...)))
	}

	return types.LogEntry{
		Method:          method,
		URL:             url,
		RequestBody:     requestBody,
		ResponseBody:    responseBody,
		RequestHeaders:  RedactHeaders(string(c.Request().Header.Header())),
		ResponseHeaders: RedactHeaders(string(c.Response().Header.Header())),
		StatusCode:      c.Response().StatusCode(),
		CreatedAt:       time.Now(),
	}
}
