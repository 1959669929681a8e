package httpx

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
)

// maxBodyBytes bounds how much of a request body middleware will buffer.
const maxBodyBytes = 1 << 20

// peekBody reads the request body and puts it back so downstream handlers
// can still decode it.
func peekBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	_ = r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(body))

	return body, nil
}

// jsonStringField extracts a top-level string field from a JSON object,
// returning "" if the body isn't an object or the field isn't a string.
func jsonStringField(body []byte, field string) string {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return ""
	}

	raw, ok := obj[field]
	if !ok {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}
