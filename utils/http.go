// utils/http.go
package utils

import (
	"net/http"
	"time"
)

var HTTPClient = &http.Client{
	Timeout: 20 * time.Second, // price service can be slow under rate limiting
}
