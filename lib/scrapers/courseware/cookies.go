package courseware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
)

type storedCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// loadCookies seeds the cookie jar from the cookie file so a fresh
// process can reuse the previous session instead of logging in again.
func (c *Client) loadCookies() {
	if c.cookieFile == "" {
		return
	}
	contents, err := os.ReadFile(c.cookieFile)
	if err != nil {
		return
	}
	var stored []storedCookie
	err = json.Unmarshal(contents, &stored)
	if err != nil {
		slog.Warn("failed to parse cookie file", "file", c.cookieFile, "err", err)
		return
	}

	cookies := make([]*http.Cookie, len(stored))
	for i, s := range stored {
		cookies[i] = &http.Cookie{Name: s.Name, Value: s.Value}
	}
	c.http.GetClient().Jar.SetCookies(c.resultsUrl, cookies)
}

func (c *Client) saveCookies() {
	if c.cookieFile == "" {
		return
	}
	cookies := c.http.GetClient().Jar.Cookies(c.resultsUrl)
	stored := make([]storedCookie, len(cookies))
	for i, cookie := range cookies {
		stored[i] = storedCookie{Name: cookie.Name, Value: cookie.Value}
	}
	contents, err := json.MarshalIndent(stored, "", "    ")
	if err != nil {
		return
	}
	err = os.WriteFile(c.cookieFile, contents, 0600)
	if err != nil {
		slog.Warn("failed to write cookie file", "file", c.cookieFile, "err", err)
	}
}
