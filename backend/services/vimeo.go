package services

import (
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"time"
)

var vimeoIDRe = regexp.MustCompile(`vimeo\.com/(\d+)`)

// VimeoMetadata is what the oEmbed endpoint gives us about a video.
type VimeoMetadata struct {
	Title     string `json:"title"`
	Thumbnail string `json:"thumbnail_url"`
	Duration  int    `json:"duration"`
}

// VimeoClient fetches video metadata from Vimeo's oEmbed endpoint.
type VimeoClient struct {
	httpClient *http.Client
	baseURL    string
}

func NewVimeoClient() *VimeoClient {
	return &VimeoClient{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    "https://vimeo.com/api/oembed.json",
	}
}

// ExtractVimeoID pulls the numeric video id out of a Vimeo URL, "" when the URL
// doesn't match.
func ExtractVimeoID(url string) string {
	if m := vimeoIDRe.FindStringSubmatch(url); m != nil {
		return m[1]
	}
	return ""
}

// FetchMetadata queries oEmbed for a video. Timeouts and non-200 responses
// yield empty metadata, never an error surfaced to the caller.
func (v *VimeoClient) FetchMetadata(vimeoID string) VimeoMetadata {
	url := fmt.Sprintf("%s?url=https://vimeo.com/%s", v.baseURL, vimeoID)

	resp, err := v.httpClient.Get(url)
	if err != nil {
		return VimeoMetadata{}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return VimeoMetadata{}
	}

	var meta VimeoMetadata
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return VimeoMetadata{}
	}
	return meta
}
