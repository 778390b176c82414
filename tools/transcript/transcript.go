package transcript

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/arash-fz/docent/utils"
)

// ErrNoTranscript means the video has no captions available.
var ErrNoTranscript = errors.New("no transcript available")

// Fetch retrieves a video's caption track from YouTube's timedtext endpoint
// and joins the segments into one plain-text transcript.
type Fetch struct {
	Timeout time.Duration
	Lang    string
}

type timedText struct {
	XMLName xml.Name `xml:"transcript"`
	Texts   []struct {
		Start string `xml:"start,attr"`
		Body  string `xml:",chardata"`
	} `xml:"text"`
}

func (f Fetch) Exec(ctx context.Context, videoRef string) (string, error) {
	videoID, err := VideoID(videoRef)
	if err != nil {
		return "", err
	}
	lang := f.Lang
	if lang == "" {
		lang = "en"
	}
	timeout := f.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	endpoint := fmt.Sprintf("https://video.google.com/timedtext?lang=%s&v=%s", url.QueryEscape(lang), url.QueryEscape(videoID))
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return "", err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("timedtext returned status %d", resp.StatusCode)
	}

	var parsed timedText
	if err := xml.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		// An empty body means captions are disabled for this video.
		return "", ErrNoTranscript
	}
	if len(parsed.Texts) == 0 {
		return "", ErrNoTranscript
	}

	parts := make([]string, 0, len(parsed.Texts))
	for _, seg := range parsed.Texts {
		if t := strings.TrimSpace(seg.Body); t != "" {
			parts = append(parts, t)
		}
	}
	out := utils.CleanText(strings.Join(parts, " "))
	if out == "" {
		return "", ErrNoTranscript
	}
	return out, nil
}

// VideoID extracts the video identifier from a YouTube URL or returns the
// input unchanged when it already looks like a bare ID.
func VideoID(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", errors.New("empty video reference")
	}
	if !strings.Contains(ref, "/") {
		return ref, nil
	}
	u, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	if strings.Contains(u.Host, "youtu.be") {
		id := strings.Trim(u.Path, "/")
		if id == "" {
			return "", errors.New("no video id in url")
		}
		return id, nil
	}
	if id := u.Query().Get("v"); id != "" {
		return id, nil
	}
	// /embed/<id> and /shorts/<id> forms
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) == 2 && (segments[0] == "embed" || segments[0] == "shorts") {
		return segments[1], nil
	}
	return "", fmt.Errorf("cannot extract video id from %q", ref)
}
