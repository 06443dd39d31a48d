package services

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	ytapi "github.com/hightemp/youtube-transcript-api-go/api"
	yt "github.com/kkdai/youtube/v2"
	"go.uber.org/zap"
)

var ErrNoTranscript = errors.New("no captions available for this video")

const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// VideoInfo is the metadata handed to youtube-summarize as options.videoInfo.
type VideoInfo struct {
	VideoID         string `json:"video_id"`
	Title           string `json:"title"`
	Channel         string `json:"channel"`
	DurationSeconds int    `json:"duration_seconds"`
	Description     string `json:"description,omitempty"`
	Thumbnail       string `json:"thumbnail,omitempty"`
}

// AsOptions renders the info as a prompt option map.
func (v VideoInfo) AsOptions() map[string]any {
	m := map[string]any{
		"video_id":         v.VideoID,
		"title":            v.Title,
		"channel":          v.Channel,
		"duration_seconds": v.DurationSeconds,
	}
	if v.Description != "" {
		m["description"] = v.Description
	}
	return m
}

type YouTubeService struct {
	httpClient    *http.Client
	transcriptAPI *ytapi.YouTubeTranscriptApi
	ytClient      *yt.Client
}

type timedTextXML struct {
	XMLName xml.Name  `xml:"transcript"`
	Texts   []textXML `xml:"text"`
}

type textXML struct {
	Start string `xml:"start,attr"`
	Dur   string `xml:"dur,attr"`
	Text  string `xml:",chardata"`
}

func NewYouTubeService() *YouTubeService {
	httpClient := &http.Client{Timeout: 30 * time.Second}
	return &YouTubeService{
		httpClient:    httpClient,
		transcriptAPI: ytapi.NewYouTubeTranscriptApi(),
		ytClient:      &yt.Client{HTTPClient: httpClient},
	}
}

// ParseVideoID accepts a bare id or any YouTube URL form.
func ParseVideoID(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", fmt.Errorf("video id is required")
	}
	id, err := yt.ExtractVideoID(input)
	if err != nil {
		return "", fmt.Errorf("invalid YouTube video id: %w", err)
	}
	return id, nil
}

// GetTranscript joins the caption entries of a video, preferring English
// tracks. ErrNoTranscript is returned when no track can be found.
func (s *YouTubeService) GetTranscript(ctx context.Context, videoID string) (string, error) {
	transcript, err := s.transcriptAPI.GetTranscript(videoID, []string{"en", "en-US", "en-GB"})
	if err != nil {
		transcript, err = s.transcriptAPI.GetTranscript(videoID, nil)
		if err != nil {
			legacy, legacyErr := s.getTranscriptViaTimedText(ctx, videoID)
			if legacyErr == nil {
				return legacy, nil
			}
			zap.L().Info("transcript lookup failed",
				zap.String("video_id", videoID),
				zap.NamedError("api_error", err),
				zap.NamedError("timedtext_error", legacyErr),
			)
			return "", fmt.Errorf("%w: %v", ErrNoTranscript, legacyErr)
		}
	}

	var fullText strings.Builder
	for _, entry := range transcript.Entries {
		text := strings.TrimSpace(entry.Text)
		if text == "" {
			continue
		}
		fullText.WriteString(text)
		fullText.WriteString(" ")
	}

	cleaned := strings.TrimSpace(fullText.String())
	if cleaned == "" {
		return "", fmt.Errorf("%w: subtitle track is empty", ErrNoTranscript)
	}
	return cleaned, nil
}

func (s *YouTubeService) fetchWatchPage(ctx context.Context, videoID string) (string, error) {
	pageURL := fmt.Sprintf("https://www.youtube.com/watch?v=%s", videoID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch YouTube page: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read YouTube page: %w", err)
	}
	return string(body), nil
}

func (s *YouTubeService) getTranscriptViaTimedText(ctx context.Context, videoID string) (string, error) {
	pageHTML, err := s.fetchWatchPage(ctx, videoID)
	if err != nil {
		return "", err
	}

	captionURL, err := extractCaptionURL(pageHTML)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, captionURL, nil)
	if err != nil {
		return "", err
	}
	captionResp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch captions: %w", err)
	}
	defer captionResp.Body.Close()

	captionBody, err := io.ReadAll(captionResp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read captions: %w", err)
	}

	transcript, err := parseCaptionsXML(captionBody)
	if err != nil {
		return "", fmt.Errorf("failed to parse captions XML: %w", err)
	}
	return transcript, nil
}

var (
	captionTracksRe   = regexp.MustCompile(`"captionTracks"\s*:\s*\[(.*?)\],\s*"`)
	captionRendererRe = regexp.MustCompile(`"playerCaptionsTracklistRenderer"\s*:\s*\{(?:.*?,)?\s*"captionTracks"\s*:\s*\[(.*?)\],\s*"`)
	baseURLRe         = regexp.MustCompile(`"baseUrl"\s*:\s*"(.*?)"`)
)

func extractCaptionURL(pageHTML string) (string, error) {
	matches := captionTracksRe.FindStringSubmatch(pageHTML)
	if len(matches) < 2 {
		matches = captionRendererRe.FindStringSubmatch(pageHTML)
		if len(matches) < 2 {
			return "", ErrNoTranscript
		}
	}

	urlMatches := baseURLRe.FindStringSubmatch(matches[1])
	if len(urlMatches) < 2 {
		return "", fmt.Errorf("caption track found but baseUrl missing")
	}

	u := urlMatches[1]
	u = strings.ReplaceAll(u, `\u0026`, "&")
	u = strings.ReplaceAll(u, `\/`, "/")
	return u, nil
}

func parseCaptionsXML(data []byte) (string, error) {
	var tt timedTextXML
	if err := xml.Unmarshal(data, &tt); err != nil {
		return "", err
	}

	var parts []string
	for _, t := range tt.Texts {
		text := strings.TrimSpace(html.UnescapeString(t.Text))
		if text != "" {
			parts = append(parts, text)
		}
	}

	if len(parts) == 0 {
		return "", fmt.Errorf("captions XML empty")
	}
	return strings.Join(parts, " "), nil
}

// GetVideoInfo reads metadata through the player API and falls back to
// scraping the watch page.
func (s *YouTubeService) GetVideoInfo(ctx context.Context, videoID string) (*VideoInfo, error) {
	video, err := s.ytClient.GetVideoContext(ctx, videoID)
	if err == nil {
		return &VideoInfo{
			VideoID:         video.ID,
			Title:           video.Title,
			Channel:         video.Author,
			DurationSeconds: int(video.Duration.Seconds()),
			Description:     video.Description,
			Thumbnail:       thumbnailURL(videoID),
		}, nil
	}
	zap.L().Debug("player API lookup failed, scraping watch page",
		zap.String("video_id", videoID), zap.Error(err))

	pageHTML, err := s.fetchWatchPage(ctx, videoID)
	if err != nil {
		return nil, err
	}
	info := parseWatchPage(videoID, pageHTML)
	if info.Title == "" {
		return nil, fmt.Errorf("video %s not found", videoID)
	}
	return info, nil
}

var (
	pageTitleRe   = regexp.MustCompile(`<title>(.*?) - YouTube</title>`)
	pageChannelRe = regexp.MustCompile(`"ownerChannelName":"(.*?)"`)
	pageDescRe    = regexp.MustCompile(`<meta name="description" content="(.*?)">`)
	pageOgDescRe  = regexp.MustCompile(`<meta property="og:description" content="(.*?)">`)
	pageLengthRe  = regexp.MustCompile(`"lengthSeconds":"(\d+)"`)
)

func parseWatchPage(videoID, page string) *VideoInfo {
	info := &VideoInfo{VideoID: videoID, Thumbnail: thumbnailURL(videoID)}

	if m := pageTitleRe.FindStringSubmatch(page); len(m) > 1 {
		info.Title = html.UnescapeString(m[1])
	}
	if m := pageChannelRe.FindStringSubmatch(page); len(m) > 1 {
		info.Channel = m[1]
	}
	if m := pageDescRe.FindStringSubmatch(page); len(m) > 1 {
		info.Description = html.UnescapeString(m[1])
	} else if m := pageOgDescRe.FindStringSubmatch(page); len(m) > 1 {
		info.Description = html.UnescapeString(m[1])
	}
	if m := pageLengthRe.FindStringSubmatch(page); len(m) > 1 {
		info.DurationSeconds, _ = strconv.Atoi(m[1])
	}
	return info
}

func thumbnailURL(videoID string) string {
	return fmt.Sprintf("https://img.youtube.com/vi/%s/maxresdefault.jpg", videoID)
}
