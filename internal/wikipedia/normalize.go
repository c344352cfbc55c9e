package wikipedia

import (
	"errors"
	"fmt"
	"strconv"
	"unicode"
	"unicode/utf8"

	"github.com/alvmarrod/degrees/internal/query"
	"github.com/sirupsen/logrus"
)

// apiResponse is the subset of the action=query response we read
type apiResponse struct {
	Query *struct {
		Pages map[string]apiPage `json:"pages"`
	} `json:"query"`
	Error *struct {
		Code string `json:"code"`
		Info string `json:"info"`
	} `json:"error"`
}

type apiPage struct {
	Title     string `json:"title"`
	FullURL   string `json:"fullurl"`
	Thumbnail *struct {
		Source string `json:"source"`
	} `json:"thumbnail"`
	Terms *struct {
		Description []string `json:"description"`
	} `json:"terms"`
}

var (
	errMissingTitle = errors.New("missing title")
	errMissingURL   = errors.New("missing url")
)

// normalizePages converts the API pages object into a PagesMap restricted
// to the requested page IDs. Pages that fail normalization are logged and skipped
func normalizePages(pages map[string]apiPage, requested []int) query.PagesMap {
	wanted := make(map[int]struct{}, len(requested))
	for _, id := range requested {
		wanted[id] = struct{}{}
	}

	result := make(query.PagesMap, len(pages))
	for key, page := range pages {
		pageID, info, err := normalizePage(key, page)
		if err != nil {
			logrus.Warnf("Skipping page %s in metadata response: %v", key, err)
			continue
		}
		if _, ok := wanted[pageID]; !ok {
			logrus.Debugf("Ignoring unrequested page %d in metadata response", pageID)
			continue
		}
		result[pageID] = info
	}
	return result
}

func normalizePage(key string, page apiPage) (int, query.PageInfo, error) {
	pageID, err := strconv.Atoi(key)
	if err != nil {
		return 0, query.PageInfo{}, fmt.Errorf("invalid page id: %w", err)
	}
	if page.Title == "" {
		return 0, query.PageInfo{}, errMissingTitle
	}
	if page.FullURL == "" {
		return 0, query.PageInfo{}, errMissingURL
	}

	info := query.PageInfo{
		Title: page.Title,
		URL:   page.FullURL,
	}
	if page.Thumbnail != nil && page.Thumbnail.Source != "" {
		info.ThumbnailURL = page.Thumbnail.Source
	}
	if page.Terms != nil && len(page.Terms.Description) > 0 {
		info.Description = SentenceCase(page.Terms.Description[0])
	}

	return pageID, info, nil
}

// SentenceCase upper-cases the first character and leaves the rest unchanged
// Example: "a red fruit" -> "A red fruit"
func SentenceCase(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
