// Package placeholder shields the parts of a search query that must reach
// the video search verbatim (links, #hashtags and @handles) from the
// translation provider. Protect swaps them for numbered markers such as
// [PH0]; Restore puts them back into the provider's output.
package placeholder

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	reURL     = regexp.MustCompile(`https?://\S+`)
	reHashtag = regexp.MustCompile(`#[\p{L}\p{N}_]+`)
	reHandle  = regexp.MustCompile(`@[\p{L}\p{N}_.\-]+`)

	reMarker = regexp.MustCompile(`\[PH(\d+)\]`)
)

// Protect replaces links, hashtags and handles in text with markers and
// returns the masked text with the captured originals, indexed by marker.
// Text that already contains something shaped like a marker is returned
// untouched, since Restore could not tell the two apart.
func Protect(text string) (string, []string) {
	if reMarker.MatchString(text) {
		return text, nil
	}

	var tokens []string
	replace := func(match string) string {
		id := marker(len(tokens))
		tokens = append(tokens, match)
		return id
	}

	// links first so a fragment like "#t=30" stays part of its URL
	text = reURL.ReplaceAllStringFunc(text, replace)
	text = reHashtag.ReplaceAllStringFunc(text, replace)
	text = reHandle.ReplaceAllStringFunc(text, replace)
	return text, tokens
}

// Restore substitutes markers in text with their originals. Unknown markers
// are left as they are.
func Restore(text string, tokens []string) string {
	if len(tokens) == 0 {
		return text
	}
	return reMarker.ReplaceAllStringFunc(text, func(match string) string {
		idx, err := strconv.Atoi(reMarker.FindStringSubmatch(match)[1])
		if err != nil || idx >= len(tokens) {
			return match
		}
		return tokens[idx]
	})
}

// Missing lists the tokens whose markers the provider dropped from text.
func Missing(text string, tokens []string) []string {
	var missing []string
	for i, tok := range tokens {
		if !strings.Contains(text, marker(i)) {
			missing = append(missing, tok)
		}
	}
	return missing
}

// OnlyMarkers reports whether masked holds nothing but markers and spaces,
// i.e. there is nothing left to translate.
func OnlyMarkers(masked string) bool {
	return strings.TrimSpace(reMarker.ReplaceAllString(masked, "")) == ""
}

func marker(i int) string {
	return fmt.Sprintf("[PH%d]", i)
}
