package classifier

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"bookmark-organizer/internal/model"
)

// ErrMalformedResponse is returned when a model reply lacks one of the four fields
var ErrMalformedResponse = errors.New("malformed classification response")

// responseLine matches one "Label: value" line; full-width colons are accepted
var responseLine = regexp.MustCompile(`(?im)^[ \t]*(name|description|category|url)[ \t]*[:：](.*)$`)

// ParseResponse extracts the four-line classification reply. All of Name,
// Description, Category and Url must be present and non-empty. A category
// outside set is replaced by the set's default and clamped is true.
func ParseResponse(content string, set model.CategorySet) (item model.ClassifiedBookmark, clamped bool, err error) {
	fields := make(map[string]string, 4)
	for _, m := range responseLine.FindAllStringSubmatch(content, -1) {
		label := strings.ToLower(m[1])
		if _, seen := fields[label]; seen {
			continue
		}
		fields[label] = strings.TrimSpace(m[2])
	}

	var missing []string
	for _, label := range []string{"name", "description", "category", "url"} {
		if fields[label] == "" {
			missing = append(missing, label)
		}
	}
	if len(missing) > 0 {
		return model.ClassifiedBookmark{}, false, fmt.Errorf("%w: missing %s", ErrMalformedResponse, strings.Join(missing, ", "))
	}

	category, clamped := set.Clamp(fields["category"])

	return model.ClassifiedBookmark{
		Name:        fields["name"],
		Description: fields["description"],
		Category:    category,
		URL:         fields["url"],
	}, clamped, nil
}
