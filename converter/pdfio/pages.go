package pdfio

import (
	"fmt"
	"strconv"
	"strings"
)

// PageSelection restricts processing to a subset of pages. The zero value
// and a nil selection both mean every page.
type PageSelection struct {
	ranges [][2]int
}

// ParsePageSelection parses selections like "1-3,7,12-" where an open end
// runs to the last page. An empty string selects all pages.
func ParsePageSelection(s string) (*PageSelection, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	sel := &PageSelection{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		if idx := strings.Index(part, "-"); idx >= 0 {
			startStr := strings.TrimSpace(part[:idx])
			endStr := strings.TrimSpace(part[idx+1:])

			start, err := strconv.Atoi(startStr)
			if err != nil || start < 1 {
				return nil, fmt.Errorf("invalid page range %q", part)
			}
			end := 0 // open-ended
			if endStr != "" {
				end, err = strconv.Atoi(endStr)
				if err != nil || end < start {
					return nil, fmt.Errorf("invalid page range %q", part)
				}
			}
			sel.ranges = append(sel.ranges, [2]int{start, end})
			continue
		}

		page, err := strconv.Atoi(part)
		if err != nil || page < 1 {
			return nil, fmt.Errorf("invalid page number %q", part)
		}
		sel.ranges = append(sel.ranges, [2]int{page, page})
	}

	if len(sel.ranges) == 0 {
		return nil, nil
	}
	return sel, nil
}

// Contains reports whether page n is selected. A nil selection selects
// every page.
func (s *PageSelection) Contains(n int) bool {
	if s == nil || len(s.ranges) == 0 {
		return true
	}
	for _, r := range s.ranges {
		if n >= r[0] && (r[1] == 0 || n <= r[1]) {
			return true
		}
	}
	return false
}
