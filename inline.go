package mddocx

import (
	"regexp"
	"strings"
)

var inlineImageRE = regexp.MustCompile(`!\[([^\]]*)\]\(([^)]+)\)`)

// HasInlineImage reports whether text contains an image reference.
func HasInlineImage(text string) bool {
	return inlineImageRE.MatchString(text)
}

// SplitFragments splits text into text and image reference fragments, left
// to right. Text between references is trimmed and kept only when non-empty.
// Without any reference the whole text is returned as one text fragment.
func SplitFragments(text string) []Fragment {
	matches := inlineImageRE.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return []Fragment{TextFragment(text)}
	}
	out := make([]Fragment, 0, 2*len(matches)+1)
	last := 0
	for _, m := range matches {
		if seg := strings.TrimSpace(text[last:m[0]]); seg != "" {
			out = append(out, TextFragment(seg))
		}
		alt := text[m[2]:m[3]]
		name := strings.TrimSpace(text[m[4]:m[5]])
		out = append(out, ImageFragment(name, alt))
		last = m[1]
	}
	if seg := strings.TrimSpace(text[last:]); seg != "" {
		out = append(out, TextFragment(seg))
	}
	return out
}

// MissingImageText is the placeholder text for an unresolved reference.
func MissingImageText(name string) string {
	return "[missing image: " + name + "]"
}

// ResolveFragments attaches image bytes to image fragments. Unresolved
// references are dropped or replaced with placeholder text per policy.
// The input slice is not modified.
func ResolveFragments(frags []Fragment, images Images, policy MissingImagePolicy) []Fragment {
	out := make([]Fragment, 0, len(frags))
	for _, f := range frags {
		if f.Kind != FragmentImage {
			out = append(out, f)
			continue
		}
		data, ok := images.Lookup(f.Name)
		if ok {
			f.Data = data
			out = append(out, f)
			continue
		}
		if policy == MissingImagePlaceholder {
			out = append(out, TextFragment(MissingImageText(f.Name)))
		}
	}
	return out
}
