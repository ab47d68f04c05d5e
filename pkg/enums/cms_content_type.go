package enums

import "fmt"

// CMSContentType names a managed content collection.
type CMSContentType string

const (
	CMSContentFAQ     CMSContentType = "faq"
	CMSContentAbout   CMSContentType = "about"
	CMSContentTerms   CMSContentType = "terms"
	CMSContentPrivacy CMSContentType = "privacy"
	CMSContentBanner  CMSContentType = "banner"
)

var validCMSContentTypes = []CMSContentType{
	CMSContentFAQ,
	CMSContentAbout,
	CMSContentTerms,
	CMSContentPrivacy,
	CMSContentBanner,
}

// String implements fmt.Stringer.
func (c CMSContentType) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CMSContentType.
func (c CMSContentType) IsValid() bool {
	for _, candidate := range validCMSContentTypes {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCMSContentType converts raw input into a CMSContentType.
func ParseCMSContentType(value string) (CMSContentType, error) {
	for _, candidate := range validCMSContentTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid cms content type %q", value)
}
