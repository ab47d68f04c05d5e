package uploads

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

// Purpose says what an uploaded file is for and so which types it may have.
type Purpose string

const (
	PurposeAvatar   Purpose = "avatar"
	PurposeProduct  Purpose = "product"
	PurposeDocument Purpose = "document"
	PurposeBanner   Purpose = "banner"
	PurposeOther    Purpose = "other"
)

type mimeGroup string

const (
	mimeGroupImages mimeGroup = "images"
	mimeGroupVideos mimeGroup = "videos"
	mimeGroupPDFs   mimeGroup = "pdfs"
)

var mimeGroupNames = map[mimeGroup]string{
	mimeGroupImages: "images",
	mimeGroupVideos: "videos",
	mimeGroupPDFs:   "PDFs",
}

var mimeGroupTypes = map[mimeGroup][]string{
	mimeGroupImages: {"image/png", "image/jpeg", "image/webp", "image/gif"},
	mimeGroupVideos: {"video/mp4", "video/webm"},
	mimeGroupPDFs:   {"application/pdf"},
}

var allowedMimeGroupsByPurpose = map[Purpose][]mimeGroup{
	PurposeAvatar:   {mimeGroupImages},
	PurposeProduct:  {mimeGroupImages, mimeGroupVideos},
	PurposeDocument: {mimeGroupPDFs, mimeGroupImages},
	PurposeBanner:   {mimeGroupImages},
	PurposeOther:    {mimeGroupPDFs, mimeGroupImages, mimeGroupVideos},
}

var (
	mimeTypesByPurpose        = buildMimeTypesByPurpose()
	mimeDescriptionsByPurpose = buildMimeDescriptions()
)

// ParsePurpose maps raw input to a Purpose; blank means PurposeOther.
func ParsePurpose(raw string) (Purpose, error) {
	clean := Purpose(strings.ToLower(strings.TrimSpace(raw)))
	if clean == "" {
		return PurposeOther, nil
	}
	if _, ok := allowedMimeGroupsByPurpose[clean]; !ok {
		return "", fmt.Errorf("unknown upload purpose %q", raw)
	}
	return clean, nil
}

func buildMimeTypesByPurpose() map[Purpose][]string {
	result := make(map[Purpose][]string, len(allowedMimeGroupsByPurpose))
	for purpose, groups := range allowedMimeGroupsByPurpose {
		set := make(map[string]struct{})
		for _, group := range groups {
			for _, value := range mimeGroupTypes[group] {
				set[value] = struct{}{}
			}
		}
		list := make([]string, 0, len(set))
		for value := range set {
			list = append(list, value)
		}
		sort.Strings(list)
		result[purpose] = list
	}
	return result
}

func buildMimeDescriptions() map[Purpose]string {
	result := make(map[Purpose]string, len(allowedMimeGroupsByPurpose))
	for purpose, groups := range allowedMimeGroupsByPurpose {
		var descriptions []string
		for _, group := range groups {
			if name, ok := mimeGroupNames[group]; ok {
				descriptions = append(descriptions, name)
			}
		}
		result[purpose] = humanReadableList(descriptions)
	}
	return result
}

func humanReadableList(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	case 2:
		return fmt.Sprintf("%s or %s", items[0], items[1])
	default:
		return fmt.Sprintf("%s, or %s", strings.Join(items[:len(items)-1], ", "), items[len(items)-1])
	}
}

func mimeAllowed(purpose Purpose, mimeType string) bool {
	return slices.Contains(mimeTypesByPurpose[purpose], mimeType)
}

func allowedMimeDescription(purpose Purpose) string {
	if msg, ok := mimeDescriptionsByPurpose[purpose]; ok && msg != "" {
		return msg
	}
	return "the approved file types"
}
