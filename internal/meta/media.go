package meta

import (
	"net/url"
	"path"
	"strings"

	"github.com/h2non/filetype"
)

// IsVideoURL classifies a media URL by its file extension.
func IsVideoURL(mediaURL string) bool {
	return mediaKind(mediaURL) == "video"
}

func IsImageURL(mediaURL string) bool {
	return mediaKind(mediaURL) == "image"
}

func mediaKind(mediaURL string) string {
	p := mediaURL
	if u, err := url.Parse(mediaURL); err == nil {
		p = u.Path
	}
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(p)), ".")
	switch ext {
	case "":
		return ""
	case "jpeg":
		ext = "jpg"
	}
	return filetype.GetType(ext).MIME.Type
}
