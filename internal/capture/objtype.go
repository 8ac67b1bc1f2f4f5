package capture

import (
	"path"
	"strings"

	"github.com/nao1215/httpsdash/internal/model"
)

var extensionTypes = map[string]model.ObjectType{
	".png":  model.ObjectTypeImage,
	".jpg":  model.ObjectTypeImage,
	".jpeg": model.ObjectTypeImage,
	".gif":  model.ObjectTypeImage,
	".webp": model.ObjectTypeImage,
	".svg":  model.ObjectTypeImage,
	".ico":  model.ObjectTypeImage,
	".bmp":  model.ObjectTypeImage,
	".css":  model.ObjectTypeCSS,
	".html": model.ObjectTypeHTML,
	".htm":  model.ObjectTypeHTML,
	".js":   model.ObjectTypeJavaScript,
	".mjs":  model.ObjectTypeJavaScript,
	".swf":  model.ObjectTypeFlash,
}

// ObjectTypeOf classifies an object by its MIME type, falling back to the
// extension of urlPath when the MIME type is missing or generic.
func ObjectTypeOf(mimeType, urlPath string) model.ObjectType {
	mimeType = normalizeMIME(mimeType)
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return model.ObjectTypeImage
	case mimeType == "text/css":
		return model.ObjectTypeCSS
	case mimeType == "text/html", mimeType == "application/xhtml+xml":
		return model.ObjectTypeHTML
	case strings.Contains(mimeType, "javascript"), strings.Contains(mimeType, "ecmascript"):
		return model.ObjectTypeJavaScript
	case mimeType == "application/x-shockwave-flash":
		return model.ObjectTypeFlash
	}

	if t, ok := extensionTypes[strings.ToLower(path.Ext(urlPath))]; ok {
		return t
	}
	return model.ObjectTypeOther
}

// normalizeMIME drops parameters and lower-cases the media type.
func normalizeMIME(mimeType string) string {
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}
