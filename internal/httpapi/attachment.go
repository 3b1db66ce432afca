package httpapi

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/John-Robertt/subagg-go/internal/render"
)

func setAttachmentHeaders(w http.ResponseWriter, fileName string, target render.Target, enc render.Encoding) error {
	filename, err := outputFileName(fileName, target, enc)
	if err != nil {
		return err
	}
	// Add both filename and filename* for better UTF-8 compatibility.
	w.Header().Set("Content-Disposition", contentDispositionAttachment(filename))
	return nil
}

func outputFileName(base string, target render.Target, enc render.Encoding) (string, error) {
	base = strings.TrimSpace(base)
	if base == "" {
		return defaultFileName(target, enc), nil
	}
	if strings.ContainsAny(base, "\r\n\x00") {
		return "", requestError("INVALID_ARGUMENT", "fileName 含有非法控制字符", "")
	}
	if strings.Contains(base, "/") || strings.Contains(base, "\\") {
		return "", requestError("INVALID_ARGUMENT", "fileName 不允许包含路径分隔符", "")
	}
	if len(base) > 200 {
		return "", requestError("INVALID_ARGUMENT", "fileName 过长", "max=200 bytes")
	}
	if !hasExt(base) {
		base += defaultExt(target, enc)
	}
	return base, nil
}

func defaultFileName(target render.Target, enc render.Encoding) string {
	switch {
	case enc == render.EncodingBase64:
		return "subscription.txt"
	case target == render.TargetJSON:
		return "aggregate.json"
	default:
		return "clash.yaml"
	}
}

func defaultExt(target render.Target, enc render.Encoding) string {
	switch {
	case enc == render.EncodingBase64:
		return ".txt"
	case target == render.TargetJSON:
		return ".json"
	default:
		return ".yaml"
	}
}

func hasExt(name string) bool {
	i := strings.LastIndexByte(name, '.')
	return i > 0 && i < len(name)-1
}

func contentDispositionAttachment(filename string) string {
	// RFC 6266 + RFC 5987.
	escaped := strings.ReplaceAll(filename, "\\", "\\\\")
	escaped = strings.ReplaceAll(escaped, "\"", "\\\"")
	return fmt.Sprintf("attachment; filename=\"%s\"; filename*=UTF-8''%s", escaped, pctEncode(filename))
}

// pctEncode is QueryEscape with spaces as %20.
func pctEncode(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
