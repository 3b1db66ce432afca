// Package render turns an Aggregate into a client document.
package render

import (
	"fmt"
	"strings"

	"github.com/John-Robertt/subagg-go/internal/codec"
	"github.com/John-Robertt/subagg-go/internal/model"
)

type Target string

const (
	TargetClash Target = "clash"
	TargetJSON  Target = "json"
)

type Encoding string

const (
	EncodingPlain  Encoding = "plain"
	EncodingBase64 Encoding = "base64"
)

const (
	ContentTypeText = "text/plain; charset=utf-8"
	ContentTypeJSON = "application/json; charset=utf-8"
)

// Output is a rendered document ready to be written to a client.
type Output struct {
	Body        string
	ContentType string
}

type RenderError struct {
	AppError model.AppError
	Cause    error
}

func (e *RenderError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.AppError.Code, e.AppError.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.AppError.Code, e.AppError.Message, e.Cause)
}

func (e *RenderError) Unwrap() error { return e.Cause }

// ParseTarget maps a query value to a Target. Blank means clash.
func ParseTarget(s string) (Target, error) {
	switch t := Target(strings.ToLower(strings.TrimSpace(s))); t {
	case "":
		return TargetClash, nil
	case TargetClash, TargetJSON:
		return t, nil
	default:
		return "", &RenderError{AppError: model.AppError{
			Code:    "INVALID_ARGUMENT",
			Message: fmt.Sprintf("不支持的 target：%s", s),
			Stage:   "validate_request",
			Hint:    "target=clash|json",
		}}
	}
}

// ParseEncoding maps a query value to an Encoding. Blank means plain.
func ParseEncoding(s string) (Encoding, error) {
	switch e := Encoding(strings.ToLower(strings.TrimSpace(s))); e {
	case "":
		return EncodingPlain, nil
	case EncodingPlain, EncodingBase64:
		return e, nil
	default:
		return "", &RenderError{AppError: model.AppError{
			Code:    "INVALID_ARGUMENT",
			Message: fmt.Sprintf("不支持的 encode：%s", s),
			Stage:   "validate_request",
			Hint:    "encode=plain|base64",
		}}
	}
}

// Render renders agg for target and applies enc. Base64 output is always
// served as plain text.
func Render(agg model.Aggregate, target Target, enc Encoding) (Output, error) {
	var (
		body string
		ct   string
		err  error
	)
	switch target {
	case TargetClash:
		body, err = renderClash(agg)
		ct = ContentTypeText
	case TargetJSON:
		body, err = renderJSON(agg)
		ct = ContentTypeJSON
	default:
		_, err = ParseTarget(string(target))
	}
	if err != nil {
		return Output{}, err
	}

	switch enc {
	case EncodingPlain, "":
		return Output{Body: body, ContentType: ct}, nil
	case EncodingBase64:
		return Output{Body: codec.EncodeBase64(body), ContentType: ContentTypeText}, nil
	default:
		_, err = ParseEncoding(string(enc))
		return Output{}, err
	}
}

func internalError(what string, cause error) *RenderError {
	return &RenderError{
		AppError: model.AppError{
			Code:    "RENDER_FAILED",
			Message: what,
			Stage:   "render",
		},
		Cause: cause,
	}
}
